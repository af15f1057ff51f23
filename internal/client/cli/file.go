package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/vcs"
)

// promptIdentity collects the model identity, offering the current
// selection as defaults.
func (a *App) promptIdentity() (vcs.Identity, error) {
	sel := a.orch.Tree.Selection

	project, err := GetTextDefault(a.reader, "Project", sel.Project, os.Stdout)
	if err != nil {
		return vcs.Identity{}, err
	}
	name, err := GetTextDefault(a.reader, "Model name", sel.Name, os.Stdout)
	if err != nil {
		return vcs.Identity{}, err
	}
	fileType, err := GetTextDefault(a.reader, "File type", sel.FileType, os.Stdout)
	if err != nil {
		return vcs.Identity{}, err
	}
	return vcs.Identity{Owner: a.userName, Project: project, Name: name, FileType: fileType}, nil
}

// Add uploads a local file into the store as a new version.
func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	path, err := GetSimpleText(a.reader, "Path to the file", os.Stdout)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		printlnFn("Error opening file:", err)
		return err
	}
	defer f.Close()

	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	sel := a.orch.Tree.Selection

	project, err := GetTextDefault(a.reader, "Project", sel.Project, os.Stdout)
	if err != nil {
		return err
	}
	name, err := GetTextDefault(a.reader, "Model name", strings.TrimSuffix(base, filepath.Ext(base)), os.Stdout)
	if err != nil {
		return err
	}
	fileType, err := GetTextDefault(a.reader, "File type", ext, os.Stdout)
	if err != nil {
		return err
	}
	description, err := GetSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}
	version, err := GetVersion(a.reader, "Version", os.Stdout)
	if err != nil {
		printlnFn(err)
		return err
	}

	id := vcs.Identity{Owner: a.userName, Project: project, Name: name, FileType: fileType}
	if _, err := a.local.Upload(ctx, id, f, description, version); err != nil {
		printlnFn("Error adding file:", err)
		return err
	}
	if err := a.orch.Refresh(ctx); err != nil {
		a.logger.Warn(ctx, "error refreshing tree", "error", err)
	}
	printlnFn("Added", name+"."+fileType, "to", project)
	return nil
}

// Extract downloads one version into a local file.
func (a *App) Extract(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := a.promptIdentity()
	if err != nil {
		return err
	}
	version, err := GetVersion(a.reader, "Version", os.Stdout)
	if err != nil {
		printlnFn(err)
		return err
	}
	out, err := GetTextDefault(a.reader, "Save as", id.Name+"."+id.FileType, os.Stdout)
	if err != nil {
		return err
	}

	rc, fd, err := a.local.Download(ctx, id, version)
	if err != nil {
		printlnFn("Error extracting file:", err)
		return err
	}
	defer rc.Close()

	dst, err := os.Create(out)
	if err != nil {
		printlnFn("Error creating file:", err)
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, rc); err != nil {
		printlnFn("Error writing file:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Extracted version %d to %s", fd.Metadata.VersionNumber, out))
	return nil
}

// History lists the stored versions of one model.
func (a *App) History(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	id, err := a.promptIdentity()
	if err != nil {
		return err
	}
	fds, err := a.local.ListVersions(ctx, id)
	if err != nil {
		printlnFn("Error listing versions:", err)
		return err
	}
	if len(fds) == 0 {
		printlnFn("No versions stored")
		return nil
	}
	for _, fd := range fds {
		printlnFn(fmt.Sprintf("v%d  %s  %d bytes  %s",
			fd.Metadata.VersionNumber,
			fd.UploadedAt.Format("2006-01-02 15:04"),
			fd.Length,
			fd.Metadata.VersionDescription))
	}
	return nil
}

// Describe updates the description of one version on the chosen side.
func (a *App) Describe(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	side, err := a.chooseSide()
	if err != nil {
		return err
	}
	id, err := a.promptIdentity()
	if err != nil {
		return err
	}
	version, err := GetVersion(a.reader, "Version", os.Stdout)
	if err != nil {
		printlnFn(err)
		return err
	}
	description, err := GetSimpleText(a.reader, "New description", os.Stdout)
	if err != nil {
		return err
	}

	target := vcs.Latest
	if version != nil {
		target = *version
	}
	patch := store.Patch{Description: &description}
	if err := side.UpdateVersion(ctx, id, target, patch); err != nil {
		printlnFn("Error updating description:", err)
		return err
	}
	printlnFn("Description updated")
	return nil
}

// Remove deletes a version, a model, or a whole project. The breadth is
// inferred from how much of the identity is filled in.
func (a *App) Remove(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	sideName, sideVal, err := a.chooseSideValue()
	if err != nil {
		return err
	}
	sel := a.orch.Tree.Selection
	project, err := GetTextDefault(a.reader, "Project", sel.Project, os.Stdout)
	if err != nil {
		return err
	}
	name, err := GetTextDefault(a.reader, "Model name (empty to remove the whole project)", sel.Name, os.Stdout)
	if err != nil {
		return err
	}

	if name == "" {
		if err := a.orch.DeleteProject(ctx, sideVal, project); err != nil {
			printlnFn("Error removing project:", err)
			return err
		}
		printlnFn("Removed project", project, "from", sideName)
		return nil
	}

	fileType, err := GetTextDefault(a.reader, "File type", sel.FileType, os.Stdout)
	if err != nil {
		return err
	}
	id := vcs.Identity{Owner: a.userName, Project: project, Name: name, FileType: fileType}

	version, err := GetVersion(a.reader, "Version (empty to remove all versions)", os.Stdout)
	if err != nil {
		printlnFn(err)
		return err
	}
	if version == nil {
		if err := a.orch.DeleteModel(ctx, sideVal, id); err != nil {
			printlnFn("Error removing model:", err)
			return err
		}
		printlnFn("Removed", name+"."+fileType, "from", sideName)
		return nil
	}

	if err := a.orch.DeleteVersion(ctx, sideVal, id, *version); err != nil {
		printlnFn("Error removing version:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Removed version %d of %s.%s from %s", *version, name, fileType, sideName))
	return nil
}
