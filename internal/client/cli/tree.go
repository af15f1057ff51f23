package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelvault/modelvault/internal/tree"
)

// Tree prints the local hierarchy with the current selection marked.
func (a *App) Tree(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.orch.Refresh(ctx); err != nil {
		printlnFn("Error loading tree:", err)
		return err
	}
	printProjects(a.orch.Tree.Projects, a.orch.Tree.Selection)
	return nil
}

// Remote fetches and prints the server-side hierarchy.
func (a *App) Remote(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	projects, err := a.orch.RemoteTree(ctx)
	if err != nil {
		printlnFn("Error loading remote tree:", err)
		return err
	}
	printProjects(projects, tree.Selection{})
	return nil
}

// Select stores a project, model, or version as the default target for the
// file and sync commands.
func (a *App) Select(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	sel := a.orch.Tree.Selection

	project, err := GetTextDefault(a.reader, "Project", sel.Project, os.Stdout)
	if err != nil {
		return err
	}
	if a.orch.Tree.FindProject(project) == nil {
		printlnFn("Unknown project:", project)
		return fmt.Errorf("unknown project %q", project)
	}

	name, err := GetTextDefault(a.reader, "Model name (empty to select the project)", sel.Name, os.Stdout)
	if err != nil {
		return err
	}
	newSel := tree.Selection{Project: project}
	if name != "" {
		fileType, err := GetTextDefault(a.reader, "File type", sel.FileType, os.Stdout)
		if err != nil {
			return err
		}
		newSel.Name = name
		newSel.FileType = fileType
		version, err := GetVersion(a.reader, "Version (empty for the whole model)", os.Stdout)
		if err != nil {
			printlnFn(err)
			return err
		}
		if version != nil {
			newSel.Version = *version
		}
	}

	a.orch.Tree.Selection = newSel
	printlnFn("Selected", describeSelection(newSel))
	return nil
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return fmt.Errorf("not logged in")
	}
	return nil
}

func printProjects(projects []*tree.Project, sel tree.Selection) {
	if len(projects) == 0 {
		printlnFn("(no objects)")
		return
	}
	for _, p := range projects {
		printlnFn(mark(sel.Project == p.Name && sel.Name == "") + p.Name)
		for _, m := range p.Models {
			selected := sel.Project == p.Name && sel.Name == m.Name && sel.FileType == m.FileType
			printlnFn("  " + mark(selected && sel.Version == 0) + m.Name + "." + m.FileType)
			for _, v := range m.Versions {
				desc := v.Description
				if desc == "" {
					desc = "No description"
				}
				line := fmt.Sprintf("    %sv%d  %s  %s",
					mark(selected && sel.Version == v.Number),
					v.Number, v.UploadedAt.Format("2006-01-02 15:04"), desc)
				printlnFn(line)
			}
		}
	}
}

func mark(selected bool) string {
	if selected {
		return "* "
	}
	return ""
}

func describeSelection(sel tree.Selection) string {
	if sel.IsZero() {
		return "nothing"
	}
	var b strings.Builder
	b.WriteString("project " + sel.Project)
	if sel.Name != "" {
		fmt.Fprintf(&b, ", model %s.%s", sel.Name, sel.FileType)
	}
	if sel.Version != 0 {
		fmt.Fprintf(&b, ", version %d", sel.Version)
	}
	return b.String()
}
