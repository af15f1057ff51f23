package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/modelvault/modelvault/internal/client/sync"
	"github.com/modelvault/modelvault/internal/vcs"
)

// chooseSideValue prompts for local or remote and returns both the label
// and the sync.Side value.
func (a *App) chooseSideValue() (string, sync.Side, error) {
	name, err := GetTextDefault(a.reader, "Side (local/remote)", "local", os.Stdout)
	if err != nil {
		return "", sync.Local, err
	}
	switch name {
	case "local", "l":
		return "local", sync.Local, nil
	case "remote", "r":
		return "remote", sync.Remote, nil
	default:
		printlnFn("Unknown side:", name)
		return "", sync.Local, fmt.Errorf("unknown side %q", name)
	}
}

// chooseSide picks the versioned service the chosen side exposes.
func (a *App) chooseSide() (vcs.Versioned, error) {
	_, side, err := a.chooseSideValue()
	if err != nil {
		return nil, err
	}
	if side == sync.Remote {
		return a.remote, nil
	}
	return a.local, nil
}

// Push copies local objects to the server. The breadth is inferred from
// how much of the identity is filled in, same as remove.
func (a *App) Push(ctx context.Context) error {
	return a.runTransfer(ctx, "push",
		a.orch.PushVersion, a.orch.PushModel, a.orch.PushProject)
}

// Clone copies server objects into the local store.
func (a *App) Clone(ctx context.Context) error {
	return a.runTransfer(ctx, "clone",
		a.orch.CloneVersion, a.orch.CloneModel, a.orch.CloneProject)
}

func (a *App) runTransfer(
	ctx context.Context,
	verb string,
	byVersion func(context.Context, vcs.Identity, int64) (*sync.SyncReport, error),
	byModel func(context.Context, vcs.Identity) (*sync.SyncReport, error),
	byProject func(context.Context, string) (*sync.SyncReport, error),
) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	sel := a.orch.Tree.Selection
	project, err := GetTextDefault(a.reader, "Project", sel.Project, os.Stdout)
	if err != nil {
		return err
	}
	name, err := GetTextDefault(a.reader, "Model name (empty for the whole project)", sel.Name, os.Stdout)
	if err != nil {
		return err
	}

	var report *sync.SyncReport
	var opErr error
	switch {
	case name == "":
		report, opErr = byProject(ctx, project)
	default:
		fileType, err := GetTextDefault(a.reader, "File type", sel.FileType, os.Stdout)
		if err != nil {
			return err
		}
		id := vcs.Identity{Owner: a.userName, Project: project, Name: name, FileType: fileType}
		version, err := GetVersion(a.reader, "Version (empty for all versions)", os.Stdout)
		if err != nil {
			printlnFn(err)
			return err
		}
		if version == nil {
			report, opErr = byModel(ctx, id)
		} else {
			report, opErr = byVersion(ctx, id, *version)
		}
	}

	if report == nil {
		printlnFn("Error:", opErr)
		return opErr
	}
	printReport(verb, report)
	return opErr
}

func printReport(verb string, report *sync.SyncReport) {
	failed := report.Failed()
	printlnFn(fmt.Sprintf("%s finished: %d ok, %d failed",
		verb, len(report.Items)-len(failed), len(failed)))
	for _, it := range failed {
		printlnFn(fmt.Sprintf("  %s/%s.%s v%d: %v",
			it.Identity.Project, it.Identity.Name, it.Identity.FileType, it.Version, it.Err))
	}
}
