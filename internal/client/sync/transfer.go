package sync

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/vcs"
)

// PushVersion copies one local version to the server under the same number.
func (o *Orchestrator) PushVersion(ctx context.Context, id vcs.Identity, version int64) (*SyncReport, error) {
	return o.transferOne(ctx, Local, Remote, id, version)
}

// PushModel copies every local version of the model, ascending.
func (o *Orchestrator) PushModel(ctx context.Context, id vcs.Identity) (*SyncReport, error) {
	return o.transferListed(ctx, Local, Remote, func() ([]*store.FileDescriptor, error) {
		return o.local.ListVersions(ctx, id)
	})
}

// PushProject copies every version of every model in the project.
func (o *Orchestrator) PushProject(ctx context.Context, project string) (*SyncReport, error) {
	return o.transferListed(ctx, Local, Remote, func() ([]*store.FileDescriptor, error) {
		return o.local.ListProject(ctx, o.owner, project)
	})
}

// CloneVersion copies one server version into the local store.
func (o *Orchestrator) CloneVersion(ctx context.Context, id vcs.Identity, version int64) (*SyncReport, error) {
	return o.transferOne(ctx, Remote, Local, id, version)
}

// CloneModel copies every server version of the model, ascending.
func (o *Orchestrator) CloneModel(ctx context.Context, id vcs.Identity) (*SyncReport, error) {
	return o.transferListed(ctx, Remote, Local, func() ([]*store.FileDescriptor, error) {
		return o.remote.ListVersions(ctx, id)
	})
}

// CloneProject copies the whole server-side project.
func (o *Orchestrator) CloneProject(ctx context.Context, project string) (*SyncReport, error) {
	return o.transferListed(ctx, Remote, Local, func() ([]*store.FileDescriptor, error) {
		return o.remote.ListProject(ctx, o.owner, project)
	})
}

// Delete removes one version from the chosen side and refreshes the tree.
func (o *Orchestrator) DeleteVersion(ctx context.Context, side Side, id vcs.Identity, version int64) error {
	if err := o.gate(side); err != nil {
		return err
	}
	if err := o.at(side).DeleteVersion(ctx, id, version); err != nil {
		return err
	}
	return o.refreshAfter(ctx, side)
}

// DeleteModel removes every version of the model from the chosen side.
func (o *Orchestrator) DeleteModel(ctx context.Context, side Side, id vcs.Identity) error {
	if err := o.gate(side); err != nil {
		return err
	}
	if err := o.at(side).DeleteModel(ctx, id); err != nil {
		return err
	}
	return o.refreshAfter(ctx, side)
}

// DeleteProject removes the whole project from the chosen side.
func (o *Orchestrator) DeleteProject(ctx context.Context, side Side, project string) error {
	if err := o.gate(side); err != nil {
		return err
	}
	if err := o.at(side).DeleteProject(ctx, o.owner, project); err != nil {
		return err
	}
	return o.refreshAfter(ctx, side)
}

func (o *Orchestrator) gate(side Side) error {
	if side == Remote {
		return o.ensureAuthenticated()
	}
	return o.ensureOwner()
}

func (o *Orchestrator) refreshAfter(ctx context.Context, side Side) error {
	if side == Local {
		return o.Refresh(ctx)
	}
	return nil
}

func (o *Orchestrator) transferOne(ctx context.Context, from, to Side, id vcs.Identity, version int64) (*SyncReport, error) {
	if err := o.ensureAuthenticated(); err != nil {
		return nil, err
	}
	fd, err := o.at(from).GetVersionInfo(ctx, id, version)
	if err != nil {
		return nil, err
	}
	report := o.transfer(ctx, from, to, []*store.FileDescriptor{fd})
	if err := o.finishTransfer(ctx, to, report); err != nil {
		return report, err
	}
	return report, report.Err()
}

func (o *Orchestrator) transferListed(ctx context.Context, from, to Side, list func() ([]*store.FileDescriptor, error)) (*SyncReport, error) {
	if err := o.ensureAuthenticated(); err != nil {
		return nil, err
	}
	fds, err := list()
	if err != nil {
		return nil, err
	}
	sort.Slice(fds, func(i, j int) bool {
		a, b := fds[i], fds[j]
		if a.Metadata.Project != b.Metadata.Project {
			return a.Metadata.Project < b.Metadata.Project
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Metadata.FileType != b.Metadata.FileType {
			return a.Metadata.FileType < b.Metadata.FileType
		}
		return a.Metadata.VersionNumber < b.Metadata.VersionNumber
	})
	report := o.transfer(ctx, from, to, fds)
	if err := o.finishTransfer(ctx, to, report); err != nil {
		return report, err
	}
	return report, report.Err()
}

// transfer copies each listed version from one side to the other under its
// exact version number. One failed item is recorded and the rest continue;
// only context cancellation stops the loop early.
func (o *Orchestrator) transfer(ctx context.Context, from, to Side, fds []*store.FileDescriptor) *SyncReport {
	report := &SyncReport{}
	src, dst := o.at(from), o.at(to)
	for _, fd := range fds {
		id := vcs.Identity{
			Owner:    o.owner,
			Project:  fd.Metadata.Project,
			Name:     fd.Name,
			FileType: fd.Metadata.FileType,
		}
		version := fd.Metadata.VersionNumber
		if err := ctx.Err(); err != nil {
			report.add(id, version, err)
			break
		}
		report.add(id, version, o.copyVersion(ctx, src, dst, id, fd))
	}
	return report
}

func (o *Orchestrator) copyVersion(ctx context.Context, src, dst vcs.Versioned, id vcs.Identity, fd *store.FileDescriptor) error {
	version := fd.Metadata.VersionNumber
	rc, _, err := src.Download(ctx, id, &version)
	if err != nil {
		return err
	}
	defer rc.Close()

	if _, err := dst.Upload(ctx, id, rc, fd.Metadata.VersionDescription, &version); err != nil {
		return err
	}
	o.logger.Debug(ctx, "version transferred",
		"project", id.Project, "name", id.Name, "type", id.FileType, "version", version)
	return nil
}

// finishTransfer reloads the local snapshot when the transfer landed there.
// Successful items must show up even when others in the batch failed.
func (o *Orchestrator) finishTransfer(ctx context.Context, to Side, report *SyncReport) error {
	if to != Local {
		return nil
	}
	if err := o.Refresh(ctx); err != nil {
		return fmt.Errorf("transfer finished but tree reload failed: %w", err)
	}
	return nil
}
