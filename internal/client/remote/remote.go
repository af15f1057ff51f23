// Package remote adapts the server HTTP API to the same file-lifecycle
// interface the local store implements, so the sync layer can move objects
// between the two sides without knowing which one it is talking to.
package remote

import (
	"context"
	"fmt"
	"io"

	"github.com/modelvault/modelvault/internal/client/api"
	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/vcs"
)

// Service implements vcs.Versioned over the server API. The owner of every
// identity is implied by the client's bearer token; the Owner fields and
// owner arguments are accepted for interface symmetry and not sent.
type Service struct {
	client *api.Client
}

func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

var _ vcs.Versioned = (*Service)(nil)

func (s *Service) Upload(ctx context.Context, id vcs.Identity, r io.Reader, description string, version *int64) (string, error) {
	if err := vcs.ValidateVersion(version); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	fd, err := s.client.Upload(ctx, api.UploadRequest{
		Name:        id.Name,
		Project:     id.Project,
		FileType:    id.FileType,
		Description: description,
		Version:     version,
		Body:        r,
	})
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return fd.ID, nil
}

func (s *Service) Download(ctx context.Context, id vcs.Identity, version *int64) (io.ReadCloser, *store.FileDescriptor, error) {
	if err := vcs.ValidateVersion(version); err != nil {
		return nil, nil, fmt.Errorf("error downloading file: %w", err)
	}
	if version != nil && *version == vcs.Latest {
		version = nil
	}
	rc, fd, err := s.client.Download(ctx, id.Name, id.FileType, id.Project, version)
	if err != nil {
		return nil, nil, fmt.Errorf("error downloading file: %w", err)
	}
	return rc, fd, nil
}

func (s *Service) GetVersionInfo(ctx context.Context, id vcs.Identity, version int64) (*store.FileDescriptor, error) {
	target, err := s.resolve(ctx, id, version)
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}
	fds, err := s.ListVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}
	for _, fd := range fds {
		if fd.Metadata.VersionNumber == target {
			return fd, nil
		}
	}
	return nil, fmt.Errorf("error getting file info: %w", common.ErrNotFound)
}

func (s *Service) ListVersions(ctx context.Context, id vcs.Identity) ([]*store.FileDescriptor, error) {
	fds, err := s.client.AllInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting file versions: %w", err)
	}
	var out []*store.FileDescriptor
	for _, fd := range fds {
		if fd.Name == id.Name && fd.Metadata.Project == id.Project && fd.Metadata.FileType == id.FileType {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (s *Service) ListProject(ctx context.Context, _, project string) ([]*store.FileDescriptor, error) {
	fds, err := s.client.AllInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting project files: %w", err)
	}
	var out []*store.FileDescriptor
	for _, fd := range fds {
		if fd.Metadata.Project == project {
			out = append(out, fd)
		}
	}
	return out, nil
}

func (s *Service) ListAll(ctx context.Context, _ string) ([]*store.FileDescriptor, error) {
	fds, err := s.client.AllInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting files: %w", err)
	}
	return fds, nil
}

func (s *Service) UpdateVersion(ctx context.Context, id vcs.Identity, version int64, p store.Patch) error {
	if p.Description == nil {
		return fmt.Errorf("error updating file version: only the description can be updated remotely")
	}
	target, err := s.resolve(ctx, id, version)
	if err != nil {
		return fmt.Errorf("error updating file version: %w", err)
	}
	err = s.client.UpdateInfo(ctx, api.UpdateInfoRequest{
		Name:        id.Name,
		Project:     id.Project,
		FileType:    id.FileType,
		Version:     target,
		Description: *p.Description,
	})
	if err != nil {
		return fmt.Errorf("error updating file version: %w", err)
	}
	return nil
}

func (s *Service) UpdateModel(ctx context.Context, id vcs.Identity, p store.Patch) error {
	fds, err := s.ListVersions(ctx, id)
	if err != nil {
		return fmt.Errorf("error updating file: %w", err)
	}
	return s.updateEach(ctx, fds, p)
}

func (s *Service) UpdateProject(ctx context.Context, owner, project string, p store.Patch) error {
	fds, err := s.ListProject(ctx, owner, project)
	if err != nil {
		return fmt.Errorf("error updating project files: %w", err)
	}
	return s.updateEach(ctx, fds, p)
}

func (s *Service) UpdateOwner(ctx context.Context, owner string, p store.Patch) error {
	fds, err := s.ListAll(ctx, owner)
	if err != nil {
		return fmt.Errorf("error updating owner files: %w", err)
	}
	return s.updateEach(ctx, fds, p)
}

func (s *Service) updateEach(ctx context.Context, fds []*store.FileDescriptor, p store.Patch) error {
	if p.Description == nil {
		return fmt.Errorf("error updating files: only the description can be updated remotely")
	}
	for _, fd := range fds {
		err := s.client.UpdateInfo(ctx, api.UpdateInfoRequest{
			Name:        fd.Name,
			Project:     fd.Metadata.Project,
			FileType:    fd.Metadata.FileType,
			Version:     fd.Metadata.VersionNumber,
			Description: *p.Description,
		})
		if err != nil {
			return fmt.Errorf("error updating files: %w", err)
		}
	}
	return nil
}

func (s *Service) DeleteVersion(ctx context.Context, id vcs.Identity, version int64) error {
	target, err := s.resolve(ctx, id, version)
	if err != nil {
		return fmt.Errorf("error deleting file version: %w", err)
	}
	if err := s.client.Delete(ctx, id.Name, id.FileType, id.Project, &target); err != nil {
		return fmt.Errorf("error deleting file version: %w", err)
	}
	return nil
}

func (s *Service) DeleteModel(ctx context.Context, id vcs.Identity) error {
	if err := s.client.Delete(ctx, id.Name, id.FileType, id.Project, nil); err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}
	return nil
}

func (s *Service) DeleteProject(ctx context.Context, _, project string) error {
	if err := s.client.DeleteProject(ctx, project); err != nil {
		return fmt.Errorf("error deleting project files: %w", err)
	}
	return nil
}

func (s *Service) DeleteOwner(ctx context.Context, owner string) error {
	fds, err := s.ListAll(ctx, owner)
	if err != nil {
		return fmt.Errorf("error deleting owner files: %w", err)
	}
	seen := map[string]bool{}
	for _, fd := range fds {
		if seen[fd.Metadata.Project] {
			continue
		}
		seen[fd.Metadata.Project] = true
		if err := s.client.DeleteProject(ctx, fd.Metadata.Project); err != nil {
			return fmt.Errorf("error deleting owner files: %w", err)
		}
	}
	return nil
}

// resolve maps Latest onto the highest version the server currently has.
func (s *Service) resolve(ctx context.Context, id vcs.Identity, version int64) (int64, error) {
	if err := vcs.ValidateVersion(&version); err != nil {
		return 0, err
	}
	if version != vcs.Latest {
		return version, nil
	}
	fds, err := s.ListVersions(ctx, id)
	if err != nil {
		return 0, err
	}
	var last int64
	for _, fd := range fds {
		if fd.Metadata.VersionNumber > last {
			last = fd.Metadata.VersionNumber
		}
	}
	if last == 0 {
		return 0, common.ErrNotFound
	}
	return last, nil
}
