package vcs

import (
	"context"
	"fmt"
	"io"

	"github.com/modelvault/modelvault/internal/store"
)

// Service implements Versioned over a local store. It owns the upload and
// read version resolution and delegates all data access to the repository.
type Service struct {
	repo     *Repository
	resolver *Resolver
}

func NewService(s store.Store) *Service {
	repo := NewRepository(s)
	return &Service{repo: repo, resolver: NewResolver(repo)}
}

var _ Versioned = (*Service)(nil)

func (s *Service) Upload(ctx context.Context, id Identity, r io.Reader, description string, version *int64) (string, error) {
	target, overwrite, err := s.resolver.ResolveUpload(ctx, id, version)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	if overwrite {
		if err := s.repo.DeleteOne(ctx, s.repo.VersionQuery(id, target)); err != nil {
			return "", fmt.Errorf("error uploading file: %w", err)
		}
	}
	if description == "" {
		description = DefaultDescription
	}
	md := store.Metadata{
		Owner:              id.Owner,
		Project:            id.Project,
		FileType:           id.FileType,
		VersionNumber:      target,
		VersionDescription: description,
	}
	objectID, err := s.repo.Upload(ctx, id.Name, r, md)
	if err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return objectID, nil
}

func (s *Service) Download(ctx context.Context, id Identity, version *int64) (io.ReadCloser, *store.FileDescriptor, error) {
	target, err := s.resolver.ResolveRead(ctx, id, version)
	if err != nil {
		return nil, nil, fmt.Errorf("error downloading file: %w", err)
	}
	rc, fd, err := s.repo.OpenContent(ctx, s.repo.VersionQuery(id, target))
	if err != nil {
		return nil, nil, fmt.Errorf("error downloading file: %w", err)
	}
	return rc, fd, nil
}

func (s *Service) GetVersionInfo(ctx context.Context, id Identity, version int64) (*store.FileDescriptor, error) {
	target, err := s.resolver.ResolveRead(ctx, id, &version)
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}
	fd, err := s.repo.FindOne(ctx, s.repo.VersionQuery(id, target))
	if err != nil {
		return nil, fmt.Errorf("error getting file info: %w", err)
	}
	return fd, nil
}

func (s *Service) ListVersions(ctx context.Context, id Identity) ([]*store.FileDescriptor, error) {
	fds, err := s.repo.FindMany(ctx, s.repo.ModelQuery(id))
	if err != nil {
		return nil, fmt.Errorf("error getting file versions: %w", err)
	}
	return fds, nil
}

func (s *Service) ListProject(ctx context.Context, owner, project string) ([]*store.FileDescriptor, error) {
	fds, err := s.repo.FindMany(ctx, s.repo.ProjectQuery(owner, project))
	if err != nil {
		return nil, fmt.Errorf("error getting project files: %w", err)
	}
	return fds, nil
}

func (s *Service) ListAll(ctx context.Context, owner string) ([]*store.FileDescriptor, error) {
	fds, err := s.repo.FindMany(ctx, s.repo.OwnerQuery(owner))
	if err != nil {
		return nil, fmt.Errorf("error getting files: %w", err)
	}
	return fds, nil
}

func (s *Service) UpdateVersion(ctx context.Context, id Identity, version int64, p store.Patch) error {
	target, err := s.resolver.ResolveRead(ctx, id, &version)
	if err != nil {
		return fmt.Errorf("error updating file version: %w", err)
	}
	if err := s.repo.UpdateOne(ctx, s.repo.VersionQuery(id, target), p); err != nil {
		return fmt.Errorf("error updating file version: %w", err)
	}
	return nil
}

func (s *Service) UpdateModel(ctx context.Context, id Identity, p store.Patch) error {
	if err := s.repo.UpdateMany(ctx, s.repo.ModelQuery(id), p); err != nil {
		return fmt.Errorf("error updating file: %w", err)
	}
	return nil
}

func (s *Service) UpdateProject(ctx context.Context, owner, project string, p store.Patch) error {
	if err := s.repo.UpdateMany(ctx, s.repo.ProjectQuery(owner, project), p); err != nil {
		return fmt.Errorf("error updating project files: %w", err)
	}
	return nil
}

func (s *Service) UpdateOwner(ctx context.Context, owner string, p store.Patch) error {
	if err := s.repo.UpdateMany(ctx, s.repo.OwnerQuery(owner), p); err != nil {
		return fmt.Errorf("error updating owner files: %w", err)
	}
	return nil
}

func (s *Service) DeleteVersion(ctx context.Context, id Identity, version int64) error {
	target, err := s.resolver.ResolveRead(ctx, id, &version)
	if err != nil {
		return fmt.Errorf("error deleting file version: %w", err)
	}
	if err := s.repo.DeleteOne(ctx, s.repo.VersionQuery(id, target)); err != nil {
		return fmt.Errorf("error deleting file version: %w", err)
	}
	return nil
}

func (s *Service) DeleteModel(ctx context.Context, id Identity) error {
	if err := s.repo.DeleteMany(ctx, s.repo.ModelQuery(id)); err != nil {
		return fmt.Errorf("error deleting file: %w", err)
	}
	return nil
}

func (s *Service) DeleteProject(ctx context.Context, owner, project string) error {
	if err := s.repo.DeleteMany(ctx, s.repo.ProjectQuery(owner, project)); err != nil {
		return fmt.Errorf("error deleting project files: %w", err)
	}
	return nil
}

func (s *Service) DeleteOwner(ctx context.Context, owner string) error {
	if err := s.repo.DeleteMany(ctx, s.repo.OwnerQuery(owner)); err != nil {
		return fmt.Errorf("error deleting owner files: %w", err)
	}
	return nil
}
