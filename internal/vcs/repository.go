package vcs

import (
	"context"
	"fmt"
	"io"

	"github.com/modelvault/modelvault/internal/store"
)

// Repository is the only place queries against the store are built from
// identities, so the four granularities (version, model, project, owner)
// stay consistent across every operation that uses them.
type Repository struct {
	store store.Store
}

func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// VersionQuery matches exactly one stored object. A zero version widens
// the query to every version of the model.
func (r *Repository) VersionQuery(id Identity, version int64) store.Query {
	return store.Query{
		Name:     id.Name,
		Owner:    id.Owner,
		Project:  id.Project,
		FileType: id.FileType,
		Version:  version,
	}
}

// ModelQuery matches every version of one model.
func (r *Repository) ModelQuery(id Identity) store.Query {
	return store.Query{
		Name:     id.Name,
		Owner:    id.Owner,
		Project:  id.Project,
		FileType: id.FileType,
	}
}

// ProjectQuery matches every object in one project of one owner.
func (r *Repository) ProjectQuery(owner, project string) store.Query {
	return store.Query{Owner: owner, Project: project}
}

// OwnerQuery matches everything the owner has stored.
func (r *Repository) OwnerQuery(owner string) store.Query {
	return store.Query{Owner: owner}
}

func (r *Repository) Upload(ctx context.Context, name string, src io.Reader, md store.Metadata) (string, error) {
	id, err := r.store.Upload(ctx, name, src, md)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return id, nil
}

func (r *Repository) FindOne(ctx context.Context, q store.Query) (*store.FileDescriptor, error) {
	fd, err := r.store.FindOne(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get file information: %w", err)
	}
	return fd, nil
}

func (r *Repository) FindMany(ctx context.Context, q store.Query) ([]*store.FileDescriptor, error) {
	fds, err := r.store.FindMany(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	return fds, nil
}

func (r *Repository) OpenContent(ctx context.Context, q store.Query) (io.ReadCloser, *store.FileDescriptor, error) {
	rc, fd, err := r.store.OpenContent(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download file: %w", err)
	}
	return rc, fd, nil
}

func (r *Repository) UpdateOne(ctx context.Context, q store.Query, p store.Patch) error {
	if err := r.store.UpdateOne(ctx, q, p); err != nil {
		return fmt.Errorf("failed to update file metadata: %w", err)
	}
	return nil
}

func (r *Repository) UpdateMany(ctx context.Context, q store.Query, p store.Patch) error {
	if err := r.store.UpdateMany(ctx, q, p); err != nil {
		return fmt.Errorf("failed to update files metadata: %w", err)
	}
	return nil
}

func (r *Repository) DeleteOne(ctx context.Context, q store.Query) error {
	if err := r.store.DeleteOne(ctx, q); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (r *Repository) DeleteMany(ctx context.Context, q store.Query) error {
	if err := r.store.DeleteMany(ctx, q); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
