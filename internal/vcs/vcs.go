// Package vcs implements version control over a blob store: deterministic
// version-number resolution, the canonical identity/query mapping, and the
// file-lifecycle service combining the two.
package vcs

import (
	"context"
	"io"

	"github.com/modelvault/modelvault/internal/store"
)

// Latest is the sentinel version meaning "numerically highest version
// present at query time" on reads, and "append after the highest" on upload.
const Latest int64 = -1

// DefaultDescription is stored when an upload provides no description.
const DefaultDescription = "No description provided"

// Identity addresses one model: all stored versions sharing these four
// fields belong to the same logical file.
type Identity struct {
	Owner    string
	Project  string
	Name     string
	FileType string
}

// Versioned is the file-lifecycle surface the sync layer is written
// against. The local store and the remote server adapter both satisfy it,
// which is what lets push and clone treat the two sides symmetrically.
type Versioned interface {
	// Upload stores a new version of the identified model. A nil or
	// Latest version appends after the current maximum; an explicit
	// version >= 1 replaces any object already at that number.
	Upload(ctx context.Context, id Identity, r io.Reader, description string, version *int64) (string, error)

	// Download returns content and descriptor for one version; nil or
	// Latest resolves to the highest stored version.
	Download(ctx context.Context, id Identity, version *int64) (io.ReadCloser, *store.FileDescriptor, error)

	GetVersionInfo(ctx context.Context, id Identity, version int64) (*store.FileDescriptor, error)
	ListVersions(ctx context.Context, id Identity) ([]*store.FileDescriptor, error)
	ListProject(ctx context.Context, owner, project string) ([]*store.FileDescriptor, error)
	ListAll(ctx context.Context, owner string) ([]*store.FileDescriptor, error)

	UpdateVersion(ctx context.Context, id Identity, version int64, p store.Patch) error
	UpdateModel(ctx context.Context, id Identity, p store.Patch) error
	UpdateProject(ctx context.Context, owner, project string, p store.Patch) error
	UpdateOwner(ctx context.Context, owner string, p store.Patch) error

	DeleteVersion(ctx context.Context, id Identity, version int64) error
	DeleteModel(ctx context.Context, id Identity) error
	DeleteProject(ctx context.Context, owner, project string) error
	DeleteOwner(ctx context.Context, owner string) error
}
