// Package store defines the blob-store contract the versioning layer is
// built on: a named byte stream plus a metadata document, addressable by a
// conjunction of equality predicates over the identity fields.
package store

import (
	"context"
	"io"
	"time"
)

// Metadata is the document attached to every stored file. The field set is
// fixed; Extra is an open extension map for forward compatibility and is
// merged key-by-key on update.
type Metadata struct {
	Owner              string            `json:"owner"`
	Project            string            `json:"project"`
	FileType           string            `json:"file_type"`
	VersionNumber      int64             `json:"version_number"`
	VersionDescription string            `json:"version_description"`
	Extra              map[string]string `json:"extra,omitempty"`
}

// Query is a conjunction of equality predicates over the identity fields.
// Empty string fields match anything; Version 0 matches any version
// (stored versions are always >= 1).
type Query struct {
	Name     string
	Owner    string
	Project  string
	FileType string
	Version  int64
}

// Patch is a partial metadata update. Only non-zero fields are applied:
// Name renames the file, Description overwrites version_description, and
// Extra entries overwrite (or add) individual extension keys. Anything not
// present in the patch is left untouched on the stored object.
type Patch struct {
	Name        string
	Description *string
	Extra       map[string]string
}

// IsZero reports whether applying p would change nothing.
func (p Patch) IsZero() bool {
	return p.Name == "" && p.Description == nil && len(p.Extra) == 0
}

// FileDescriptor describes one stored file: the store-assigned envelope
// plus its metadata document. ID, Length and UploadedAt are owned by the
// store and never interpreted by callers.
type FileDescriptor struct {
	ID         string    `json:"id"`
	Name       string    `json:"filename"`
	Length     int64     `json:"length"`
	UploadedAt time.Time `json:"uploaded_at"`
	Metadata   Metadata  `json:"metadata"`
}

// Store is a complete, independent population of stored files. The local
// store and the remote store's backend both implement it.
//
// Error contract: Upload fails with common.ErrEmptyPayload on a nil or
// zero-length stream. FindOne and OpenContent fail with common.ErrNotFound
// when nothing matches. DeleteOne on a non-unique query removes the first
// match; deleting a query that matches nothing is a no-op.
type Store interface {
	// Upload stores the stream under name with the given metadata and
	// returns the store-assigned id.
	Upload(ctx context.Context, name string, r io.Reader, md Metadata) (string, error)

	// FindOne returns the first descriptor matching q.
	FindOne(ctx context.Context, q Query) (*FileDescriptor, error)

	// FindMany returns all descriptors matching q; the list may be empty.
	FindMany(ctx context.Context, q Query) ([]*FileDescriptor, error)

	// OpenContent returns the content stream together with its matching
	// descriptor as one logical read, so callers never observe content
	// without its metadata.
	OpenContent(ctx context.Context, q Query) (io.ReadCloser, *FileDescriptor, error)

	// UpdateOne applies the patch to the first match with merge semantics.
	UpdateOne(ctx context.Context, q Query, p Patch) error

	// UpdateMany applies the patch independently to every match.
	UpdateMany(ctx context.Context, q Query, p Patch) error

	// DeleteOne removes at most one match.
	DeleteOne(ctx context.Context, q Query) error

	// DeleteMany removes every match.
	DeleteMany(ctx context.Context, q Query) error
}
