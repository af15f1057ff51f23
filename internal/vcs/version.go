package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelvault/modelvault/internal/common"
)

// Resolver turns requested version numbers (explicit, Latest, or absent)
// into concrete ones by consulting the versions already stored.
type Resolver struct {
	repo *Repository
}

func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ValidateVersion rejects requests that are neither an explicit version
// (>= 1) nor the Latest sentinel. A nil request is always valid.
func ValidateVersion(requested *int64) error {
	if requested == nil {
		return nil
	}
	if *requested == 0 || *requested < Latest {
		return common.ErrInvalidVersion
	}
	return nil
}

// LastVersion returns the highest version number stored for the model,
// or 0 when no versions exist.
func (r *Resolver) LastVersion(ctx context.Context, id Identity) (int64, error) {
	fds, err := r.repo.FindMany(ctx, r.repo.ModelQuery(id))
	if err != nil {
		return 0, err
	}
	var last int64
	for _, fd := range fds {
		if fd.Metadata.VersionNumber > last {
			last = fd.Metadata.VersionNumber
		}
	}
	return last, nil
}

// ResolveUpload decides the version an upload will be stored under.
// Explicit versions are kept as-is; overwrite reports whether an object
// already occupies that number and must be deleted before the write.
// Nil and Latest append after the current maximum.
func (r *Resolver) ResolveUpload(ctx context.Context, id Identity, requested *int64) (version int64, overwrite bool, err error) {
	if err := ValidateVersion(requested); err != nil {
		return 0, false, err
	}
	if requested != nil && *requested != Latest {
		_, err := r.repo.FindOne(ctx, r.repo.VersionQuery(id, *requested))
		switch {
		case err == nil:
			return *requested, true, nil
		case errors.Is(err, common.ErrNotFound):
			return *requested, false, nil
		default:
			return 0, false, err
		}
	}
	last, err := r.LastVersion(ctx, id)
	if err != nil {
		return 0, false, err
	}
	return last + 1, false, nil
}

// ResolveRead maps a requested version to the one a read should target.
// Explicit versions pass through untouched; nil and Latest resolve to the
// highest stored version, yielding a not-found error when none exist.
func (r *Resolver) ResolveRead(ctx context.Context, id Identity, requested *int64) (int64, error) {
	if err := ValidateVersion(requested); err != nil {
		return 0, err
	}
	if requested != nil && *requested != Latest {
		return *requested, nil
	}
	last, err := r.LastVersion(ctx, id)
	if err != nil {
		return 0, err
	}
	if last == 0 {
		return 0, fmt.Errorf("no versions stored: %w", common.ErrNotFound)
	}
	return last, nil
}
