// Package sync moves versioned objects between the local store and the
// remote server. Both sides implement vcs.Versioned, so push and clone are
// the same transfer running in opposite directions.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/tree"
	"github.com/modelvault/modelvault/internal/vcs"
)

// ErrPartialSync reports that a multi-item operation completed with some
// items failed. The SyncReport carries which ones.
var ErrPartialSync = errors.New("some items failed to sync")

// TokenSource reports the current bearer token. Remote-touching operations
// are refused while it is empty.
type TokenSource interface {
	Token() string
}

// Side selects which store an operation targets.
type Side int

const (
	Local Side = iota
	Remote
)

func (s Side) String() string {
	if s == Remote {
		return "remote"
	}
	return "local"
}

// ItemOutcome is the result of transferring or deleting one version.
type ItemOutcome struct {
	Identity vcs.Identity
	Version  int64
	Err      error
}

// SyncReport aggregates per-item outcomes of one operation. Items that
// failed do not stop the ones after them.
type SyncReport struct {
	Items []ItemOutcome
}

func (r *SyncReport) add(id vcs.Identity, version int64, err error) {
	r.Items = append(r.Items, ItemOutcome{Identity: id, Version: version, Err: err})
}

// Failed returns the outcomes that carry an error.
func (r *SyncReport) Failed() []ItemOutcome {
	var out []ItemOutcome
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// Err folds the report into a single error: nil when every item succeeded,
// ErrPartialSync wrapping the item causes otherwise.
func (r *SyncReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	causes := make([]error, 0, len(failed)+1)
	causes = append(causes, ErrPartialSync)
	for _, it := range failed {
		causes = append(causes, fmt.Errorf("%s %s v%d: %w", it.Identity.Project, it.Identity.Name, it.Version, it.Err))
	}
	return errors.Join(causes...)
}

// Orchestrator coordinates transfers and deletes across the two sides and
// keeps the local tree snapshot current.
type Orchestrator struct {
	local  vcs.Versioned
	remote vcs.Versioned
	tokens TokenSource
	logger logging.Logger

	owner string
	Tree  *tree.State
}

func NewOrchestrator(local, remote vcs.Versioned, tokens TokenSource, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		local:  local,
		remote: remote,
		tokens: tokens,
		logger: logger,
		Tree:   &tree.State{},
	}
}

// SetOwner records the logged-in account name used for local queries.
func (o *Orchestrator) SetOwner(owner string) {
	o.owner = owner
}

func (o *Orchestrator) Owner() string { return o.owner }

func (o *Orchestrator) at(side Side) vcs.Versioned {
	if side == Remote {
		return o.remote
	}
	return o.local
}

func (o *Orchestrator) ensureAuthenticated() error {
	if o.owner == "" || o.tokens.Token() == "" {
		return common.ErrNotAuthenticated
	}
	return nil
}

// ensureOwner refuses local operations until SetOwner was called. An empty
// owner would make the store queries match every account in the database.
func (o *Orchestrator) ensureOwner() error {
	if o.owner == "" {
		return common.ErrNotAuthenticated
	}
	return nil
}

// Refresh reloads the local tree snapshot, restoring the selection to the
// same identity when it survived.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if err := o.ensureOwner(); err != nil {
		return err
	}
	fds, err := o.local.ListAll(ctx, o.owner)
	if err != nil {
		return fmt.Errorf("error refreshing tree: %w", err)
	}
	o.Tree.Reload(fds)
	return nil
}

// RemoteTree fetches and shapes the server-side hierarchy. It is built on
// demand rather than cached.
func (o *Orchestrator) RemoteTree(ctx context.Context) ([]*tree.Project, error) {
	if err := o.ensureAuthenticated(); err != nil {
		return nil, err
	}
	fds, err := o.remote.ListAll(ctx, o.owner)
	if err != nil {
		return nil, fmt.Errorf("error fetching remote tree: %w", err)
	}
	return tree.Build(fds), nil
}
