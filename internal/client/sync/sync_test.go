package sync

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/store/sqlite"
	"github.com/modelvault/modelvault/internal/tree"
	"github.com/modelvault/modelvault/internal/vcs"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newSide(t *testing.T) *vcs.Service {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return vcs.NewService(s)
}

func setup(t *testing.T) (*Orchestrator, *vcs.Service, *vcs.Service) {
	t.Helper()
	local, remote := newSide(t), newSide(t)
	o := NewOrchestrator(local, remote, staticToken("tok"), logging.NewNop())
	o.SetOwner("alice")
	return o, local, remote
}

var deckID = vcs.Identity{Owner: "alice", Project: "bridge", Name: "deck", FileType: "stl"}

func seed(t *testing.T, svc *vcs.Service, id vcs.Identity, version int64, body string) {
	t.Helper()
	_, err := svc.Upload(context.Background(), id, strings.NewReader(body), "seeded", &version)
	require.NoError(t, err)
}

func versions(t *testing.T, svc *vcs.Service, id vcs.Identity) []int64 {
	t.Helper()
	fds, err := svc.ListVersions(context.Background(), id)
	require.NoError(t, err)
	out := make([]int64, len(fds))
	for i, fd := range fds {
		out[i] = fd.Metadata.VersionNumber
	}
	return out
}

func TestPushModel_PreservesVersionNumbers(t *testing.T) {
	o, local, remote := setup(t)
	ctx := context.Background()

	for _, v := range []int64{1, 3, 4} {
		seed(t, local, deckID, v, "body")
	}

	report, err := o.PushModel(ctx, deckID)
	require.NoError(t, err)
	assert.Len(t, report.Items, 3)
	assert.Empty(t, report.Failed())

	assert.Equal(t, []int64{1, 3, 4}, versions(t, remote, deckID))
}

func TestPushVersion_SingleItem(t *testing.T) {
	o, local, remote := setup(t)
	ctx := context.Background()

	seed(t, local, deckID, 1, "one")
	seed(t, local, deckID, 2, "two")

	report, err := o.PushVersion(ctx, deckID, 2)
	require.NoError(t, err)
	require.Len(t, report.Items, 1)

	assert.Equal(t, []int64{2}, versions(t, remote, deckID))

	rc, _, err := remote.Download(ctx, deckID, nil)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "two", string(body))
}

func TestCloneProject_RefreshesTree(t *testing.T) {
	o, _, remote := setup(t)
	ctx := context.Background()

	pylonID := deckID
	pylonID.Name = "pylon"
	seed(t, remote, deckID, 1, "a")
	seed(t, remote, deckID, 2, "b")
	seed(t, remote, pylonID, 1, "c")

	report, err := o.CloneProject(ctx, "bridge")
	require.NoError(t, err)
	assert.Len(t, report.Items, 3)

	p := o.Tree.FindProject("bridge")
	require.NotNil(t, p)
	require.Len(t, p.Models, 2)
	deck := p.FindModel("deck", "stl")
	require.NotNil(t, deck)
	assert.Len(t, deck.Versions, 2)
}

func TestPush_NotAuthenticated(t *testing.T) {
	local, remote := newSide(t), newSide(t)
	o := NewOrchestrator(local, remote, staticToken(""), logging.NewNop())
	o.SetOwner("alice")

	seed(t, local, deckID, 1, "a")

	_, err := o.PushModel(context.Background(), deckID)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

// failingUpload wraps a side and fails uploads of one version number.
type failingUpload struct {
	vcs.Versioned
	failOn int64
}

var errUploadRefused = errors.New("upload refused")

func (f *failingUpload) Upload(ctx context.Context, id vcs.Identity, r io.Reader, description string, version *int64) (string, error) {
	if version != nil && *version == f.failOn {
		return "", errUploadRefused
	}
	return f.Versioned.Upload(ctx, id, r, description, version)
}

func TestPushModel_PartialFailure(t *testing.T) {
	local, remote := newSide(t), newSide(t)
	o := NewOrchestrator(local, &failingUpload{Versioned: remote, failOn: 2}, staticToken("tok"), logging.NewNop())
	o.SetOwner("alice")
	ctx := context.Background()

	for _, v := range []int64{1, 2, 3} {
		seed(t, local, deckID, v, "body")
	}

	report, err := o.PushModel(ctx, deckID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialSync)
	assert.ErrorIs(t, err, errUploadRefused)

	require.Len(t, report.Items, 3)
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(2), failed[0].Version)

	assert.Equal(t, []int64{1, 3}, versions(t, remote, deckID))
}

func TestDeleteVersion_LocalRefreshesSelection(t *testing.T) {
	o, local, _ := setup(t)
	ctx := context.Background()

	seed(t, local, deckID, 1, "a")
	seed(t, local, deckID, 2, "b")
	require.NoError(t, o.Refresh(ctx))
	o.Tree.Selection = tree.Selection{Project: "bridge", Name: "deck", FileType: "stl", Version: 2}

	require.NoError(t, o.DeleteVersion(ctx, Local, deckID, 2))

	assert.Equal(t, tree.Selection{Project: "bridge", Name: "deck", FileType: "stl"}, o.Tree.Selection)
	assert.Equal(t, []int64{1}, versions(t, local, deckID))
}

func TestDeleteProject_Remote(t *testing.T) {
	o, _, remote := setup(t)
	ctx := context.Background()

	seed(t, remote, deckID, 1, "a")

	require.NoError(t, o.DeleteProject(ctx, Remote, "bridge"))

	fds, err := remote.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, fds)
}

func TestRemoteTree(t *testing.T) {
	o, _, remote := setup(t)
	ctx := context.Background()

	seed(t, remote, deckID, 1, "a")
	seed(t, remote, deckID, 5, "b")

	projects, err := o.RemoteTree(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	deck := projects[0].FindModel("deck", "stl")
	require.NotNil(t, deck)
	assert.Equal(t, int64(5), deck.Latest().Number)
}

func TestTransfer_StopsOnCancel(t *testing.T) {
	o, local, remote := setup(t)

	seed(t, local, deckID, 1, "a")
	seed(t, local, deckID, 2, "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.PushModel(ctx, deckID)
	require.Error(t, err)
	if report != nil {
		for _, it := range report.Items {
			assert.Error(t, it.Err)
		}
	}

	fds, lerr := remote.ListAll(context.Background(), "alice")
	require.NoError(t, lerr)
	assert.Empty(t, fds)
}

func TestOperations_RequireOwner(t *testing.T) {
	local, remote := newSide(t), newSide(t)
	o := NewOrchestrator(local, remote, staticToken("tok"), logging.NewNop())
	ctx := context.Background()

	bobID := vcs.Identity{Owner: "bob", Project: "bridge", Name: "deck", FileType: "stl"}
	seed(t, local, bobID, 1, "someone else's data")

	assert.ErrorIs(t, o.Refresh(ctx), common.ErrNotAuthenticated)
	assert.ErrorIs(t, o.DeleteProject(ctx, Local, "bridge"), common.ErrNotAuthenticated)
	assert.ErrorIs(t, o.DeleteModel(ctx, Local, bobID), common.ErrNotAuthenticated)

	_, err := o.PushProject(ctx, "bridge")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)

	fds, err := local.ListAll(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, fds, 1)

	o.SetOwner("alice")
	require.NoError(t, o.Refresh(ctx))
	assert.Empty(t, o.Tree.Projects)
}
