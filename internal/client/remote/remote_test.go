package remote

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/client/api"
	"github.com/modelvault/modelvault/internal/client/sync"
	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/server/httpapi"
	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/store/sqlite"
	"github.com/modelvault/modelvault/internal/vcs"
)

// fakeAuth is an in-memory AuthService for the test server.
type fakeAuth struct {
	passwords map[string]string
	tokens    map[string]string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{passwords: map[string]string{}, tokens: map[string]string{}}
}

func (f *fakeAuth) Register(ctx context.Context, login, password string) (string, error) {
	if _, ok := f.passwords[login]; ok {
		return "", common.ErrLoginAlreadyExists
	}
	f.passwords[login] = password
	token := fmt.Sprintf("tok-%s-%d", login, len(f.tokens))
	f.tokens[token] = login
	return token, nil
}

func (f *fakeAuth) Login(ctx context.Context, login, password string) (string, error) {
	if f.passwords[login] != password || password == "" {
		return "", common.ErrInvalidLoginPassword
	}
	for token, l := range f.tokens {
		if l == login {
			return token, nil
		}
	}
	return "", common.ErrInvalidLoginPassword
}

func (f *fakeAuth) VerifyToken(token string) (string, error) {
	login, ok := f.tokens[token]
	if !ok {
		return "", common.ErrInvalidToken
	}
	return login, nil
}

// setupRemote starts a real server over an in-memory store and returns the
// HTTP adapter as a logged-in "alice".
func setupRemote(t *testing.T) *Service {
	t.Helper()
	st, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	srv := httpapi.NewServer(":0", vcs.NewService(st), newFakeAuth(), logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client := api.New(ts.URL, 5*time.Second)
	_, err = client.Register(context.Background(), "alice", "secret")
	require.NoError(t, err)
	return NewService(client)
}

func newLocal(t *testing.T) *vcs.Service {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return vcs.NewService(s)
}

func ptr(v int64) *int64 { return &v }

var deckID = vcs.Identity{Owner: "alice", Project: "bridge", Name: "deck", FileType: "stl"}

func seed(t *testing.T, svc vcs.Versioned, id vcs.Identity, version int64, body, desc string) {
	t.Helper()
	_, err := svc.Upload(context.Background(), id, strings.NewReader(body), desc, &version)
	require.NoError(t, err)
}

func versionNumbers(t *testing.T, svc vcs.Versioned, id vcs.Identity) []int64 {
	t.Helper()
	fds, err := svc.ListVersions(context.Background(), id)
	require.NoError(t, err)
	out := make([]int64, len(fds))
	for i, fd := range fds {
		out[i] = fd.Metadata.VersionNumber
	}
	return out
}

func TestPushCloneRoundTrip(t *testing.T) {
	remote := setupRemote(t)
	local := newLocal(t)
	o := sync.NewOrchestrator(local, remote, remote.client, logging.NewNop())
	o.SetOwner("alice")
	ctx := context.Background()

	for _, v := range []int64{1, 3, 4} {
		seed(t, local, deckID, v, fmt.Sprintf("mesh-v%d", v), fmt.Sprintf("rev %d", v))
	}

	report, err := o.PushModel(ctx, deckID)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())
	assert.Equal(t, []int64{1, 3, 4}, versionNumbers(t, remote, deckID))

	require.NoError(t, local.DeleteModel(ctx, deckID))

	report, err = o.CloneModel(ctx, deckID)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())
	assert.Equal(t, []int64{1, 3, 4}, versionNumbers(t, local, deckID))

	rc, fd, err := local.Download(ctx, deckID, nil)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "mesh-v4", string(body))
	assert.Equal(t, int64(4), fd.Metadata.VersionNumber)
	assert.Equal(t, "rev 4", fd.Metadata.VersionDescription)
}

func TestGetVersionInfo_Latest(t *testing.T) {
	remote := setupRemote(t)
	ctx := context.Background()

	_, err := remote.GetVersionInfo(ctx, deckID, vcs.Latest)
	assert.ErrorIs(t, err, common.ErrNotFound)

	seed(t, remote, deckID, 1, "a", "")
	seed(t, remote, deckID, 5, "b", "")

	fd, err := remote.GetVersionInfo(ctx, deckID, vcs.Latest)
	require.NoError(t, err)
	assert.Equal(t, int64(5), fd.Metadata.VersionNumber)

	fd, err = remote.GetVersionInfo(ctx, deckID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fd.Metadata.VersionNumber)
}

func TestListing_FiltersServerInventory(t *testing.T) {
	remote := setupRemote(t)
	ctx := context.Background()

	hull := vcs.Identity{Owner: "alice", Project: "bridge", Name: "hull", FileType: "obj"}
	pier := vcs.Identity{Owner: "alice", Project: "tunnel", Name: "pier", FileType: "stl"}
	seed(t, remote, deckID, 1, "a", "")
	seed(t, remote, deckID, 2, "b", "")
	seed(t, remote, hull, 1, "c", "")
	seed(t, remote, pier, 1, "d", "")

	assert.Equal(t, []int64{1, 2}, versionNumbers(t, remote, deckID))

	fds, err := remote.ListProject(ctx, "alice", "bridge")
	require.NoError(t, err)
	assert.Len(t, fds, 3)

	fds, err = remote.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, fds, 4)
}

func TestUpdateVersion_DescriptionOnly(t *testing.T) {
	remote := setupRemote(t)
	ctx := context.Background()

	seed(t, remote, deckID, 1, "a", "old")
	seed(t, remote, deckID, 2, "b", "old")

	desc := "reviewed"
	require.NoError(t, remote.UpdateVersion(ctx, deckID, vcs.Latest, store.Patch{Description: &desc}))

	fd, err := remote.GetVersionInfo(ctx, deckID, 2)
	require.NoError(t, err)
	assert.Equal(t, "reviewed", fd.Metadata.VersionDescription)
	fd, err = remote.GetVersionInfo(ctx, deckID, 1)
	require.NoError(t, err)
	assert.Equal(t, "old", fd.Metadata.VersionDescription)

	err = remote.UpdateVersion(ctx, deckID, 1, store.Patch{Name: "renamed"})
	assert.Error(t, err)

	require.NoError(t, remote.UpdateModel(ctx, deckID, store.Patch{Description: &desc}))
	fd, err = remote.GetVersionInfo(ctx, deckID, 1)
	require.NoError(t, err)
	assert.Equal(t, "reviewed", fd.Metadata.VersionDescription)
}

func TestDelete_VersionModelOwner(t *testing.T) {
	remote := setupRemote(t)
	ctx := context.Background()

	hull := vcs.Identity{Owner: "alice", Project: "bridge", Name: "hull", FileType: "obj"}
	pier := vcs.Identity{Owner: "alice", Project: "tunnel", Name: "pier", FileType: "stl"}
	seed(t, remote, deckID, 1, "a", "")
	seed(t, remote, deckID, 3, "b", "")
	seed(t, remote, hull, 1, "c", "")
	seed(t, remote, pier, 1, "d", "")

	require.NoError(t, remote.DeleteVersion(ctx, deckID, vcs.Latest))
	assert.Equal(t, []int64{1}, versionNumbers(t, remote, deckID))

	require.NoError(t, remote.DeleteModel(ctx, deckID))
	assert.Empty(t, versionNumbers(t, remote, deckID))

	require.NoError(t, remote.DeleteOwner(ctx, "alice"))
	fds, err := remote.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, fds)
}
