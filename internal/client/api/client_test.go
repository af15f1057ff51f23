package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/store"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second)
}

func TestLogin_StoresToken(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds["login"])
		json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
	}))

	token, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)
	assert.Equal(t, "tok123", c.Token())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid login/password"})
	}))

	_, err := c.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Empty(t, c.Token())
}

func TestRegister_LoginTaken(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "login already exists"})
	}))

	_, err := c.Register(context.Background(), "alice", "secret")
	assert.ErrorIs(t, err, common.ErrLoginAlreadyExists)
}

func TestUpload_SendsMultipartForm(t *testing.T) {
	var got struct {
		fields map[string]string
		file   string
		auth   string
	}
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/upload", r.URL.Path)
		got.auth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got.fields = map[string]string{}
		for k := range r.MultipartForm.Value {
			got.fields[k] = r.FormValue(k)
		}
		f, _, err := r.FormFile("File")
		require.NoError(t, err)
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		got.file = string(body)
		json.NewEncoder(w).Encode(store.FileDescriptor{ID: "id1", Name: "deck"})
	}))
	c.SetToken("tok123")

	v := int64(4)
	fd, err := c.Upload(context.Background(), UploadRequest{
		Name:        "deck",
		Project:     "bridge",
		FileType:    "stl",
		Description: "rework",
		Version:     &v,
		Body:        strings.NewReader("solid deck"),
	})
	require.NoError(t, err)

	assert.Equal(t, "id1", fd.ID)
	assert.Equal(t, "Bearer tok123", got.auth)
	assert.Equal(t, "deck", got.fields["Name"])
	assert.Equal(t, "bridge", got.fields["Project"])
	assert.Equal(t, "stl", got.fields["Type"])
	assert.Equal(t, "rework", got.fields["Description"])
	assert.Equal(t, "4", got.fields["Version"])
	assert.Equal(t, "solid deck", got.file)
}

func TestUpload_NotAuthenticated(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request must not be sent without a token")
	}))

	_, err := c.Upload(context.Background(), UploadRequest{Name: "deck", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestDownload_ParsesInfoHeader(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/download", r.URL.Path)
		assert.Equal(t, "deck", r.URL.Query().Get("Name"))
		assert.Equal(t, "stl", r.URL.Query().Get("Type"))
		assert.Equal(t, "bridge", r.URL.Query().Get("Project"))
		assert.Equal(t, "2", r.URL.Query().Get("Version"))
		info, _ := json.Marshal(store.FileDescriptor{
			Name:     "deck",
			Metadata: store.Metadata{VersionNumber: 2, VersionDescription: "fixed"},
		})
		w.Header().Set(FileInfoHeader, string(info))
		w.Write([]byte("solid deck"))
	}))
	c.SetToken("tok123")

	v := int64(2)
	rc, fd, err := c.Download(context.Background(), "deck", "stl", "bridge", &v)
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "solid deck", string(body))
	assert.Equal(t, int64(2), fd.Metadata.VersionNumber)
	assert.Equal(t, "fixed", fd.Metadata.VersionDescription)
}

func TestDownload_NotFound(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "file not found"})
	}))
	c.SetToken("tok123")

	_, _, err := c.Download(context.Background(), "deck", "stl", "bridge", nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAllInfo_DecodesEnvelope(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/all/info", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"files": []store.FileDescriptor{
			{Name: "deck", Metadata: store.Metadata{Project: "bridge", VersionNumber: 1}},
			{Name: "deck", Metadata: store.Metadata{Project: "bridge", VersionNumber: 2}},
		}})
	}))
	c.SetToken("tok123")

	fds, err := c.AllInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, fds, 2)
	assert.Equal(t, int64(2), fds[1].Metadata.VersionNumber)
}

func TestDelete_VersionOptional(t *testing.T) {
	var gotVersion []string
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/delete", r.URL.Path)
		gotVersion = append(gotVersion, r.URL.Query().Get("Version"))
		w.WriteHeader(http.StatusNoContent)
	}))
	c.SetToken("tok123")

	v := int64(3)
	require.NoError(t, c.Delete(context.Background(), "deck", "stl", "bridge", &v))
	require.NoError(t, c.Delete(context.Background(), "deck", "stl", "bridge", nil))
	assert.Equal(t, []string{"3", ""}, gotVersion)
}

func TestDeleteProject(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/delete-project", r.URL.Path)
		assert.Equal(t, "bridge", r.URL.Query().Get("Project"))
		w.WriteHeader(http.StatusOK)
	}))
	c.SetToken("tok123")

	require.NoError(t, c.DeleteProject(context.Background(), "bridge"))
}

func TestUpdateInfo(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/file/update-info", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		var req UpdateInfoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(2), req.Version)
		assert.Equal(t, "reviewed", req.Description)
		w.WriteHeader(http.StatusOK)
	}))
	c.SetToken("tok123")

	err := c.UpdateInfo(context.Background(), UpdateInfoRequest{
		Name: "deck", Project: "bridge", FileType: "stl", Version: 2, Description: "reviewed",
	})
	require.NoError(t, err)
}
