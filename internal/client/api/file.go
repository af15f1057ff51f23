package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/modelvault/modelvault/internal/store"
)

// FileInfoHeader carries the JSON descriptor alongside download bodies.
const FileInfoHeader = "X-File-Info"

// UploadRequest is one version being sent to the server. A nil Version
// lets the server append after its own current maximum; push always sets
// it so version numbers survive the transfer.
type UploadRequest struct {
	Name        string
	Project     string
	FileType    string
	Description string
	Version     *int64
	Body        io.Reader
}

// Upload sends one version as a multipart form and returns the stored
// descriptor.
func (c *Client) Upload(ctx context.Context, r UploadRequest) (*store.FileDescriptor, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"Name":        r.Name,
		"Project":     r.Project,
		"Type":        r.FileType,
		"Description": r.Description,
	}
	if r.Version != nil {
		fields["Version"] = strconv.FormatInt(*r.Version, 10)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("error writing form field: %w", err)
		}
	}

	part, err := w.CreateFormFile("File", r.Name)
	if err != nil {
		return nil, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, r.Body); err != nil {
		return nil, fmt.Errorf("error writing file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/file/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}

	var fd store.FileDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&fd); err != nil {
		return nil, fmt.Errorf("error decoding upload response: %w", err)
	}
	return &fd, nil
}

// Download fetches one version. The body is the raw content; the
// descriptor rides in the X-File-Info header. A nil version fetches the
// server's latest.
func (c *Client) Download(ctx context.Context, name, fileType, project string, version *int64) (io.ReadCloser, *store.FileDescriptor, error) {
	q := identityQuery(name, fileType, project, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/file/download?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("error building request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error downloading file: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, nil, statusError(resp)
	}

	var fd store.FileDescriptor
	if raw := resp.Header.Get(FileInfoHeader); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fd); err != nil {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("error decoding file info header: %w", err)
		}
	}
	return resp.Body, &fd, nil
}

type allInfoResponse struct {
	Files []*store.FileDescriptor `json:"files"`
}

// AllInfo lists every descriptor the authenticated owner has on the server.
func (c *Client) AllInfo(ctx context.Context) ([]*store.FileDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/file/all/info", nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body allInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding file list: %w", err)
	}
	return body.Files, nil
}

// UpdateInfoRequest identifies one version and the description to set.
type UpdateInfoRequest struct {
	Name        string `json:"name"`
	Project     string `json:"project"`
	FileType    string `json:"file_type"`
	Version     int64  `json:"version"`
	Description string `json:"description"`
}

func (c *Client) UpdateInfo(ctx context.Context, r UpdateInfoRequest) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("error encoding update request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/api/file/update-info", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error updating file info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// Delete removes one version, or every version of the model when version
// is nil.
func (c *Client) Delete(ctx context.Context, name, fileType, project string, version *int64) error {
	q := identityQuery(name, fileType, project, version)
	return c.deleteRequest(ctx, "/api/file/delete?"+q.Encode())
}

// DeleteProject removes every model in the named project.
func (c *Client) DeleteProject(ctx context.Context, project string) error {
	q := url.Values{"Project": {project}}
	return c.deleteRequest(ctx, "/api/file/delete-project?"+q.Encode())
}

func (c *Client) deleteRequest(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("error building request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error deleting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

func identityQuery(name, fileType, project string, version *int64) url.Values {
	q := url.Values{
		"Name":    {name},
		"Type":    {fileType},
		"Project": {project},
	}
	if version != nil {
		q.Set("Version", strconv.FormatInt(*version, 10))
	}
	return q
}
