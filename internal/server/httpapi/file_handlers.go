package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/modelvault/modelvault/internal/common"
	"github.com/modelvault/modelvault/internal/store"
	"github.com/modelvault/modelvault/internal/vcs"
)

// FileInfoHeader carries the JSON descriptor alongside download bodies.
const FileInfoHeader = "X-File-Info"

func (s *Server) upload(c echo.Context) error {
	ctx := c.Request().Context()
	id := vcs.Identity{
		Owner:    ownerLogin(c),
		Project:  c.FormValue("Project"),
		Name:     c.FormValue("Name"),
		FileType: c.FormValue("Type"),
	}
	if id.Name == "" || id.Project == "" || id.FileType == "" {
		return errorJSON(c, http.StatusBadRequest, "Name, Project and Type are required")
	}

	version, err := parseOptionalVersion(c.FormValue("Version"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	fh, err := c.FormFile("File")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "file is empty")
	}
	src, err := fh.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "file is empty")
	}
	defer src.Close()

	if _, err := s.files.Upload(ctx, id, src, c.FormValue("Description"), version); err != nil {
		return s.fileError(c, "upload failed", err)
	}

	stored := vcs.Latest
	if version != nil {
		stored = *version
	}
	fd, err := s.files.GetVersionInfo(ctx, id, stored)
	if err != nil {
		return s.fileError(c, "upload stored but lookup failed", err)
	}
	return c.JSON(http.StatusCreated, fd)
}

func (s *Server) download(c echo.Context) error {
	ctx := c.Request().Context()
	id, version, err := identityFromQuery(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	rc, fd, err := s.files.Download(ctx, id, version)
	if err != nil {
		return s.fileError(c, "download failed", err)
	}
	defer rc.Close()

	info, err := json.Marshal(fd)
	if err != nil {
		return s.fileError(c, "download failed", err)
	}
	c.Response().Header().Set(FileInfoHeader, string(info))
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}

func (s *Server) allInfo(c echo.Context) error {
	fds, err := s.files.ListAll(c.Request().Context(), ownerLogin(c))
	if err != nil {
		return s.fileError(c, "listing failed", err)
	}
	if fds == nil {
		fds = []*store.FileDescriptor{}
	}
	return c.JSON(http.StatusOK, map[string]any{"files": fds})
}

type updateInfoRequest struct {
	Name        string `json:"name"`
	Project     string `json:"project"`
	FileType    string `json:"file_type"`
	Version     int64  `json:"version"`
	Description string `json:"description"`
}

func (s *Server) updateInfo(c echo.Context) error {
	var req updateInfoRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Project == "" || req.FileType == "" {
		return errorJSON(c, http.StatusBadRequest, "name, project and file_type are required")
	}

	id := vcs.Identity{
		Owner:    ownerLogin(c),
		Project:  req.Project,
		Name:     req.Name,
		FileType: req.FileType,
	}
	version := req.Version
	if version == 0 {
		version = vcs.Latest
	}

	patch := store.Patch{Description: &req.Description}
	if err := s.files.UpdateVersion(c.Request().Context(), id, version, patch); err != nil {
		return s.fileError(c, "update failed", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) deleteFile(c echo.Context) error {
	ctx := c.Request().Context()
	id, version, err := identityFromQuery(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	if version == nil {
		err = s.files.DeleteModel(ctx, id)
	} else {
		err = s.files.DeleteVersion(ctx, id, *version)
	}
	if err != nil {
		return s.fileError(c, "delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteProject(c echo.Context) error {
	project := c.QueryParam("Project")
	if project == "" {
		return errorJSON(c, http.StatusBadRequest, "Project is required")
	}

	if err := s.files.DeleteProject(c.Request().Context(), ownerLogin(c), project); err != nil {
		return s.fileError(c, "delete failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func identityFromQuery(c echo.Context) (vcs.Identity, *int64, error) {
	id := vcs.Identity{
		Owner:    ownerLogin(c),
		Project:  c.QueryParam("Project"),
		Name:     c.QueryParam("Name"),
		FileType: c.QueryParam("Type"),
	}
	if id.Name == "" || id.Project == "" || id.FileType == "" {
		return vcs.Identity{}, nil, errors.New("Name, Project and Type are required")
	}
	version, err := parseOptionalVersion(c.QueryParam("Version"))
	if err != nil {
		return vcs.Identity{}, nil, err
	}
	return id, version, nil
}

func parseOptionalVersion(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, errors.New("invalid version number")
	}
	if err := vcs.ValidateVersion(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// fileError translates service errors into the status codes the client
// maps back onto its sentinels.
func (s *Server) fileError(c echo.Context, msg string, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, common.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "file not found")
	case errors.Is(err, common.ErrInvalidVersion):
		return errorJSON(c, http.StatusBadRequest, common.ErrInvalidVersion.Error())
	case errors.Is(err, common.ErrEmptyPayload):
		return errorJSON(c, http.StatusBadRequest, "file is empty")
	default:
		s.logger.Error(ctx, msg, "error", err)
		return errorJSON(c, http.StatusInternalServerError, msg)
	}
}
