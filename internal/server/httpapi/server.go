// Package httpapi exposes the versioned object store over HTTP: JSON auth
// endpoints and multipart/query-string file endpoints gated by a bearer
// token.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/vcs"
)

// AuthService is the account surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, login, password string) (string, error)
	Login(ctx context.Context, login, password string) (string, error)
	VerifyToken(token string) (string, error)
}

type Server struct {
	echo   *echo.Echo
	files  vcs.Versioned
	auth   AuthService
	logger logging.Logger
	addr   string
}

func NewServer(addr string, files vcs.Versioned, auth AuthService, logger logging.Logger) *Server {
	s := &Server{
		echo:   echo.New(),
		files:  files,
		auth:   auth,
		logger: logger,
		addr:   addr,
	}

	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())

	s.echo.POST("/api/auth/register", s.register)
	s.echo.POST("/api/auth/login", s.login)

	api := s.echo.Group("/api/file", s.bearerAuth)
	api.POST("/upload", s.upload)
	api.GET("/download", s.download)
	api.GET("/all/info", s.allInfo)
	api.PUT("/update-info", s.updateInfo)
	api.DELETE("/delete", s.deleteFile)
	api.DELETE("/delete-project", s.deleteProject)

	return s
}

// Handler exposes the routing tree, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
