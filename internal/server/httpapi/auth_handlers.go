package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/modelvault/modelvault/internal/common"
)

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.Login == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "login and password are required")
	}

	token, err := s.auth.Register(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrLoginAlreadyExists) {
			return errorJSON(c, http.StatusConflict, "login already exists")
		}
		s.logger.Error(c.Request().Context(), "registration failed", "login", req.Login, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "registration failed")
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	token, err := s.auth.Login(c.Request().Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidLoginPassword) {
			return errorJSON(c, http.StatusUnauthorized, "invalid login/password")
		}
		s.logger.Error(c.Request().Context(), "login failed", "login", req.Login, "error", err)
		return errorJSON(c, http.StatusInternalServerError, "login failed")
	}

	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}
