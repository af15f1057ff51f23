package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/modelvault/modelvault/internal/common"
)

// loginKey is the echo context key carrying the authenticated login.
const loginKey = "login"

// bearerAuth verifies the Authorization header and stores the token's
// login in the request context. Anything short of a valid bearer token
// gets a 401.
func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return errorJSON(c, http.StatusUnauthorized, "authorization header is missing")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return errorJSON(c, http.StatusUnauthorized, common.ErrInvalidAuthHeaderFormat.Error())
		}

		login, err := s.auth.VerifyToken(parts[1])
		if err != nil {
			return errorJSON(c, http.StatusUnauthorized, "invalid token")
		}

		c.Set(loginKey, login)
		return next(c)
	}
}

// ownerLogin returns the login the bearer middleware stored.
func ownerLogin(c echo.Context) string {
	login, _ := c.Get(loginKey).(string)
	return login
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
