package common

import "errors"

var (

	// store and repository errors
	ErrNotFound     = errors.New("not found")
	ErrEmptyPayload = errors.New("payload is empty")

	// versioning errors
	ErrInvalidVersion = errors.New("version cannot be less than -1 or equal to 0")

	// auth errors
	ErrUnauthorized            = errors.New("unauthorized")
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrInvalidToken            = errors.New("invalid token")
	ErrLoginAlreadyExists      = errors.New("login already exists")
	ErrInvalidLoginPassword    = errors.New("invalid login/password")
	ErrInvalidAuthHeaderFormat = errors.New("invalid auth header format")
)
