package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMalformedRow       = errors.New("malformed import row")
)
