package auth

import "errors"

var (
	ErrInvalidCredentials     = errors.New("invalid identification or password")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrManagerNotFound        = errors.New("manager not found")
	ErrIdentificationExists   = errors.New("a manager with this identification already exists")
	ErrInsufficientPermission = errors.New("manager role required")
	ErrRegistrationClosed     = errors.New("a manager already exists, registration requires a manager token")
)
