package domain

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidCompleted   = errors.New("completed must be boolean")
	ErrInternal           = errors.New("internal server error")
)
