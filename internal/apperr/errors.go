// Package apperr defines sentinel errors shared by the note services and their surfaces.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidTitle  = errors.New("invalid title")
)
