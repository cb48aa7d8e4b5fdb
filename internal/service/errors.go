package service

import (
	"errors"
	"fmt"
	"strings"

	"inventory-api/internal/auth"
	"inventory-api/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrProductIDMismatch  = errors.New("product ID mismatch")
	ErrConflict           = errors.New("product was modified by another request")
	ErrInvalidDateFilter  = errors.New("invalid date filter")

	// ErrProductNotFound is returned by every product operation addressing a missing id
	ErrProductNotFound = repository.ErrProductNotFound

	// ErrUnknownActor means the token's subject no longer names a stored user
	ErrUnknownActor = fmt.Errorf("%w: acting user does not exist", auth.ErrUnauthenticated)
)

// ValidationError lists every rule a request violated
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}
