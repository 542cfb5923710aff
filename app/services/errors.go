package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hsmarket/storefront/app/repositories"
)

var (
	// ErrNotFound aliases the repository sentinel so callers need one import.
	ErrNotFound = repositories.ErrNotFound
	// ErrOrderNotFound matches both itself and ErrNotFound.
	ErrOrderNotFound = fmt.Errorf("order %w", repositories.ErrNotFound)

	ErrInvalidStatus         = errors.New("invalid order status")
	ErrSeedNeedsConfirmation = errors.New("categories already exist; confirm to seed defaults again")
	ErrUnsupportedImage      = errors.New("unsupported image type")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAdminDisabled         = errors.New("admin login is not configured")
	ErrTokenRevoked          = errors.New("token revoked")
	ErrWeakSecret            = errors.New("JWT_SECRET is unset or left at its default")
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

func invalid(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
