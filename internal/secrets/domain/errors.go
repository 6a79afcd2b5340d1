// Package domain defines core domain models and errors for secrets.
package domain

import (
	"github.com/allisson/devinventory/internal/errors"
)

// Secret-specific error definitions.
var (
	// ErrSecretNotFound indicates no secret exists under the requested name.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "secret not found")

	// ErrDuplicateName indicates a unique constraint violation on the secret name
	// that the upsert did not absorb.
	ErrDuplicateName = errors.Wrap(errors.ErrConflict, "secret name already exists")
)
