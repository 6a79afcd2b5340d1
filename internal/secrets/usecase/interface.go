// Package usecase defines the interfaces and implementations for secret management use cases.
// Use cases orchestrate the repository, the transaction manager and the session cipher
// to store, read and rotate encrypted secrets.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// SecretRepository defines the interface for secret persistence operations.
//
// Every method reads the active transaction from the context, if any.
type SecretRepository interface {
	Upsert(ctx context.Context, record *secretsDomain.SecretRecord) (*secretsDomain.SecretRecord, error)
	GetByName(ctx context.Context, name string) (*secretsDomain.SecretRecord, error)
	List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error)
	Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error)
	Delete(ctx context.Context, name string) (bool, error)
	LockForRotation(ctx context.Context) error
	ListForRotation(ctx context.Context) ([]*secretsDomain.RotationEntry, error)
	UpdateCiphertext(ctx context.Context, id uuid.UUID, ciphertext cryptoDomain.EncryptedBlob, updatedAt time.Time) error
}

// SecretUseCase defines the interface for secret management business logic.
type SecretUseCase interface {
	// Add stores a new secret or replaces the value and metadata of an existing one.
	// The returned Secret carries no plaintext.
	Add(ctx context.Context, input *secretsDomain.AddSecretInput) (*secretsDomain.Secret, error)
	// Get retrieves and decrypts a secret by name.
	//
	// Security Note: The returned Secret contains plaintext data in the Plaintext field.
	// Callers MUST wipe it after use by calling secret.Zero().
	Get(ctx context.Context, name string) (*secretsDomain.Secret, error)
	List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error)
	Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error)
	// Delete removes a secret and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)
	// ReencryptAll moves every stored secret from oldCipher to newCipher in a single
	// transaction and returns how many were migrated. On any failure nothing changes.
	ReencryptAll(ctx context.Context, oldCipher, newCipher cryptoDomain.Cipher) (int, error)
}
