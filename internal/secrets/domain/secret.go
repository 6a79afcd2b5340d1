// Package domain defines the core domain models and types for secret management.
// Each secret is a named value encrypted under the master key, with its name bound
// to the ciphertext as associated data.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	customValidation "github.com/allisson/devinventory/internal/validation"
)

// Field limits for secret metadata.
const (
	MaxNameLength = 255
	MaxKindLength = 64
	MaxNoteLength = 1024
)

// SecretRecord is the persisted form of a secret.
type SecretRecord struct {
	// ID is the UUIDv7 identifier assigned at first insert.
	ID uuid.UUID
	// Name is the unique, immutable key of the secret and the AEAD label.
	Name string
	// Kind is an optional free-form category (e.g. "token", "password").
	Kind *string
	// Note is an optional free-form description.
	Note *string
	// Ciphertext is nonce || ciphertext || tag under the current master key.
	Ciphertext cryptoDomain.EncryptedBlob
	// CreatedAt is the UTC timestamp of the first insert.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last value change or rotation.
	UpdatedAt time.Time
}

// Metadata strips the ciphertext from the record.
func (r *SecretRecord) Metadata() SecretMetadata {
	return SecretMetadata{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      r.Kind,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Secret is a record together with its decrypted value.
//
// Plaintext only exists in memory; consumers call Zero as soon as they are done
// with the value.
type Secret struct {
	SecretRecord
	Plaintext []byte `json:"-"`
}

// Zero wipes the plaintext.
func (s *Secret) Zero() {
	if s == nil {
		return
	}
	cryptoDomain.Zero(s.Plaintext)
	s.Plaintext = nil
}

// SecretMetadata describes a secret without its value, for listings.
type SecretMetadata struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Kind      *string   `json:"kind,omitempty"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RotationEntry is the minimal projection of a record needed to re-encrypt it.
type RotationEntry struct {
	ID         uuid.UUID
	Name       string
	Ciphertext cryptoDomain.EncryptedBlob
}

// AddSecretInput holds the fields accepted when adding or replacing a secret.
type AddSecretInput struct {
	Name  string
	Kind  *string
	Note  *string
	Value []byte
}

// Validate checks the input against the metadata limits.
func (i *AddSecretInput) Validate() error {
	err := validation.ValidateStruct(i,
		validation.Field(&i.Name,
			validation.Required,
			customValidation.NotBlank,
			customValidation.NoWhitespace,
			customValidation.NoControlCharacters,
			validation.RuneLength(1, MaxNameLength),
		),
		validation.Field(&i.Kind,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, MaxKindLength),
		),
		validation.Field(&i.Note,
			validation.RuneLength(0, MaxNoteLength),
		),
	)
	return customValidation.WrapValidationError(err)
}

// OptionalString converts an empty or blank string to nil.
func OptionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
