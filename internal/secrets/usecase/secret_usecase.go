// Package usecase implements business logic orchestration for secret management.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	"github.com/allisson/devinventory/internal/database"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// secretUseCase implements the SecretUseCase interface for managing secrets.
type secretUseCase struct {
	txManager  database.TxManager
	secretRepo SecretRepository
	cipher     cryptoDomain.Cipher
	logger     *slog.Logger

	// writeMu serializes writers so nothing in this process interleaves with a rotation.
	writeMu sync.Mutex
}

// Add validates the input, encrypts the value under the secret name and upserts it.
func (s *secretUseCase) Add(
	ctx context.Context,
	input *secretsDomain.AddSecretInput,
) (*secretsDomain.Secret, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ciphertext, err := s.cipher.Encrypt(input.Name, input.Value)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &secretsDomain.SecretRecord{
		ID:         uuid.Must(uuid.NewV7()),
		Name:       input.Name,
		Kind:       input.Kind,
		Note:       input.Note,
		Ciphertext: ciphertext,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var stored *secretsDomain.SecretRecord
	err = s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		stored, err = s.secretRepo.Upsert(txCtx, record)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("secret stored", slog.String("name", stored.Name))
	return &secretsDomain.Secret{SecretRecord: *stored}, nil
}

// Get retrieves a secret by name and decrypts its value.
func (s *secretUseCase) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	record, err := s.secretRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	plaintext, err := s.cipher.Decrypt(record.Name, record.Ciphertext)
	if err != nil {
		return nil, err
	}

	return &secretsDomain.Secret{SecretRecord: *record, Plaintext: plaintext}, nil
}

// List returns the metadata of every secret ordered by name.
func (s *secretUseCase) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	return s.secretRepo.List(ctx)
}

// Search returns the metadata of secrets whose name, kind or note contains query.
func (s *secretUseCase) Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error) {
	return s.secretRepo.Search(ctx, query)
}

// Delete removes a secret by name.
func (s *secretUseCase) Delete(ctx context.Context, name string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.secretRepo.Delete(ctx, name)
}

// ReencryptAll re-encrypts every secret from oldCipher to newCipher.
//
// The whole pass runs in one transaction holding the store's write lock. Any
// decrypt, encrypt or write failure rolls everything back, leaving every record
// under the old key.
func (s *secretUseCase) ReencryptAll(
	ctx context.Context,
	oldCipher, newCipher cryptoDomain.Cipher,
) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var migrated int
	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.secretRepo.LockForRotation(txCtx); err != nil {
			return err
		}

		entries, err := s.secretRepo.ListForRotation(txCtx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, entry := range entries {
			ciphertext, err := reencrypt(entry, oldCipher, newCipher)
			if err != nil {
				return fmt.Errorf("failed to re-encrypt secret %q: %w", entry.Name, err)
			}

			if err := s.secretRepo.UpdateCiphertext(txCtx, entry.ID, ciphertext, now); err != nil {
				return err
			}
		}

		migrated = len(entries)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("secrets re-encrypted", slog.Int("count", migrated))
	return migrated, nil
}

func reencrypt(
	entry *secretsDomain.RotationEntry,
	oldCipher, newCipher cryptoDomain.Cipher,
) (cryptoDomain.EncryptedBlob, error) {
	plaintext, err := oldCipher.Decrypt(entry.Name, entry.Ciphertext)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(plaintext)

	return newCipher.Encrypt(entry.Name, plaintext)
}

// NewSecretUseCase creates a new secret use case instance with the provided dependencies.
func NewSecretUseCase(
	txManager database.TxManager,
	secretRepo SecretRepository,
	cipher cryptoDomain.Cipher,
	logger *slog.Logger,
) SecretUseCase {
	return &secretUseCase{
		txManager:  txManager,
		secretRepo: secretRepo,
		cipher:     cipher,
		logger:     logger,
	}
}
