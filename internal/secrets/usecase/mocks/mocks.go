// Package mocks provides mock implementations of the secret use case interfaces for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// MockSecretRepository is a mock implementation of SecretRepository for testing.
type MockSecretRepository struct {
	mock.Mock
}

// NewMockSecretRepository creates a MockSecretRepository whose expectations are
// asserted when the test ends.
func NewMockSecretRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSecretRepository {
	m := &MockSecretRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Upsert mocks the Upsert method of SecretRepository.
func (m *MockSecretRepository) Upsert(
	ctx context.Context,
	record *secretsDomain.SecretRecord,
) (*secretsDomain.SecretRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.SecretRecord), args.Error(1)
}

// GetByName mocks the GetByName method of SecretRepository.
func (m *MockSecretRepository) GetByName(ctx context.Context, name string) (*secretsDomain.SecretRecord, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.SecretRecord), args.Error(1)
}

// List mocks the List method of SecretRepository.
func (m *MockSecretRepository) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.SecretMetadata), args.Error(1)
}

// Search mocks the Search method of SecretRepository.
func (m *MockSecretRepository) Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.SecretMetadata), args.Error(1)
}

// Delete mocks the Delete method of SecretRepository.
func (m *MockSecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// LockForRotation mocks the LockForRotation method of SecretRepository.
func (m *MockSecretRepository) LockForRotation(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ListForRotation mocks the ListForRotation method of SecretRepository.
func (m *MockSecretRepository) ListForRotation(ctx context.Context) ([]*secretsDomain.RotationEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.RotationEntry), args.Error(1)
}

// UpdateCiphertext mocks the UpdateCiphertext method of SecretRepository.
func (m *MockSecretRepository) UpdateCiphertext(
	ctx context.Context,
	id uuid.UUID,
	ciphertext cryptoDomain.EncryptedBlob,
	updatedAt time.Time,
) error {
	args := m.Called(ctx, id, ciphertext, updatedAt)
	return args.Error(0)
}

// MockSecretUseCase is a mock implementation of SecretUseCase for testing.
type MockSecretUseCase struct {
	mock.Mock
}

// NewMockSecretUseCase creates a MockSecretUseCase whose expectations are asserted
// when the test ends.
func NewMockSecretUseCase(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSecretUseCase {
	m := &MockSecretUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Add mocks the Add method of SecretUseCase.
func (m *MockSecretUseCase) Add(
	ctx context.Context,
	input *secretsDomain.AddSecretInput,
) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// Get mocks the Get method of SecretUseCase.
func (m *MockSecretUseCase) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretsDomain.Secret), args.Error(1)
}

// List mocks the List method of SecretUseCase.
func (m *MockSecretUseCase) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.SecretMetadata), args.Error(1)
}

// Search mocks the Search method of SecretUseCase.
func (m *MockSecretUseCase) Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*secretsDomain.SecretMetadata), args.Error(1)
}

// Delete mocks the Delete method of SecretUseCase.
func (m *MockSecretUseCase) Delete(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// ReencryptAll mocks the ReencryptAll method of SecretUseCase.
func (m *MockSecretUseCase) ReencryptAll(
	ctx context.Context,
	oldCipher, newCipher cryptoDomain.Cipher,
) (int, error) {
	args := m.Called(ctx, oldCipher, newCipher)
	return args.Int(0), args.Error(1)
}
