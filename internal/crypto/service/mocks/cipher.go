// Package mocks provides mock implementations of the crypto service interfaces for testing.
package mocks

import (
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// MockCipher is a mock implementation of Cipher for testing.
type MockCipher struct {
	mock.Mock
}

// NewMockCipher creates a MockCipher whose expectations are asserted when the test ends.
func NewMockCipher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCipher {
	m := &MockCipher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Encrypt mocks the Encrypt method of Cipher.
func (m *MockCipher) Encrypt(label string, plaintext []byte) (cryptoDomain.EncryptedBlob, error) {
	args := m.Called(label, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoDomain.EncryptedBlob), args.Error(1)
}

// Decrypt mocks the Decrypt method of Cipher.
func (m *MockCipher) Decrypt(label string, blob cryptoDomain.EncryptedBlob) ([]byte, error) {
	args := m.Called(label, blob)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
