package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// KeyringConfig selects and configures the OS credential store backend.
type KeyringConfig struct {
	// ServiceName groups entries in the credential store (default "devinventory").
	ServiceName string
	// Account is the entry key holding the encoded master key (default "dmk").
	Account string
	// Backend forces a single backend (keychain, wincred, secret-service, kwallet,
	// keyctl, pass, file). Empty lets the library pick the best available one.
	Backend string
	// FileDir is where the encrypted file backend keeps its entries.
	FileDir string
	// FilePassword unlocks the file backend. Empty prompts on the terminal.
	FilePassword string
}

// KeyringStore implements cryptoDomain.CredentialStore on top of github.com/99designs/keyring.
//
// The backend is opened on first use so that commands given an inline key never
// touch the credential store (and never trigger an unlock prompt).
type KeyringStore struct {
	service string
	account string
	open    func() (keyring.Keyring, error)

	once    sync.Once
	ring    keyring.Keyring
	openErr error
}

// NewKeyringStore creates a store that opens the OS credential store lazily.
func NewKeyringStore(cfg KeyringConfig) *KeyringStore {
	return &KeyringStore{
		service: cfg.ServiceName,
		account: cfg.Account,
		open: func() (keyring.Keyring, error) {
			return keyring.Open(newKeyringLibraryConfig(cfg))
		},
	}
}

// NewKeyringStoreFromKeyring creates a store over an already opened keyring.
func NewKeyringStoreFromKeyring(ring keyring.Keyring, service, account string) *KeyringStore {
	return &KeyringStore{
		service: service,
		account: account,
		open: func() (keyring.Keyring, error) {
			return ring, nil
		},
	}
}

func newKeyringLibraryConfig(cfg KeyringConfig) keyring.Config {
	libCfg := keyring.Config{
		ServiceName:              cfg.ServiceName,
		KeychainTrustApplication: true,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.TerminalPrompt,
	}
	if cfg.FilePassword != "" {
		libCfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	}
	if cfg.Backend != "" {
		libCfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(cfg.Backend)}
	}
	return libCfg
}

func (s *KeyringStore) keyring() (keyring.Keyring, error) {
	s.once.Do(func() {
		s.ring, s.openErr = s.open()
	})
	if s.openErr != nil {
		return nil, fmt.Errorf("%w: failed to open keyring: %w", cryptoDomain.ErrCredentialStore, s.openErr)
	}
	return s.ring, nil
}

// Get reads the encoded master key.
func (s *KeyringStore) Get(_ context.Context) (string, bool, error) {
	ring, err := s.keyring()
	if err != nil {
		return "", false, err
	}

	item, err := ring.Get(s.account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read keyring entry: %w", cryptoDomain.ErrCredentialStore, err)
	}

	return string(item.Data), true, nil
}

// Set creates or replaces the encoded master key entry.
func (s *KeyringStore) Set(_ context.Context, value string) error {
	ring, err := s.keyring()
	if err != nil {
		return err
	}

	item := keyring.Item{
		Key:         s.account,
		Data:        []byte(value),
		Label:       fmt.Sprintf("%s master key", s.service),
		Description: "devinventory master key (base64)",
	}
	if err := ring.Set(item); err != nil {
		return fmt.Errorf("%w: failed to write keyring entry: %w", cryptoDomain.ErrCredentialStore, err)
	}
	return nil
}

// Location describes the entry for operator messages.
func (s *KeyringStore) Location() string {
	return fmt.Sprintf("service %q account %q", s.service, s.account)
}
