package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// MasterKeySource describes where a master key may come from in this invocation.
type MasterKeySource struct {
	// Inline is a key passed on the command line or through the environment.
	Inline string
	// AllowKeyring permits reading from and writing to the OS credential store.
	AllowKeyring bool
}

// MasterKeyProvider resolves the master key for a session.
//
// Resolution order is inline value, then the credential store, then (when the
// caller allows it) a freshly generated key. A generated key is shown to the
// operator exactly once before it is persisted or used.
type MasterKeyProvider struct {
	source MasterKeySource
	store  cryptoDomain.CredentialStore
	codec  cryptoDomain.KeyCodec
	out    io.Writer
	logger *slog.Logger
}

// NewMasterKeyProvider creates a master key provider.
//
// out receives the one-time key display and keyring status messages.
func NewMasterKeyProvider(
	source MasterKeySource,
	store cryptoDomain.CredentialStore,
	codec cryptoDomain.KeyCodec,
	out io.Writer,
	logger *slog.Logger,
) *MasterKeyProvider {
	return &MasterKeyProvider{
		source: source,
		store:  store,
		codec:  codec,
		out:    out,
		logger: logger,
	}
}

// KeyringEnabled reports whether the credential store takes part in resolution.
func (p *MasterKeyProvider) KeyringEnabled() bool {
	return p.source.AllowKeyring && p.store != nil
}

// Obtain returns the master key for this session.
//
// An inline key that does not decode is an error, never skipped. A credential store
// that cannot be read is logged and treated as empty, but an entry that exists and
// does not decode is fatal so a corrupt entry is never replaced by a new key.
// Returns ErrMasterKeyUnavailable when nothing was found and generateIfMissing is false.
func (p *MasterKeyProvider) Obtain(ctx context.Context, generateIfMissing bool) (*cryptoDomain.MasterKey, error) {
	if strings.TrimSpace(p.source.Inline) != "" {
		key, err := p.codec.Decode(ctx, p.source.Inline)
		if err != nil {
			return nil, fmt.Errorf("inline master key: %w", err)
		}
		p.logger.Debug("master key loaded", slog.String("source", "inline"))
		return key, nil
	}

	if p.KeyringEnabled() {
		encoded, found, err := p.store.Get(ctx)
		switch {
		case err != nil:
			p.logger.Warn(
				"failed to read master key from keyring",
				slog.String("location", p.store.Location()),
				slog.Any("error", err),
			)
		case found:
			key, err := p.codec.Decode(ctx, encoded)
			if err != nil {
				return nil, fmt.Errorf("keyring entry %s: %w", p.store.Location(), err)
			}
			p.logger.Debug("master key loaded", slog.String("source", "keyring"))
			return key, nil
		}
	}

	if !generateIfMissing {
		return nil, cryptoDomain.ErrMasterKeyUnavailable
	}

	return p.generate(ctx, "Generated new master key")
}

// Rotate generates a replacement master key, displays it once and persists it
// best-effort. It never re-encrypts any data.
func (p *MasterKeyProvider) Rotate(ctx context.Context) (*cryptoDomain.MasterKey, error) {
	return p.generate(ctx, "Generated rotated master key")
}

// Store writes key to the credential store. It is a no-op when the keyring is disabled.
func (p *MasterKeyProvider) Store(ctx context.Context, key *cryptoDomain.MasterKey) error {
	if !p.KeyringEnabled() {
		return nil
	}

	encoded, err := p.codec.Encode(ctx, key)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, encoded)
}

// Display writes the encoded key to the operator writer.
func (p *MasterKeyProvider) Display(ctx context.Context, header string, key *cryptoDomain.MasterKey) error {
	encoded, err := p.codec.Encode(ctx, key)
	if err != nil {
		return err
	}
	return p.show(header, encoded)
}

func (p *MasterKeyProvider) show(header, encoded string) error {
	if _, err := fmt.Fprintf(p.out, "%s (base64). Save this now:\n%s\n", header, encoded); err != nil {
		return fmt.Errorf("%w: %w", cryptoDomain.ErrKeyDisplayFailed, err)
	}
	return nil
}

func (p *MasterKeyProvider) generate(ctx context.Context, header string) (*cryptoDomain.MasterKey, error) {
	key := cryptoDomain.GenerateMasterKey()

	encoded, err := p.codec.Encode(ctx, key)
	if err != nil {
		key.Close()
		return nil, fmt.Errorf("failed to encode master key: %w", err)
	}

	if err := p.show(header, encoded); err != nil {
		key.Close()
		return nil, err
	}

	p.persist(ctx, encoded)
	return key, nil
}

func (p *MasterKeyProvider) persist(ctx context.Context, encoded string) {
	if !p.KeyringEnabled() {
		_, _ = fmt.Fprintln(p.out, "Keyring disabled: the key was not stored. Provide it with --master-key on every run.")
		return
	}

	if err := p.store.Set(ctx, encoded); err != nil {
		p.logger.Warn(
			"failed to store master key in keyring",
			slog.String("location", p.store.Location()),
			slog.Any("error", err),
		)
		_, _ = fmt.Fprintln(p.out, "Could not store the key in the OS keyring. Provide it with --master-key on every run.")
		return
	}

	_, _ = fmt.Fprintf(p.out, "Stored in OS keyring under %s.\n", p.store.Location())
}
