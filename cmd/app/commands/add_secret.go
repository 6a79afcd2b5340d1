package commands

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
	secretsUseCase "github.com/allisson/devinventory/internal/secrets/usecase"
)

// RunAddSecret stores a secret or replaces the value of an existing one.
//
// When value is nil the value is read from a hidden terminal prompt, or from the
// reader when it is not a terminal.
func RunAddSecret(
	ctx context.Context,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	io IOTuple,
	name, kind, note string,
	value *string,
) error {
	var plaintext []byte
	if value != nil {
		plaintext = []byte(*value)
	} else {
		read, err := readSecretValue(io, "Secret value: ")
		if err != nil {
			return err
		}
		plaintext = read
	}
	defer cryptoDomain.Zero(plaintext)

	input := &secretsDomain.AddSecretInput{
		Name:  name,
		Kind:  secretsDomain.OptionalString(kind),
		Note:  secretsDomain.OptionalString(note),
		Value: plaintext,
	}

	secret, err := secretUseCase.Add(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to save secret: %w", err)
	}

	success(io.Writer, "saved: %s", secret.Name)
	logger.Info("secret saved", slog.String("name", secret.Name))
	return nil
}
