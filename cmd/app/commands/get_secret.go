package commands

import (
	"context"
	"fmt"
	"log/slog"

	secretsUseCase "github.com/allisson/devinventory/internal/secrets/usecase"
)

// RunGetSecret decrypts a secret and prints it masked.
//
// With show the plaintext is printed after a confirmation, which skipConfirm
// bypasses. A declined confirmation prints nothing and is not an error.
func RunGetSecret(
	ctx context.Context,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	io IOTuple,
	name string,
	show, skipConfirm bool,
) error {
	secret, err := secretUseCase.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to get secret: %w", err)
	}
	defer secret.Zero()

	if !show {
		_, err = fmt.Fprintf(io.Writer, "%s => %s\n", secret.Name, mask(secret.Plaintext))
		return err
	}

	if !skipConfirm {
		ok, err := confirm(io, fmt.Sprintf("Print %q in plaintext?", secret.Name))
		if err != nil {
			return err
		}
		if !ok {
			notice(io.Writer, "aborted")
			return nil
		}
	}

	logger.Warn("secret printed in plaintext", slog.String("name", secret.Name))

	if _, err := io.Writer.Write(secret.Plaintext); err != nil {
		return err
	}
	_, err = fmt.Fprintln(io.Writer)
	return err
}
