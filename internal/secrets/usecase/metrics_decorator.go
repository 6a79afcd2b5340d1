package usecase

import (
	"context"
	"time"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	"github.com/allisson/devinventory/internal/metrics"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// secretUseCaseWithMetrics decorates SecretUseCase with metrics instrumentation.
type secretUseCaseWithMetrics struct {
	next    SecretUseCase
	metrics metrics.BusinessMetrics
}

// NewSecretUseCaseWithMetrics wraps a SecretUseCase with metrics recording.
func NewSecretUseCaseWithMetrics(useCase SecretUseCase, m metrics.BusinessMetrics) SecretUseCase {
	return &secretUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *secretUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "secrets", operation, status)
	s.metrics.RecordDuration(ctx, "secrets", operation, time.Since(start), status)
}

// Add records metrics for secret add operations.
func (s *secretUseCaseWithMetrics) Add(
	ctx context.Context,
	input *secretsDomain.AddSecretInput,
) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Add(ctx, input)
	s.record(ctx, "secret_add", start, err)
	return secret, err
}

// Get records metrics for secret retrieval operations.
func (s *secretUseCaseWithMetrics) Get(ctx context.Context, name string) (*secretsDomain.Secret, error) {
	start := time.Now()
	secret, err := s.next.Get(ctx, name)
	s.record(ctx, "secret_get", start, err)
	return secret, err
}

// List records metrics for secret listing operations.
func (s *secretUseCaseWithMetrics) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	start := time.Now()
	items, err := s.next.List(ctx)
	s.record(ctx, "secret_list", start, err)
	return items, err
}

// Search records metrics for secret search operations.
func (s *secretUseCaseWithMetrics) Search(
	ctx context.Context,
	query string,
) ([]*secretsDomain.SecretMetadata, error) {
	start := time.Now()
	items, err := s.next.Search(ctx, query)
	s.record(ctx, "secret_search", start, err)
	return items, err
}

// Delete records metrics for secret deletion operations.
func (s *secretUseCaseWithMetrics) Delete(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	removed, err := s.next.Delete(ctx, name)
	s.record(ctx, "secret_delete", start, err)
	return removed, err
}

// ReencryptAll records metrics for master key rotation.
func (s *secretUseCaseWithMetrics) ReencryptAll(
	ctx context.Context,
	oldCipher, newCipher cryptoDomain.Cipher,
) (int, error) {
	start := time.Now()
	count, err := s.next.ReencryptAll(ctx, oldCipher, newCipher)
	s.record(ctx, "secret_reencrypt_all", start, err)
	return count, err
}
