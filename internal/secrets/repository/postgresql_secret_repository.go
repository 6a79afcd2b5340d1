package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	"github.com/allisson/devinventory/internal/database"
	apperrors "github.com/allisson/devinventory/internal/errors"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

// PostgreSQLSecretRepository implements secret persistence for PostgreSQL databases.
type PostgreSQLSecretRepository struct {
	db *sql.DB
}

// Upsert inserts the record or replaces kind, note, ciphertext and updated_at of the
// existing record with the same name, preserving id and created_at.
func (p *PostgreSQLSecretRepository) Upsert(
	ctx context.Context,
	record *secretsDomain.SecretRecord,
) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO secrets (id, name, kind, note, ciphertext, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (name) DO UPDATE SET
				kind = EXCLUDED.kind,
				note = EXCLUDED.note,
				ciphertext = EXCLUDED.ciphertext,
				updated_at = EXCLUDED.updated_at
			  RETURNING id, name, kind, note, ciphertext, created_at, updated_at`

	var stored secretsDomain.SecretRecord
	err := querier.QueryRowContext(
		ctx,
		query,
		record.ID,
		record.Name,
		record.Kind,
		record.Note,
		[]byte(record.Ciphertext),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(
		&stored.ID,
		&stored.Name,
		&stored.Kind,
		&stored.Note,
		(*[]byte)(&stored.Ciphertext),
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, wrapWriteError(err, "failed to upsert secret")
	}

	return &stored, nil
}

// GetByName retrieves a record by its unique name.
func (p *PostgreSQLSecretRepository) GetByName(
	ctx context.Context,
	name string,
) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, kind, note, ciphertext, created_at, updated_at
			  FROM secrets
			  WHERE name = $1`

	var record secretsDomain.SecretRecord
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&record.ID,
		&record.Name,
		&record.Kind,
		&record.Note,
		(*[]byte)(&record.Ciphertext),
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, secretsDomain.ErrSecretNotFound
		}
		return nil, apperrors.WrapStorage(err, "failed to get secret by name")
	}

	return &record, nil
}

// List returns the metadata of every record ordered by name.
func (p *PostgreSQLSecretRepository) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, kind, note, created_at, updated_at
			  FROM secrets
			  ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list secrets")
	}
	return scanPostgreSQLMetadata(rows)
}

// Search returns the metadata of records whose name, kind or note contains query,
// ignoring case. LIKE wildcards in query match literally.
func (p *PostgreSQLSecretRepository) Search(
	ctx context.Context,
	q string,
) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, kind, note, created_at, updated_at
			  FROM secrets
			  WHERE lower(name) LIKE $1 ESCAPE '\'
				 OR lower(coalesce(kind, '')) LIKE $1 ESCAPE '\'
				 OR lower(coalesce(note, '')) LIKE $1 ESCAPE '\'
			  ORDER BY name`

	rows, err := querier.QueryContext(ctx, query, likePattern(q))
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to search secrets")
	}
	return scanPostgreSQLMetadata(rows)
}

// Delete removes the record with the given name and reports whether one existed.
func (p *PostgreSQLSecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE name = $1`, name)
	if err != nil {
		return false, apperrors.WrapStorage(err, "failed to delete secret")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.WrapStorage(err, "failed to get rows affected")
	}
	return affected > 0, nil
}

// LockForRotation blocks concurrent writers to the secrets table until the current
// transaction ends. Readers are not blocked.
func (p *PostgreSQLSecretRepository) LockForRotation(ctx context.Context) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `LOCK TABLE secrets IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return apperrors.WrapStorage(err, "failed to lock secrets for rotation")
	}
	return nil
}

// ListForRotation returns the id, name and ciphertext of every record.
func (p *PostgreSQLSecretRepository) ListForRotation(
	ctx context.Context,
) ([]*secretsDomain.RotationEntry, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, `SELECT id, name, ciphertext FROM secrets ORDER BY name`)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list secrets for rotation")
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []*secretsDomain.RotationEntry
	for rows.Next() {
		var entry secretsDomain.RotationEntry
		if err := rows.Scan(&entry.ID, &entry.Name, (*[]byte)(&entry.Ciphertext)); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret for rotation")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets for rotation")
	}

	return entries, nil
}

// UpdateCiphertext replaces the ciphertext of one record.
func (p *PostgreSQLSecretRepository) UpdateCiphertext(
	ctx context.Context,
	id uuid.UUID,
	ciphertext cryptoDomain.EncryptedBlob,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE secrets SET ciphertext = $1, updated_at = $2 WHERE id = $3`,
		[]byte(ciphertext),
		updatedAt,
		id,
	)
	if err != nil {
		return apperrors.WrapStorage(err, "failed to update secret ciphertext")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.WrapStorage(err, "failed to get rows affected")
	}
	if affected == 0 {
		return secretsDomain.ErrSecretNotFound
	}
	return nil
}

func scanPostgreSQLMetadata(rows *sql.Rows) ([]*secretsDomain.SecretMetadata, error) {
	defer func() {
		_ = rows.Close()
	}()

	var items []*secretsDomain.SecretMetadata
	for rows.Next() {
		var item secretsDomain.SecretMetadata
		if err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Kind,
			&item.Note,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets")
	}

	return items, nil
}

// NewPostgreSQLSecretRepository creates a new PostgreSQL secret repository instance.
func NewPostgreSQLSecretRepository(db *sql.DB) *PostgreSQLSecretRepository {
	return &PostgreSQLSecretRepository{db: db}
}
