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

const sqliteRecordColumns = `id, name, kind, note, ciphertext, created_at, updated_at`

const sqliteMetadataColumns = `id, name, kind, note, created_at, updated_at`

// SQLiteSecretRepository implements secret persistence for a local SQLite file.
//
// Write transactions rely on the connection beginning IMMEDIATE transactions
// (see database.SQLiteDSN), so a transaction holds the database write lock from
// its first statement.
type SQLiteSecretRepository struct {
	db *sql.DB
}

// Upsert inserts the record or replaces kind, note, ciphertext and updated_at of the
// existing record with the same name. The stored row is returned.
func (s *SQLiteSecretRepository) Upsert(
	ctx context.Context,
	record *secretsDomain.SecretRecord,
) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, s.db)

	query := `INSERT INTO secrets (id, name, kind, note, ciphertext, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(name) DO UPDATE SET
				kind = excluded.kind,
				note = excluded.note,
				ciphertext = excluded.ciphertext,
				updated_at = excluded.updated_at`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID.String(),
		record.Name,
		record.Kind,
		record.Note,
		[]byte(record.Ciphertext),
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return nil, wrapWriteError(err, "failed to upsert secret")
	}

	return s.GetByName(ctx, record.Name)
}

// GetByName retrieves a record by its unique name.
func (s *SQLiteSecretRepository) GetByName(ctx context.Context, name string) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + sqliteRecordColumns + ` FROM secrets WHERE name = ?`

	var record secretsDomain.SecretRecord
	var id string
	err := querier.QueryRowContext(ctx, query, name).Scan(
		&id,
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

	if record.ID, err = uuid.Parse(id); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to parse secret id")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()

	return &record, nil
}

// List returns the metadata of every record ordered by name.
func (s *SQLiteSecretRepository) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + sqliteMetadataColumns + ` FROM secrets ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list secrets")
	}
	return scanSQLiteMetadata(rows)
}

// Search returns the metadata of records whose name, kind or note contains query,
// ignoring case. LIKE wildcards in query match literally.
func (s *SQLiteSecretRepository) Search(ctx context.Context, q string) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, s.db)

	query := `SELECT ` + sqliteMetadataColumns + ` FROM secrets
			  WHERE lower(name) LIKE ? ESCAPE '\'
				 OR lower(coalesce(kind, '')) LIKE ? ESCAPE '\'
				 OR lower(coalesce(note, '')) LIKE ? ESCAPE '\'
			  ORDER BY name`

	pattern := likePattern(q)
	rows, err := querier.QueryContext(ctx, query, pattern, pattern, pattern)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to search secrets")
	}
	return scanSQLiteMetadata(rows)
}

// Delete removes the record with the given name and reports whether one existed.
func (s *SQLiteSecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM secrets WHERE name = ?`, name)
	if err != nil {
		return false, apperrors.WrapStorage(err, "failed to delete secret")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.WrapStorage(err, "failed to get rows affected")
	}
	return affected > 0, nil
}

// LockForRotation takes the database write lock inside the current transaction.
//
// A no-op UPDATE is enough to acquire the write lock even when the connection
// did not begin the transaction IMMEDIATE.
func (s *SQLiteSecretRepository) LockForRotation(ctx context.Context) error {
	querier := database.GetTx(ctx, s.db)

	if _, err := querier.ExecContext(ctx, `UPDATE secrets SET id = id WHERE 1 = 0`); err != nil {
		return apperrors.WrapStorage(err, "failed to lock secrets for rotation")
	}
	return nil
}

// ListForRotation returns the id, name and ciphertext of every record.
func (s *SQLiteSecretRepository) ListForRotation(ctx context.Context) ([]*secretsDomain.RotationEntry, error) {
	querier := database.GetTx(ctx, s.db)

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
		var id string
		if err := rows.Scan(&id, &entry.Name, (*[]byte)(&entry.Ciphertext)); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret for rotation")
		}
		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to parse secret id")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets for rotation")
	}

	return entries, nil
}

// UpdateCiphertext replaces the ciphertext of one record.
func (s *SQLiteSecretRepository) UpdateCiphertext(
	ctx context.Context,
	id uuid.UUID,
	ciphertext cryptoDomain.EncryptedBlob,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, s.db)

	result, err := querier.ExecContext(
		ctx,
		`UPDATE secrets SET ciphertext = ?, updated_at = ? WHERE id = ?`,
		[]byte(ciphertext),
		updatedAt,
		id.String(),
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

func scanSQLiteMetadata(rows *sql.Rows) ([]*secretsDomain.SecretMetadata, error) {
	defer func() {
		_ = rows.Close()
	}()

	var items []*secretsDomain.SecretMetadata
	for rows.Next() {
		var item secretsDomain.SecretMetadata
		var id string
		if err := rows.Scan(&id, &item.Name, &item.Kind, &item.Note, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret")
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, apperrors.WrapStorage(err, "failed to parse secret id")
		}
		item.ID = parsed
		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets")
	}

	return items, nil
}

// NewSQLiteSecretRepository creates a new SQLite secret repository instance.
func NewSQLiteSecretRepository(db *sql.DB) *SQLiteSecretRepository {
	return &SQLiteSecretRepository{db: db}
}
