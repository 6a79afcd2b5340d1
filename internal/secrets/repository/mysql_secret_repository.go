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

// MySQLSecretRepository implements secret persistence for MySQL databases.
//
// IDs are stored as BINARY(16). The DSN must set parseTime=true so DATETIME
// columns scan into time.Time.
type MySQLSecretRepository struct {
	db *sql.DB
}

// Upsert inserts the record or replaces kind, note, ciphertext and updated_at of the
// existing record with the same name, preserving id and created_at.
//
// MySQL has no RETURNING clause; the stored row is read back in the same
// transaction.
func (m *MySQLSecretRepository) Upsert(
	ctx context.Context,
	record *secretsDomain.SecretRecord,
) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO secrets (id, name, kind, note, ciphertext, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
				kind = VALUES(kind),
				note = VALUES(note),
				ciphertext = VALUES(ciphertext),
				updated_at = VALUES(updated_at)`

	id, err := record.ID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal secret id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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

	return m.GetByName(ctx, record.Name)
}

// GetByName retrieves a record by its unique name.
func (m *MySQLSecretRepository) GetByName(ctx context.Context, name string) (*secretsDomain.SecretRecord, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, kind, note, ciphertext, created_at, updated_at
			  FROM secrets
			  WHERE name = ?`

	var record secretsDomain.SecretRecord
	var id []byte

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

	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to unmarshal secret id")
	}

	return &record, nil
}

// List returns the metadata of every record ordered by name.
func (m *MySQLSecretRepository) List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, kind, note, created_at, updated_at
			  FROM secrets
			  ORDER BY name`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to list secrets")
	}
	return scanMySQLMetadata(rows)
}

// Search returns the metadata of records whose name, kind or note contains query,
// ignoring case. LIKE wildcards in query match literally.
func (m *MySQLSecretRepository) Search(ctx context.Context, q string) ([]*secretsDomain.SecretMetadata, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, kind, note, created_at, updated_at
			  FROM secrets
			  WHERE LOWER(name) LIKE ? ESCAPE '\\'
				 OR LOWER(COALESCE(kind, '')) LIKE ? ESCAPE '\\'
				 OR LOWER(COALESCE(note, '')) LIKE ? ESCAPE '\\'
			  ORDER BY name`

	pattern := likePattern(q)
	rows, err := querier.QueryContext(ctx, query, pattern, pattern, pattern)
	if err != nil {
		return nil, apperrors.WrapStorage(err, "failed to search secrets")
	}
	return scanMySQLMetadata(rows)
}

// Delete removes the record with the given name and reports whether one existed.
func (m *MySQLSecretRepository) Delete(ctx context.Context, name string) (bool, error) {
	querier := database.GetTx(ctx, m.db)

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

// LockForRotation locks every row and the gaps between them, so no other
// transaction can insert, update or delete secrets until the current one ends.
func (m *MySQLSecretRepository) LockForRotation(ctx context.Context) error {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, `SELECT id FROM secrets FOR UPDATE`)
	if err != nil {
		return apperrors.WrapStorage(err, "failed to lock secrets for rotation")
	}
	defer func() {
		_ = rows.Close()
	}()

	// Rows are locked as they are read, so the result set must be drained.
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return apperrors.WrapStorage(err, "failed to lock secrets for rotation")
	}
	return nil
}

// ListForRotation returns the id, name and ciphertext of every record.
func (m *MySQLSecretRepository) ListForRotation(ctx context.Context) ([]*secretsDomain.RotationEntry, error) {
	querier := database.GetTx(ctx, m.db)

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
		var id []byte
		if err := rows.Scan(&id, &entry.Name, (*[]byte)(&entry.Ciphertext)); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret for rotation")
		}
		if err := entry.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal secret id")
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets for rotation")
	}

	return entries, nil
}

// UpdateCiphertext replaces the ciphertext of one record.
func (m *MySQLSecretRepository) UpdateCiphertext(
	ctx context.Context,
	id uuid.UUID,
	ciphertext cryptoDomain.EncryptedBlob,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	binaryID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal secret id")
	}

	result, err := querier.ExecContext(
		ctx,
		`UPDATE secrets SET ciphertext = ?, updated_at = ? WHERE id = ?`,
		[]byte(ciphertext),
		updatedAt,
		binaryID,
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

func scanMySQLMetadata(rows *sql.Rows) ([]*secretsDomain.SecretMetadata, error) {
	defer func() {
		_ = rows.Close()
	}()

	var items []*secretsDomain.SecretMetadata
	for rows.Next() {
		var item secretsDomain.SecretMetadata
		var id []byte
		if err := rows.Scan(&id, &item.Name, &item.Kind, &item.Note, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to scan secret")
		}
		if err := item.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.WrapStorage(err, "failed to unmarshal secret id")
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.WrapStorage(err, "failed to iterate secrets")
	}

	return items, nil
}

// NewMySQLSecretRepository creates a new MySQL secret repository instance.
func NewMySQLSecretRepository(db *sql.DB) *MySQLSecretRepository {
	return &MySQLSecretRepository{db: db}
}
