package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	"github.com/allisson/devinventory/internal/database"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
	"github.com/allisson/devinventory/internal/testutil"
)

// secretRepository is the behaviour shared by every dialect.
type secretRepository interface {
	Upsert(ctx context.Context, record *secretsDomain.SecretRecord) (*secretsDomain.SecretRecord, error)
	GetByName(ctx context.Context, name string) (*secretsDomain.SecretRecord, error)
	List(ctx context.Context) ([]*secretsDomain.SecretMetadata, error)
	Search(ctx context.Context, query string) ([]*secretsDomain.SecretMetadata, error)
	Delete(ctx context.Context, name string) (bool, error)
	LockForRotation(ctx context.Context) error
	ListForRotation(ctx context.Context) ([]*secretsDomain.RotationEntry, error)
	UpdateCiphertext(
		ctx context.Context,
		id uuid.UUID,
		ciphertext cryptoDomain.EncryptedBlob,
		updatedAt time.Time,
	) error
}

var (
	_ secretRepository = (*SQLiteSecretRepository)(nil)
	_ secretRepository = (*PostgreSQLSecretRepository)(nil)
	_ secretRepository = (*MySQLSecretRepository)(nil)
)

func strPtr(s string) *string {
	return &s
}

func newRecord(name string, kind, note *string, ciphertext string) *secretsDomain.SecretRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &secretsDomain.SecretRecord{
		ID:         uuid.Must(uuid.NewV7()),
		Name:       name,
		Kind:       kind,
		Note:       note,
		Ciphertext: cryptoDomain.EncryptedBlob(ciphertext),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func metadataNames(items []*secretsDomain.SecretMetadata) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

func runRepositoryContract(t *testing.T, db *sql.DB, repo secretRepository) {
	ctx := context.Background()
	txManager := database.NewTxManager(db)

	t.Run("Upsert_Insert", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		record := newRecord("github-token", strPtr("token"), strPtr("personal"), "blob-1")

		stored, err := repo.Upsert(ctx, record)
		require.NoError(t, err)

		assert.Equal(t, record.ID, stored.ID)
		assert.Equal(t, "github-token", stored.Name)
		assert.Equal(t, "token", *stored.Kind)
		assert.Equal(t, "personal", *stored.Note)
		assert.Equal(t, record.Ciphertext, stored.Ciphertext)
		assert.WithinDuration(t, record.CreatedAt, stored.CreatedAt, time.Second)
	})

	t.Run("Upsert_PreservesIDAndCreatedAt", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		first := newRecord("db-password", strPtr("password"), nil, "blob-1")
		stored, err := repo.Upsert(ctx, first)
		require.NoError(t, err)

		second := newRecord("db-password", nil, strPtr("rotated"), "blob-2")
		second.CreatedAt = first.CreatedAt.Add(time.Hour)
		second.UpdatedAt = first.UpdatedAt.Add(time.Hour)

		updated, err := repo.Upsert(ctx, second)
		require.NoError(t, err)

		assert.Equal(t, stored.ID, updated.ID)
		assert.WithinDuration(t, stored.CreatedAt, updated.CreatedAt, time.Second)
		assert.WithinDuration(t, second.UpdatedAt, updated.UpdatedAt, time.Second)
		assert.Nil(t, updated.Kind)
		assert.Equal(t, "rotated", *updated.Note)
		assert.Equal(t, cryptoDomain.EncryptedBlob("blob-2"), updated.Ciphertext)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("GetByName_NotFound", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		record, err := repo.GetByName(ctx, "missing")
		assert.Nil(t, record)
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("List_OrderedByName", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		for _, name := range []string{"charlie", "alpha", "bravo"} {
			_, err := repo.Upsert(ctx, newRecord(name, nil, nil, "blob"))
			require.NoError(t, err)
		}

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "bravo", "charlie"}, metadataNames(items))
	})

	t.Run("List_Empty", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Search", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		records := []*secretsDomain.SecretRecord{
			newRecord("AWS-Access-Key", strPtr("token"), strPtr("prod account"), "blob"),
			newRecord("github", strPtr("Token"), nil, "blob"),
			newRecord("db_password", strPtr("password"), strPtr("100% rotated"), "blob"),
			newRecord("dbXpassword", nil, strPtr("staging"), "blob"),
		}
		for _, record := range records {
			_, err := repo.Upsert(ctx, record)
			require.NoError(t, err)
		}

		tests := []struct {
			query string
			want  []string
		}{
			{query: "aws", want: []string{"AWS-Access-Key"}},
			{query: "TOKEN", want: []string{"AWS-Access-Key", "github"}},
			{query: "prod", want: []string{"AWS-Access-Key"}},
			{query: "db_", want: []string{"db_password"}},
			{query: "100%", want: []string{"db_password"}},
			{query: "%", want: []string{"db_password"}},
			{query: "nothing", want: []string{}},
		}
		for _, tt := range tests {
			items, err := repo.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, metadataNames(items), "query %q", tt.query)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		_, err := repo.Upsert(ctx, newRecord("temp", nil, nil, "blob"))
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, "temp")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, "temp")
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = repo.GetByName(ctx, "temp")
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("Rotation", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		for _, name := range []string{"b", "a"} {
			_, err := repo.Upsert(ctx, newRecord(name, nil, nil, "old-"+name))
			require.NoError(t, err)
		}

		updatedAt := time.Now().UTC().Add(time.Minute).Truncate(time.Microsecond)
		err := txManager.WithTx(ctx, func(ctx context.Context) error {
			if err := repo.LockForRotation(ctx); err != nil {
				return err
			}
			entries, err := repo.ListForRotation(ctx)
			if err != nil {
				return err
			}
			require.Len(t, entries, 2)
			assert.Equal(t, "a", entries[0].Name)
			assert.Equal(t, cryptoDomain.EncryptedBlob("old-a"), entries[0].Ciphertext)

			for _, entry := range entries {
				blob := cryptoDomain.EncryptedBlob("new-" + entry.Name)
				if err := repo.UpdateCiphertext(ctx, entry.ID, blob, updatedAt); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		record, err := repo.GetByName(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.EncryptedBlob("new-b"), record.Ciphertext)
		assert.WithinDuration(t, updatedAt, record.UpdatedAt, time.Second)
	})

	t.Run("UpdateCiphertext_NotFound", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		err := repo.UpdateCiphertext(ctx, uuid.Must(uuid.NewV7()), cryptoDomain.EncryptedBlob("x"), time.Now().UTC())
		assert.ErrorIs(t, err, secretsDomain.ErrSecretNotFound)
	})

	t.Run("RollbackDiscardsWrites", func(t *testing.T) {
		testutil.CleanupDB(t, db)
		_, err := repo.Upsert(ctx, newRecord("keep", nil, nil, "original"))
		require.NoError(t, err)

		err = txManager.WithTx(ctx, func(ctx context.Context) error {
			entries, err := repo.ListForRotation(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.UpdateCiphertext(ctx, entries[0].ID, cryptoDomain.EncryptedBlob("changed"), time.Now().UTC()))
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		record, err := repo.GetByName(ctx, "keep")
		require.NoError(t, err)
		assert.Equal(t, cryptoDomain.EncryptedBlob("original"), record.Ciphertext)
	})
}

func TestSQLiteSecretRepository_Contract(t *testing.T) {
	db := testutil.SetupSQLiteDB(t)
	defer testutil.TeardownDB(t, db)

	runRepositoryContract(t, db, NewSQLiteSecretRepository(db))
}

func TestPostgreSQLSecretRepository_Contract(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)

	runRepositoryContract(t, db, NewPostgreSQLSecretRepository(db))
}

func TestMySQLSecretRepository_Contract(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)

	runRepositoryContract(t, db, NewMySQLSecretRepository(db))
}
