// AngelaMos | 2026
// sql_store_test.go

package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/coursemarket/internal/core"
	"github.com/carterperez-dev/coursemarket/migrations"
)

type account struct {
	ID           string     `db:"id"`
	FirstName    string     `db:"first_name"`
	LastName     string     `db:"last_name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Role         string     `db:"role"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

var accountTable = Table{
	Name: "users",
	Columns: []string{
		"id", "first_name", "last_name", "email", "password_hash",
		"role", "created_at", "updated_at", "deleted_at",
	},
	Mutable:       []string{"first_name", "last_name", "role", "password_hash"},
	LiveUnique:    []string{"email"},
	UpdatedColumn: "updated_at",
	OrderColumn:   "created_at",
}

func setupPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("coursemarket"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container) //nolint:errcheck // test teardown
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() }) //nolint:errcheck // test teardown

	require.NoError(t, core.Migrate(ctx, db, migrations.FS))
	return db
}

func newAccount(id, email string) *account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &account{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "digest",
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSQLStore(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()
	store := NewSQLStore[account](db, accountTable)

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, core.Migrate(ctx, db, migrations.FS))
	})

	t.Run("create and find", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newAccount("a1", "a1@x.com")))

		got, err := store.FindUnique(ctx, accountTable.Live(Predicate{"id": "a1"}))
		require.NoError(t, err)
		assert.Equal(t, "a1@x.com", got.Email)
		assert.Nil(t, got.DeletedAt)
	})

	t.Run("missing row", func(t *testing.T) {
		_, err := store.FindUnique(ctx, Predicate{"id": "nope"})
		assert.ErrorIs(t, err, core.ErrNotFound)

		_, err = store.Update(ctx, Predicate{"id": "nope"}, Patch{"first_name": "x"})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("unknown predicate column", func(t *testing.T) {
		_, err := store.FindMany(ctx, Predicate{"shoe_size": 9})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("email unique among live rows", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, newAccount("a2", "dup@x.com")))

		err := store.Create(ctx, newAccount("a3", "dup@x.com"))
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		_, err = store.Update(ctx, Predicate{"id": "a2"}, Patch{"deleted_at": time.Now()})
		require.NoError(t, err)

		require.NoError(t, store.Create(ctx, newAccount("a3", "dup@x.com")))
	})

	t.Run("update stamps updated_at", func(t *testing.T) {
		before, err := store.FindUnique(ctx, Predicate{"id": "a1"})
		require.NoError(t, err)

		got, err := store.Update(ctx, accountTable.Live(Predicate{"id": "a1"}), Patch{"first_name": "Augusta"})
		require.NoError(t, err)
		assert.Equal(t, "Augusta", got.FirstName)
		assert.False(t, got.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("check constraint", func(t *testing.T) {
		_, err := store.Update(ctx, Predicate{"id": "a1"}, Patch{"role": "superuser"})
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("find many live newest first", func(t *testing.T) {
		live, err := store.FindMany(ctx, accountTable.Live(nil))
		require.NoError(t, err)

		ids := make([]string, 0, len(live))
		for _, a := range live {
			ids = append(ids, a.ID)
		}
		assert.NotContains(t, ids, "a2")
		assert.Contains(t, ids, "a1")
		assert.Contains(t, ids, "a3")
		for i := 1; i < len(live); i++ {
			assert.False(t, live[i].CreatedAt.After(live[i-1].CreatedAt))
		}
	})
}
