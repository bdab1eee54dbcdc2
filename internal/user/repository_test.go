package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func setupUserMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

var userRowColumns = []string{"id", "name", "email", "password_hash", "role", "avatar", "is_verified", "created_at", "updated_at"}

func TestCreateAndFindUser(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (name, email, password_hash, role, avatar, is_verified)")).
		WithArgs("Alice", "a@example.com", "hash", "user", "", true).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "Alice", "a@example.com", "hash", "user", "", true, now, now))

	u, err := repo.Create(ctx, "Alice", "A@example.com", "hash", "user", "", true)
	require.NoError(t, err)
	require.Equal(t, 1, u.ID)
	require.True(t, u.IsVerified)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "Alice", "a@example.com", "hash", "user", "", true, now, now))

	fu, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "Alice", fu.Name)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "Alice", "a@example.com", "hash", "user", "", true, now, now))

	_, err = repo.FindByID(ctx, 1)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo, mock, close := setupUserMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), "Bob", "b@example.com", "hash", "user", "", false)
	require.Equal(t, ErrEmailExists, err)
}
