package user

import (
	"context"
	"strings"

	"quickcourt/internal/db"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password_hash, role, avatar, is_verified, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role, avatar string, verified bool) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role, avatar, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, name, strings.ToLower(email), passwordHash, role, avatar, verified)
	if err != nil {
		if db.IsPgError(err, db.UniqueViolation) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user User
	if err := r.db.GetContext(ctx, &user, query, strings.ToLower(email)); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, strings.ToLower(email))
}
