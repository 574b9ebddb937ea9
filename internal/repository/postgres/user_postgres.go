package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/devTanmayBang2104/scholar-share-platform/internal/model"
	"github.com/devTanmayBang2104/scholar-share-platform/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, name, email, password_hash, bio, profile_picture, points, created_at, updated_at`

func scanUser(s interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Bio,
		&u.ProfilePicture,
		&u.Points,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row. ErrDuplicateEmail on a unique violation.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, name, email, password_hash, bio, profile_picture, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Bio,
		u.ProfilePicture,
		u.CreatedAt,
	)
	out, err := scanUser(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, classify("create user", err)
	}
	return out, nil
}

// FindByID fetches a single user by id.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify("find user", err)
	}
	return u, nil
}

// FindByEmail fetches a single user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify("find user by email", err)
	}
	return u, nil
}

// UpdateProfile persists name, bio, and profile picture, bumping updated_at.
func (r *UserPostgres) UpdateProfile(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET name = $2, bio = $3, profile_picture = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q, u.ID, u.Name, u.Bio, u.ProfilePicture, time.Now().UTC())
	out, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify("update profile", err)
	}
	return out, nil
}
