package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrEmailExists      = errors.New("auth: email already registered")
	ErrEmailNotFound    = errors.New("auth: email not found")
	ErrInvalidPassword  = errors.New("auth: invalid password")
	ErrRefreshTokenUsed = errors.New("auth: refresh token invalid or already used")
	ErrInvalidSession   = errors.New("auth: invalid or expired session")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

type Repo struct{ DB *pgxpool.Pool }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *Repo) CreateUser(ctx context.Context, email, name, passwordHash string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, password_hash, created_at`,
		email, name, passwordHash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if isUniqueViolation(err) {
		return User{}, ErrEmailExists
	}
	return u, err
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.DB.QueryRow(ctx, `
		SELECT id, email, name, password_hash, created_at
		FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrEmailNotFound
	}
	return u, err
}

func (r *Repo) CreateRefreshToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO refresh_tokens(token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt,
	)
	return err
}

// DeleteRefreshToken removes and returns the token row. A miss means the
// token was never issued or was already rotated; callers treat both as
// possible token theft.
func (r *Repo) DeleteRefreshToken(ctx context.Context, token string) (RefreshToken, error) {
	var rt RefreshToken
	err := r.DB.QueryRow(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1 RETURNING token, user_id, expires_at`,
		token,
	).Scan(&rt.Token, &rt.UserID, &rt.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrRefreshTokenUsed
	}
	return rt, err
}
