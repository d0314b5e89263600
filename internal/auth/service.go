package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service issues opaque tokens: access tokens live in Redis with a TTL,
// refresh tokens in Postgres and rotate on every use.
type Service struct {
	Repo            *Repo
	Redis           *redis.Client
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func (s *Service) accessTTL() time.Duration {
	if s.AccessTokenTTL > 0 {
		return s.AccessTokenTTL
	}
	return 15 * time.Minute
}

func (s *Service) refreshTTL() time.Duration {
	if s.RefreshTokenTTL > 0 {
		return s.RefreshTokenTTL
	}
	return 7 * 24 * time.Hour
}

func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.Repo.CreateUser(ctx, email, name, string(hash))
}

func (s *Service) Login(ctx context.Context, email, password string) (Tokens, error) {
	u, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		return Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Tokens{}, ErrInvalidPassword
	}
	return s.issueTokens(ctx, u.ID)
}

// Refresh rotates the refresh token: the old one is deleted first, so a
// replayed token fails with ErrRefreshTokenUsed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	rt, err := s.Repo.DeleteRefreshToken(ctx, refreshToken)
	if err != nil {
		return Tokens{}, err
	}
	if time.Now().After(rt.ExpiresAt) {
		return Tokens{}, ErrRefreshTokenUsed
	}
	return s.issueTokens(ctx, rt.UserID)
}

func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeySession, accessToken)).Err()
	}
	if refreshToken != "" {
		if _, err := s.Repo.DeleteRefreshToken(ctx, refreshToken); err != nil && !errors.Is(err, ErrRefreshTokenUsed) {
			return err
		}
	}
	return nil
}

// Authenticate resolves a bearer access token to a user id.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (int64, error) {
	v, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeySession, accessToken)).Result()
	if err == redis.Nil {
		return 0, ErrInvalidSession
	}
	if err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, ErrInvalidSession
	}
	return userID, nil
}

func (s *Service) issueTokens(ctx context.Context, userID int64) (Tokens, error) {
	access := uuid.NewString()
	if err := s.Redis.Set(ctx,
		fmt.Sprintf(redisx.KeySession, access),
		strconv.FormatInt(userID, 10),
		s.accessTTL(),
	).Err(); err != nil {
		return Tokens{}, err
	}

	refresh := uuid.NewString()
	if err := s.Repo.CreateRefreshToken(ctx, refresh, userID, time.Now().Add(s.refreshTTL())); err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}
