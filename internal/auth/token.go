package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const tokenExpiry = 15 * time.Minute

// Magic link failures.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenUsed    = errors.New("token already used")
	ErrTokenExpired = errors.New("token expired")
)

// TokenStore manages single-use magic link tokens.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create issues a token for email, valid for 15 minutes.
func (s *TokenStore) Create(email string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO auth_tokens (token, email, expires_at) VALUES (?, ?, ?)",
		token, email, time.Now().Add(tokenExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Redeem consumes token and returns its email. The used flag is flipped
// with a guarded UPDATE so two concurrent redeems cannot both succeed.
func (s *TokenStore) Redeem(token string) (string, error) {
	var (
		email     string
		used      int
		expiresAt time.Time
	)
	err := s.db.QueryRow(
		"SELECT email, used, expires_at FROM auth_tokens WHERE token = ?",
		token,
	).Scan(&email, &used, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if used != 0 {
		return "", ErrTokenUsed
	}
	if time.Now().After(expiresAt) {
		return "", ErrTokenExpired
	}

	res, err := s.db.Exec("UPDATE auth_tokens SET used = 1 WHERE token = ? AND used = 0", token)
	if err != nil {
		return "", fmt.Errorf("marking token used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return "", ErrTokenUsed
	}

	return email, nil
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup() error {
	if _, err := s.db.Exec("DELETE FROM auth_tokens WHERE expires_at < ?", time.Now()); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
