package auth

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialNotFound is returned when deleting an unknown passkey.
var ErrCredentialNotFound = errors.New("credential not found")

// NewWebAuthn builds the relying party for baseURL.
func NewWebAuthn(baseURL string) (*webauthn.WebAuthn, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	return webauthn.New(&webauthn.Config{
		RPDisplayName: "Tenant Assessment",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{baseURL},
	})
}

// PasskeyUser adapts an admin email to webauthn.User.
type PasskeyUser struct {
	email       string
	credentials []webauthn.Credential
}

// NewPasskeyUser creates a PasskeyUser.
func NewPasskeyUser(email string, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{email: normalizeEmail(email), credentials: credentials}
}

// WebAuthnID is the SHA-256 of the normalized email, so it is stable
// across credentials and never reveals the address.
func (u *PasskeyUser) WebAuthnID() []byte {
	h := sha256.Sum256([]byte(u.email))
	return h[:]
}

func (u *PasskeyUser) WebAuthnName() string                       { return u.email }
func (u *PasskeyUser) WebAuthnDisplayName() string                { return u.email }
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// StoredCredential is a passkey with its label.
type StoredCredential struct {
	ID         string
	Email      string
	Name       string
	Credential webauthn.Credential
}

// PasskeyStore persists passkey credentials.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// Save stores a newly registered credential.
func (s *PasskeyStore) Save(email, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT INTO passkey_credentials (id, email, name, credential_json) VALUES (?, ?, ?, ?)",
		hex.EncodeToString(cred.ID), normalizeEmail(email), name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// ListByEmail returns the credentials registered to email.
func (s *PasskeyStore) ListByEmail(email string) (result []StoredCredential, err error) {
	rows, err := s.db.Query(
		"SELECT id, email, name, credential_json FROM passkey_credentials WHERE email = ? ORDER BY created_at",
		normalizeEmail(email),
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var (
			sc   StoredCredential
			data string
		)
		if err := rows.Scan(&sc.ID, &sc.Email, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential %s: %w", sc.ID, err)
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// WebAuthnCredentials returns only the webauthn credentials for email.
func (s *PasskeyStore) WebAuthnCredentials(email string) ([]webauthn.Credential, error) {
	stored, err := s.ListByEmail(email)
	if err != nil {
		return nil, err
	}
	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}
	return creds, nil
}

// Any reports whether at least one passkey is registered.
func (s *PasskeyStore) Any() (bool, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM passkey_credentials").Scan(&n); err != nil {
		return false, fmt.Errorf("counting credentials: %w", err)
	}
	return n > 0, nil
}

// Delete removes one of email's credentials.
func (s *PasskeyStore) Delete(id, email string) error {
	result, err := s.db.Exec(
		"DELETE FROM passkey_credentials WHERE id = ? AND email = ?",
		id, normalizeEmail(email),
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
