package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// User errors.
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// User is someone allowed to sign in to the admin area. Agents are also
// offered on the intake form.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAgent   bool      `json:"is_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages authorized users. The admin email from config is
// always authorized and never stored.
type UserStore struct {
	db         *sql.DB
	adminEmail string
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: normalizeEmail(adminEmail)}
}

// IsAuthorized reports whether email may sign in.
func (s *UserStore) IsAuthorized(email string) bool {
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	if email == s.adminEmail {
		return true
	}

	var count int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM authorized_users WHERE LOWER(email) = ?", email,
	).Scan(&count); err != nil {
		slog.Warn("checking authorized user", "error", err)
		return false
	}
	return count > 0
}

// IsAdmin reports whether email is the configured admin.
func (s *UserStore) IsAdmin(email string) bool {
	return s.adminEmail != "" && normalizeEmail(email) == s.adminEmail
}

// Add authorizes a new user.
func (s *UserStore) Add(email, name string, isAgent bool) (*User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	result, err := s.db.Exec(
		"INSERT INTO authorized_users (email, name, is_agent) VALUES (?, ?, ?)",
		email, name, isAgent,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}
	return s.GetByID(id)
}

// List returns every authorized user ordered by email.
func (s *UserStore) List() ([]*User, error) {
	return s.query("SELECT id, email, name, is_agent, created_at FROM authorized_users ORDER BY email")
}

// Agents returns the display names of users marked as agents.
func (s *UserStore) Agents() ([]string, error) {
	users, err := s.query(
		"SELECT id, email, name, is_agent, created_at FROM authorized_users WHERE is_agent = 1 ORDER BY name, email",
	)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		if u.Name != "" {
			names = append(names, u.Name)
		} else {
			names = append(names, u.Email)
		}
	}
	return names, nil
}

func (s *UserStore) query(q string, args ...any) (users []*User, err error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsAgent, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, email, name, is_agent, created_at FROM authorized_users WHERE id = ?", id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.IsAgent, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// Delete removes an authorized user by ID.
func (s *UserStore) Delete(id int64) error {
	result, err := s.db.Exec("DELETE FROM authorized_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AllEmails returns every authorized email, admin first.
func (s *UserStore) AllEmails() ([]string, error) {
	users, err := s.List()
	if err != nil {
		return nil, err
	}
	var emails []string
	if s.adminEmail != "" {
		emails = append(emails, s.adminEmail)
	}
	for _, u := range users {
		if e := normalizeEmail(u.Email); e != s.adminEmail {
			emails = append(emails, e)
		}
	}
	return emails, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
