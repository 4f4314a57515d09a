package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/footprint/internal/model"
)

// UserStore holds the people who can belong to households. Emails are
// stored trimmed and lowercased.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserStore) Create(email, name string) (*model.User, error) {
	result, err := s.db.Exec(`INSERT INTO users (email, name) VALUES (?, ?)`, normalizeEmail(email), name)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.get(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	return s.get(`SELECT `+userCols+` FROM users WHERE email = ?`, normalizeEmail(email))
}

func (s *UserStore) get(query string, arg any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// FindOrCreate returns the user with the given email, creating it when
// missing. An existing user keeps their name unless it was empty.
func (s *UserStore) FindOrCreate(email, name string) (*model.User, error) {
	email = normalizeEmail(email)
	_, err := s.db.Exec(
		`INSERT INTO users (email, name) VALUES (?, ?)
		 ON CONFLICT (email) DO UPDATE SET
		     name = CASE WHEN users.name = '' THEN excluded.name ELSE users.name END,
		     updated_at = CASE WHEN users.name = '' AND excluded.name != '' THEN CURRENT_TIMESTAMP ELSE users.updated_at END`,
		email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("find or create user: %w", err)
	}
	return s.GetByEmail(email)
}
