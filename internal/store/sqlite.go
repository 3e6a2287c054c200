package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrDuplicateEmail is returned when a signup already exists for the
// normalized email address.
var ErrDuplicateEmail = errors.New("email already signed up")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS newsletter_signups (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        first_name TEXT,
        last_name TEXT,
        email TEXT UNIQUE NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_newsletter_signups_email ON newsletter_signups(email);
    `
	_, err := s.db.Exec(schema)
	return err
}

// NormalizeEmail applies the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateSignup stores a newsletter signup and returns its assigned id.
// The email is normalized before the duplicate pre-check; the UNIQUE
// constraint still backs the check, but the check-then-insert window is
// not serialized against concurrent signups for the same address.
func (s *SQLiteStore) CreateSignup(firstName, lastName, email string) (int64, error) {
	email = NormalizeEmail(email)

	var existingID int64
	err := s.db.QueryRow("SELECT id FROM newsletter_signups WHERE email = ?", email).Scan(&existingID)
	if err == nil {
		return 0, ErrDuplicateEmail
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check for existing signup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.Exec(
		"INSERT INTO newsletter_signups (first_name, last_name, email, created_at) VALUES (?, ?, ?, ?)",
		strings.TrimSpace(firstName), strings.TrimSpace(lastName), email, time.Now().UTC(),
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to insert signup: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to read signup id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit signup: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListSignups() ([]NewsletterSignup, error) {
	rows, err := s.db.Query("SELECT id, first_name, last_name, email, created_at FROM newsletter_signups ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query signups: %w", err)
	}
	defer rows.Close()

	var signups []NewsletterSignup
	for rows.Next() {
		var signup NewsletterSignup
		if err := rows.Scan(&signup.ID, &signup.FirstName, &signup.LastName, &signup.Email, &signup.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signup row: %w", err)
		}
		signups = append(signups, signup)
	}
	return signups, rows.Err()
}

// ExportToFile writes every signup to the given path as an indented JSON
// array and returns the number of exported rows. An existing file is
// overwritten.
func (s *SQLiteStore) ExportToFile(path string) (int, error) {
	signups, err := s.ListSignups()
	if err != nil {
		return 0, err
	}

	type exportRow struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		CreatedAt string `json:"created_at"`
	}

	rows := make([]exportRow, 0, len(signups))
	for _, signup := range signups {
		rows = append(rows, exportRow{
			ID:        signup.ID,
			FirstName: signup.FirstName,
			LastName:  signup.LastName,
			Email:     signup.Email,
			CreatedAt: signup.CreatedAt.Format(time.RFC3339),
		})
	}

	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return 0, fmt.Errorf("failed to marshal signups: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write export file %s: %w", path, err)
	}
	return len(rows), nil
}
