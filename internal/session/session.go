package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const tokenKey = "session_token"

// Store is the durable client-side storage: a sqlite settings table holding
// the session token and nothing else. Entities are never persisted.
type Store struct {
	db *sql.DB
}

// Open creates the store at the default data path.
func Open() (*Store, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(dir, "nextwave.db"))
}

// OpenPath opens (or creates) the store at path.
func OpenPath(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session db: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory creates an in-memory store for testing.
func OpenMemory() (*Store, error) {
	return OpenPath(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the app's data directory, creating it if needed. Uses the
// XDG data directory or falls back to the home directory.
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	appDir := filepath.Join(dataDir, "nextwave")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return appDir, nil
}

// Token returns the stored session token, or "" when logged out.
func (s *Store) Token() (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", tokenKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveToken persists the session token across restarts.
func (s *Store) SaveToken(token string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, tokenKey, token)
	return err
}

// ClearToken removes the stored token (logout).
func (s *Store) ClearToken() error {
	_, err := s.db.Exec("DELETE FROM settings WHERE key = ?", tokenKey)
	return err
}

// TokenUsable reports whether a stored JWT is worth reusing at startup. The
// claims are read without signature verification; the server still authorizes
// every call, this only avoids starting a session with a token that is
// already expired. Tokens without an exp claim pass.
func TokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		return true
	}
	return now.Before(exp.Time)
}
