package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestTokenRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if tok, err := s.Token(); err != nil || tok != "" {
		t.Fatalf("fresh store: token=%q err=%v", tok, err)
	}

	if err := s.SaveToken("tok-1"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if tok, _ := s.Token(); tok != "tok-1" {
		t.Errorf("token = %q", tok)
	}

	// Overwrite, not append.
	if err := s.SaveToken("tok-2"); err != nil {
		t.Fatalf("second SaveToken: %v", err)
	}
	if tok, _ := s.Token(); tok != "tok-2" {
		t.Errorf("token after overwrite = %q", tok)
	}
}

func TestClearToken(t *testing.T) {
	s := newTestStore(t)
	s.SaveToken("tok")

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if tok, err := s.Token(); err != nil || tok != "" {
		t.Errorf("after clear: token=%q err=%v", tok, err)
	}

	// Clearing an already-empty store is fine.
	if err := s.ClearToken(); err != nil {
		t.Errorf("second ClearToken: %v", err)
	}
}

func TestTokenSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	s.SaveToken("persisted")
	s.Close()

	s2, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer s2.Close()
	if tok, _ := s2.Token(); tok != "persisted" {
		t.Errorf("token after reopen = %q", tok)
	}
}

func TestTokenUsable(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"empty", "", false},
		{"garbage", "not-a-jwt", false},
		{"expired", signedToken(t, jwt.MapClaims{"exp": now.Add(-time.Hour).Unix()}), false},
		{"valid", signedToken(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()}), true},
		{"no expiry claim", signedToken(t, jwt.MapClaims{"sub": "3"}), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TokenUsable(tc.token, now); got != tc.want {
				t.Errorf("TokenUsable = %v, want %v", got, tc.want)
			}
		})
	}
}
