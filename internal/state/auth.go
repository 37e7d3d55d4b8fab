package state

import (
	"context"
	"strings"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// Login authenticates and establishes the session. The token is pushed into
// the gateway so every subsequent call carries it.
func (s *Store) Login(ctx context.Context, username, password string) (models.User, error) {
	res, err := run(s, ScopeAuth, func() (api.LoginResult, error) {
		return s.gw.Login(ctx, api.Credentials{Username: username, Password: password})
	}, func(r api.LoginResult) {
		u := r.User
		s.session = models.Session{User: &u, Token: r.Access}
	})
	if err != nil {
		return models.User{}, err
	}
	s.gw.SetToken(res.Access)
	return res.User, nil
}

// Register creates an account. The server does not issue a token on
// registration; the user logs in afterwards.
func (s *Store) Register(ctx context.Context, username, email, password string) (models.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return models.User{}, &api.Error{Reason: api.ReasonValidation, Message: "Username and password are required"}
	}
	return run(s, ScopeAuth, func() (models.User, error) {
		return s.gw.Register(ctx, api.Registration{Username: username, Email: email, Password: password})
	}, func(u models.User) {
		user := u
		s.session.User = &user
	})
}

// FetchUsers loads all registered users (team-member picker, assignee filter).
func (s *Store) FetchUsers(ctx context.Context) ([]models.User, error) {
	return run(s, ScopeAuth, func() ([]models.User, error) {
		return s.gw.ListUsers(ctx)
	}, func(users []models.User) {
		s.users = users
	})
}

// RestoreSession adopts a previously persisted token at startup. The user
// record stays unknown until the server fills it in on the next fetch.
func (s *Store) RestoreSession(token string) {
	s.mu.Lock()
	s.session = models.Session{Token: token}
	s.mu.Unlock()
	s.gw.SetToken(token)
}

// Logout tears down the session and resets every cached entity and scope.
func (s *Store) Logout() {
	s.mu.Lock()
	s.session = models.Session{}
	s.users = nil
	s.projects = nil
	s.project = nil
	s.confirmed = make(map[int64]models.Status)
	s.moveGen = make(map[int64]uint64)
	for _, sc := range s.scopes {
		*sc = Scope{}
	}
	s.mu.Unlock()
	s.gw.SetToken("")
}
