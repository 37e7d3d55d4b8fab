// Package state owns the client-side entity cache and the lifecycle of every
// remote operation. All entities come from server responses; the only
// speculative writes are optimistic task moves, which are rolled back if the
// server rejects them.
package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// Gateway is the remote API surface the store drives. *api.Client satisfies
// it; tests substitute a fake.
type Gateway interface {
	SetToken(token string)
	Register(ctx context.Context, reg api.Registration) (models.User, error)
	Login(ctx context.Context, creds api.Credentials) (api.LoginResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
	CreateProject(ctx context.Context, pc api.ProjectCreate) (models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, tc api.TaskCreate) (models.Task, error)
	UpdateTask(ctx context.Context, id int64, tu api.TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// ScopeName identifies which slice of client state owns a loading/error pair.
type ScopeName string

const (
	ScopeAuth     ScopeName = "auth"
	ScopeProjects ScopeName = "projects"
	ScopeTasks    ScopeName = "tasks"
)

// Scope holds the loading/error flags for one slice of state. Err is "" when
// the scope's last operation succeeded or none has run yet.
type Scope struct {
	Loading bool
	Err     string
}

// Store is the single shared mutable resource of the client. Entities are
// written only by the lifecycle merge step and the optimistic move pipeline;
// reads hand out copies and never observe a half-applied merge.
type Store struct {
	gw  Gateway
	log *zap.Logger

	mu     sync.RWMutex
	scopes map[ScopeName]*Scope

	session models.Session
	users   []models.User

	projects []models.Project // collection view
	project  *models.Project  // focus view, with nested tasks

	// confirmed tracks the last server-confirmed status per task; it is the
	// rollback target for failed optimistic moves. moveGen counts optimistic
	// moves per task so a stale failure never clobbers a newer move.
	confirmed map[int64]models.Status
	moveGen   map[int64]uint64
}

func New(gw Gateway, log *zap.Logger) *Store {
	return &Store{
		gw:  gw,
		log: log,
		scopes: map[ScopeName]*Scope{
			ScopeAuth:     {},
			ScopeProjects: {},
			ScopeTasks:    {},
		},
		confirmed: make(map[int64]models.Status),
		moveGen:   make(map[int64]uint64),
	}
}

// run wraps a gateway call with the scope's loading/error lifecycle: flags up
// front, merge into the cache on success, error recorded (and nothing cached)
// on failure. The error is also returned so callers can branch on it; it
// never escapes as a panic.
//
// Concurrent calls on one scope are allowed. The flags are last-write-wins:
// whichever call completes last owns them. Scopes are independent, so a
// project-list fetch and a task mutation never touch each other's flags.
func run[T any](s *Store, scope ScopeName, op func() (T, error), merge func(T)) (T, error) {
	s.mu.Lock()
	sc := s.scopes[scope]
	sc.Loading = true
	sc.Err = ""
	s.mu.Unlock()

	v, err := op()

	s.mu.Lock()
	defer s.mu.Unlock()
	sc.Loading = false
	if err != nil {
		sc.Err = err.Error()
		s.log.Warn("operation failed",
			zap.String("scope", string(scope)),
			zap.String("reason", string(api.ReasonOf(err))),
			zap.Error(err))
		return v, err
	}
	sc.Err = ""
	if merge != nil {
		merge(v)
	}
	return v, nil
}

// Scope returns a copy of the named scope's flags.
func (s *Store) Scope(name ScopeName) Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.scopes[name]
}

// Session returns the current authenticated identity.
func (s *Store) Session() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess := s.session
	if s.session.User != nil {
		u := *s.session.User
		sess.User = &u
	}
	return sess
}

// Users returns the cached user list.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// Projects returns the collection view: all projects from the last list
// fetch, without task data.
func (s *Store) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// FocusedProject returns the focus view: the last detail fetch, including
// nested tasks, or nil when no project is focused.
func (s *Store) FocusedProject() *models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyFocusedLocked()
}

func (s *Store) copyFocusedLocked() *models.Project {
	if s.project == nil {
		return nil
	}
	p := *s.project
	p.Tasks = make([]models.Task, len(s.project.Tasks))
	copy(p.Tasks, s.project.Tasks)
	p.TeamMembers = make([]models.User, len(s.project.TeamMembers))
	copy(p.TeamMembers, s.project.TeamMembers)
	return &p
}

// setTaskStatusLocked rewrites a task's status wherever the task appears:
// the focus view's nested tasks and any project in the collection view that
// happens to carry task data.
func (s *Store) setTaskStatusLocked(taskID int64, status models.Status) {
	if s.project != nil {
		for i := range s.project.Tasks {
			if s.project.Tasks[i].ID == taskID {
				s.project.Tasks[i].Status = status
			}
		}
	}
	for pi := range s.projects {
		for ti := range s.projects[pi].Tasks {
			if s.projects[pi].Tasks[ti].ID == taskID {
				s.projects[pi].Tasks[ti].Status = status
			}
		}
	}
}

// replaceTaskLocked swaps in the server's authoritative record, matched by
// id, in both views.
func (s *Store) replaceTaskLocked(t models.Task) {
	if s.project != nil {
		for i := range s.project.Tasks {
			if s.project.Tasks[i].ID == t.ID {
				s.project.Tasks[i] = t
			}
		}
	}
	for pi := range s.projects {
		for ti := range s.projects[pi].Tasks {
			if s.projects[pi].Tasks[ti].ID == t.ID {
				s.projects[pi].Tasks[ti] = t
			}
		}
	}
}

// removeTaskLocked drops a task from both views.
func (s *Store) removeTaskLocked(taskID int64) {
	if s.project != nil {
		s.project.Tasks = dropTask(s.project.Tasks, taskID)
	}
	for pi := range s.projects {
		s.projects[pi].Tasks = dropTask(s.projects[pi].Tasks, taskID)
	}
	delete(s.confirmed, taskID)
	delete(s.moveGen, taskID)
}

func dropTask(tasks []models.Task, id int64) []models.Task {
	out := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// taskStatusLocked looks up a task's cached status, preferring the focus view.
func (s *Store) taskStatusLocked(taskID int64) (models.Status, bool) {
	if s.project != nil {
		for i := range s.project.Tasks {
			if s.project.Tasks[i].ID == taskID {
				return s.project.Tasks[i].Status, true
			}
		}
	}
	for pi := range s.projects {
		for ti := range s.projects[pi].Tasks {
			if s.projects[pi].Tasks[ti].ID == taskID {
				return s.projects[pi].Tasks[ti].Status, true
			}
		}
	}
	return "", false
}
