package state

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// fakeGateway implements Gateway with overridable function fields. Any call
// without an override fails loudly so a test never silently exercises the
// wrong endpoint.
type fakeGateway struct {
	mu    sync.Mutex
	token string
	calls []string

	registerFn      func(api.Registration) (models.User, error)
	loginFn         func(api.Credentials) (api.LoginResult, error)
	listUsersFn     func() ([]models.User, error)
	listProjectsFn  func() ([]models.Project, error)
	getProjectFn    func(int64) (models.Project, error)
	createProjectFn func(api.ProjectCreate) (models.Project, error)
	deleteProjectFn func(int64) error
	createTaskFn    func(api.TaskCreate) (models.Task, error)
	updateTaskFn    func(int64, api.TaskUpdate) (models.Task, error)
	deleteTaskFn    func(int64) error
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeGateway) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeGateway) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeGateway) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func notImplemented(name string) *api.Error {
	return &api.Error{Reason: api.ReasonUnknown, Message: name + " not stubbed"}
}

func (f *fakeGateway) Register(_ context.Context, reg api.Registration) (models.User, error) {
	f.record("Register")
	if f.registerFn == nil {
		return models.User{}, notImplemented("Register")
	}
	return f.registerFn(reg)
}

func (f *fakeGateway) Login(_ context.Context, creds api.Credentials) (api.LoginResult, error) {
	f.record("Login")
	if f.loginFn == nil {
		return api.LoginResult{}, notImplemented("Login")
	}
	return f.loginFn(creds)
}

func (f *fakeGateway) ListUsers(context.Context) ([]models.User, error) {
	f.record("ListUsers")
	if f.listUsersFn == nil {
		return nil, notImplemented("ListUsers")
	}
	return f.listUsersFn()
}

func (f *fakeGateway) ListProjects(context.Context) ([]models.Project, error) {
	f.record("ListProjects")
	if f.listProjectsFn == nil {
		return nil, notImplemented("ListProjects")
	}
	return f.listProjectsFn()
}

func (f *fakeGateway) GetProject(_ context.Context, id int64) (models.Project, error) {
	f.record("GetProject")
	if f.getProjectFn == nil {
		return models.Project{}, notImplemented("GetProject")
	}
	return f.getProjectFn(id)
}

func (f *fakeGateway) CreateProject(_ context.Context, pc api.ProjectCreate) (models.Project, error) {
	f.record("CreateProject")
	if f.createProjectFn == nil {
		return models.Project{}, notImplemented("CreateProject")
	}
	return f.createProjectFn(pc)
}

func (f *fakeGateway) DeleteProject(_ context.Context, id int64) error {
	f.record("DeleteProject")
	if f.deleteProjectFn == nil {
		return notImplemented("DeleteProject")
	}
	return f.deleteProjectFn(id)
}

func (f *fakeGateway) CreateTask(_ context.Context, tc api.TaskCreate) (models.Task, error) {
	f.record("CreateTask")
	if f.createTaskFn == nil {
		return models.Task{}, notImplemented("CreateTask")
	}
	return f.createTaskFn(tc)
}

func (f *fakeGateway) UpdateTask(_ context.Context, id int64, tu api.TaskUpdate) (models.Task, error) {
	f.record("UpdateTask")
	if f.updateTaskFn == nil {
		return models.Task{}, notImplemented("UpdateTask")
	}
	return f.updateTaskFn(id, tu)
}

func (f *fakeGateway) DeleteTask(_ context.Context, id int64) error {
	f.record("DeleteTask")
	if f.deleteTaskFn == nil {
		return notImplemented("DeleteTask")
	}
	return f.deleteTaskFn(id)
}

func newTestStore(t *testing.T) (*Store, *fakeGateway) {
	t.Helper()
	gw := &fakeGateway{}
	return New(gw, zap.NewNop()), gw
}

// ============================================================
// Lifecycle
// ============================================================

func TestRunClearsLoadingAndErrorOnSuccess(t *testing.T) {
	s, gw := newTestStore(t)
	gw.listProjectsFn = func() ([]models.Project, error) {
		sc := s.Scope(ScopeProjects)
		if !sc.Loading {
			t.Error("expected projects scope to be loading while the call is in flight")
		}
		return []models.Project{{ID: 1, Name: "a"}}, nil
	}

	if _, err := s.FetchProjects(context.Background()); err != nil {
		t.Fatalf("FetchProjects: %v", err)
	}

	sc := s.Scope(ScopeProjects)
	if sc.Loading {
		t.Error("loading flag still set after completion")
	}
	if sc.Err != "" {
		t.Errorf("unexpected scope error %q", sc.Err)
	}
}

func TestRunRecordsErrorAndSkipsMerge(t *testing.T) {
	s, gw := newTestStore(t)
	gw.listProjectsFn = func() ([]models.Project, error) {
		return nil, &api.Error{Reason: api.ReasonNetwork, Message: "could not reach server"}
	}

	_, err := s.FetchProjects(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if api.ReasonOf(err) != api.ReasonNetwork {
		t.Errorf("expected network reason, got %q", api.ReasonOf(err))
	}

	sc := s.Scope(ScopeProjects)
	if sc.Loading {
		t.Error("loading flag still set after failure")
	}
	if sc.Err != "could not reach server" {
		t.Errorf("expected scope error message, got %q", sc.Err)
	}
	if got := s.Projects(); len(got) != 0 {
		t.Errorf("failed fetch must not touch the cache, got %d projects", len(got))
	}
}

func TestRunRetryAfterFailureClearsError(t *testing.T) {
	s, gw := newTestStore(t)
	fail := true
	gw.listProjectsFn = func() ([]models.Project, error) {
		if fail {
			return nil, &api.Error{Reason: api.ReasonUnknown, Message: "boom"}
		}
		return []models.Project{{ID: 7, Name: "retry"}}, nil
	}

	if _, err := s.FetchProjects(context.Background()); err == nil {
		t.Fatal("expected first fetch to fail")
	}
	fail = false
	if _, err := s.FetchProjects(context.Background()); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if sc := s.Scope(ScopeProjects); sc.Err != "" {
		t.Errorf("error not cleared by successful retry: %q", sc.Err)
	}
	if got := s.Projects(); len(got) != 1 || got[0].ID != 7 {
		t.Errorf("unexpected projects after retry: %+v", got)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	s, gw := newTestStore(t)
	gw.listProjectsFn = func() ([]models.Project, error) {
		return nil, &api.Error{Reason: api.ReasonUnknown, Message: "projects down"}
	}
	gw.listUsersFn = func() ([]models.User, error) {
		return []models.User{{ID: 1, Username: "alice"}}, nil
	}

	s.FetchProjects(context.Background())
	if _, err := s.FetchUsers(context.Background()); err != nil {
		t.Fatalf("FetchUsers: %v", err)
	}

	if sc := s.Scope(ScopeProjects); sc.Err == "" {
		t.Error("projects failure lost")
	}
	if sc := s.Scope(ScopeAuth); sc.Err != "" {
		t.Errorf("auth scope picked up a foreign error: %q", sc.Err)
	}
	if sc := s.Scope(ScopeTasks); sc.Err != "" || sc.Loading {
		t.Errorf("untouched tasks scope changed: %+v", sc)
	}
}

// Concurrent completions on one scope are last-write-wins for the flags; the
// lifecycle just has to end not-loading with both calls accounted for.
func TestConcurrentCallsOnOneScope(t *testing.T) {
	s, gw := newTestStore(t)
	release := make(chan struct{})
	gw.listProjectsFn = func() ([]models.Project, error) {
		<-release
		return []models.Project{{ID: 1}}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.FetchProjects(context.Background())
		}()
	}
	close(release)
	wg.Wait()

	if sc := s.Scope(ScopeProjects); sc.Loading {
		t.Error("scope still loading after both calls completed")
	}
	if gw.callCount("ListProjects") != 2 {
		t.Errorf("expected 2 gateway calls, got %d", gw.callCount("ListProjects"))
	}
}

// ============================================================
// Auth
// ============================================================

func TestLoginEstablishesSessionAndPushesToken(t *testing.T) {
	s, gw := newTestStore(t)
	gw.loginFn = func(creds api.Credentials) (api.LoginResult, error) {
		if creds.Username != "alice" || creds.Password != "secret" {
			t.Errorf("credentials not forwarded: %+v", creds)
		}
		return api.LoginResult{
			User:   models.User{ID: 3, Username: "alice"},
			Access: "tok-123",
		}, nil
	}

	user, err := s.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("unexpected user %+v", user)
	}

	sess := s.Session()
	if sess.Token != "tok-123" || sess.User == nil || sess.User.Username != "alice" {
		t.Errorf("session not established: %+v", sess)
	}
	if gw.Token() != "tok-123" {
		t.Errorf("token not pushed into gateway, got %q", gw.Token())
	}
}

func TestLoginFailureLeavesNoSession(t *testing.T) {
	s, gw := newTestStore(t)
	gw.loginFn = func(api.Credentials) (api.LoginResult, error) {
		return api.LoginResult{}, &api.Error{Reason: api.ReasonUnauthorized, Message: "bad credentials"}
	}

	if _, err := s.Login(context.Background(), "alice", "nope"); err == nil {
		t.Fatal("expected login to fail")
	}
	if sess := s.Session(); sess.Token != "" || sess.User != nil {
		t.Errorf("failed login left a session: %+v", sess)
	}
	if gw.Token() != "" {
		t.Errorf("failed login pushed a token: %q", gw.Token())
	}
	if sc := s.Scope(ScopeAuth); sc.Err != "bad credentials" {
		t.Errorf("auth scope error = %q", sc.Err)
	}
}

func TestRegisterValidatesBeforeCalling(t *testing.T) {
	s, gw := newTestStore(t)

	_, err := s.Register(context.Background(), "  ", "a@b.c", "pw")
	if api.ReasonOf(err) != api.ReasonValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.callCount("Register") != 0 {
		t.Error("client-side validation must not hit the gateway")
	}
	if sc := s.Scope(ScopeAuth); sc.Loading || sc.Err != "" {
		t.Errorf("validation failure must not touch the scope: %+v", sc)
	}
}

func TestRegisterDoesNotIssueToken(t *testing.T) {
	s, gw := newTestStore(t)
	gw.registerFn = func(reg api.Registration) (models.User, error) {
		return models.User{ID: 9, Username: reg.Username, Email: reg.Email}, nil
	}

	user, err := s.Register(context.Background(), "bob", "bob@x.io", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.ID != 9 {
		t.Errorf("unexpected user %+v", user)
	}

	sess := s.Session()
	if sess.Token != "" {
		t.Errorf("registration must not yield a token, got %q", sess.Token)
	}
	if sess.User == nil || sess.User.Username != "bob" {
		t.Errorf("registered user not cached: %+v", sess)
	}
}

func TestLogoutTearsDownEverything(t *testing.T) {
	s, gw := newTestStore(t)
	gw.loginFn = func(api.Credentials) (api.LoginResult, error) {
		return api.LoginResult{User: models.User{ID: 1}, Access: "tok"}, nil
	}
	gw.listProjectsFn = func() ([]models.Project, error) {
		return []models.Project{{ID: 1, Name: "p"}}, nil
	}
	gw.getProjectFn = func(id int64) (models.Project, error) {
		return models.Project{ID: id, Tasks: []models.Task{{ID: 10, Status: models.StatusToDo}}}, nil
	}

	s.Login(context.Background(), "a", "b")
	s.FetchProjects(context.Background())
	s.FetchProject(context.Background(), 1)

	s.Logout()

	if sess := s.Session(); sess.Token != "" || sess.User != nil {
		t.Errorf("session survived logout: %+v", sess)
	}
	if len(s.Projects()) != 0 {
		t.Error("projects survived logout")
	}
	if s.FocusedProject() != nil {
		t.Error("focused project survived logout")
	}
	if gw.Token() != "" {
		t.Errorf("gateway token not cleared: %q", gw.Token())
	}
	for _, name := range []ScopeName{ScopeAuth, ScopeProjects, ScopeTasks} {
		if sc := s.Scope(name); sc.Loading || sc.Err != "" {
			t.Errorf("scope %s not reset: %+v", name, sc)
		}
	}
}

func TestRestoreSessionPushesToken(t *testing.T) {
	s, gw := newTestStore(t)
	s.RestoreSession("persisted-tok")

	if sess := s.Session(); sess.Token != "persisted-tok" {
		t.Errorf("session token = %q", sess.Token)
	}
	if gw.Token() != "persisted-tok" {
		t.Errorf("gateway token = %q", gw.Token())
	}
}

// ============================================================
// Accessors hand out copies
// ============================================================

func TestFocusedProjectReturnsACopy(t *testing.T) {
	s, gw := newTestStore(t)
	gw.getProjectFn = func(id int64) (models.Project, error) {
		return models.Project{ID: id, Name: "p", Tasks: []models.Task{{ID: 1, Status: models.StatusToDo}}}, nil
	}
	s.FetchProject(context.Background(), 5)

	p := s.FocusedProject()
	p.Name = "mutated"
	p.Tasks[0].Status = models.StatusDone

	again := s.FocusedProject()
	if again.Name != "p" {
		t.Error("caller mutation leaked into the cached project")
	}
	if again.Tasks[0].Status != models.StatusToDo {
		t.Error("caller mutation leaked into cached tasks")
	}
}

func TestSessionReturnsACopyOfUser(t *testing.T) {
	s, gw := newTestStore(t)
	gw.loginFn = func(api.Credentials) (api.LoginResult, error) {
		return api.LoginResult{User: models.User{ID: 1, Username: "alice"}, Access: "t"}, nil
	}
	s.Login(context.Background(), "alice", "pw")

	sess := s.Session()
	sess.User.Username = "mallory"

	if got := s.Session(); got.User.Username != "alice" {
		t.Error("caller mutation leaked into the cached session user")
	}
}
