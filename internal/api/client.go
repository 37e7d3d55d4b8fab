package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// Client talks to the NextWave REST API. Every call attaches the current
// session token when one is set; a missing token is not an error here, as the
// server is the authority on what needs authentication.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.Logger

	mu    sync.RWMutex
	token string
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken replaces the bearer token attached to subsequent calls. An empty
// token means unauthenticated.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Credentials is a login request. Username may also be an email address.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is a new-account request.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the server's response to login: the account plus a bearer
// token for subsequent calls.
type LoginResult struct {
	User   models.User `json:"user"`
	Access string      `json:"access"`
}

type registerResult struct {
	User models.User `json:"user"`
}

// ProjectCreate is a new-project payload.
type ProjectCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TeamMembers []int64 `json:"team_members"`
}

// TaskCreate is a new-task payload. AssignedTo is a user id; nil means
// unassigned.
type TaskCreate struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
	Project     int64           `json:"project"`
	AssignedTo  *int64          `json:"assigned_to"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
}

// TaskUpdate is a partial task payload; only set fields are sent.
type TaskUpdate struct {
	Status     *models.Status `json:"status,omitempty"`
	AssignedTo *int64         `json:"assigned_to,omitempty"`
}

func (c *Client) Register(ctx context.Context, reg Registration) (models.User, error) {
	var res registerResult
	err := c.do(ctx, http.MethodPost, "/register/", reg, &res)
	return res.User, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/login/", creds, &res)
	return res, err
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/users/", nil, &users)
	return users, err
}

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := c.do(ctx, http.MethodGet, "/projects/", nil, &projects)
	return projects, err
}

func (c *Client) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var project models.Project
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/", id), nil, &project)
	return project, err
}

func (c *Client) CreateProject(ctx context.Context, pc ProjectCreate) (models.Project, error) {
	var project models.Project
	err := c.do(ctx, http.MethodPost, "/projects/", pc, &project)
	return project, err
}

func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d/", id), nil, nil)
}

func (c *Client) CreateTask(ctx context.Context, tc TaskCreate) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/tasks/", tc.Project), tc, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, tu TaskUpdate) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/update-status/", id), tu, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d/", id), nil, nil)
}

// do runs one round trip and decodes the response into out (when non-nil).
// Failures always come back as *Error so callers can branch on the reason.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return &Error{Reason: ReasonUnknown, Message: err.Error()}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Reason: ReasonUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		cerr := classifyTransport(err)
		c.logger.Warn("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("reason", string(cerr.Reason)),
			zap.Error(err))
		return cerr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Reason: ReasonNetwork, Message: "response cut short"}
	}

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode, string(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Reason: ReasonUnknown, Message: "malformed server response"}
		}
	}
	return nil
}
