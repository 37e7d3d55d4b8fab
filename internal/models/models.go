package models

import "time"

// Status is the kanban column a task lives in. The values match the API's
// wire names.
type Status string

const (
	StatusToDo       Status = "to_do"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the human-readable column title.
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Priority is a task's urgency level.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the priorities from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities for board sorting: high sorts before medium sorts
// before low. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// User is a registered account. Immutable once fetched.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a unit of work inside a project. ProjectID never changes after
// creation; status moves through drag-and-drop on the board.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ProjectID   int64      `json:"project"`
	AssignedTo  *User      `json:"assigned_to"`
	Deadline    *time.Time `json:"deadline"`
	Comments    []Comment  `json:"comments"`
}

// Project groups tasks and team members. Tasks is only populated on a
// detail fetch; collection fetches return projects without task data.
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TeamMembers []User `json:"team_members"`
	Tasks       []Task `json:"tasks"`
}

// Session is the process-wide authenticated identity. Zero value means
// logged out.
type Session struct {
	User  *User
	Token string
}
