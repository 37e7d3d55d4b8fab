package state

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// CreateTask validates and creates a task in its project. On success the
// task is appended to the focused project's nested tasks when that project
// is in focus.
func (s *Store) CreateTask(ctx context.Context, tc api.TaskCreate) (models.Task, error) {
	if strings.TrimSpace(tc.Title) == "" {
		return models.Task{}, &api.Error{Reason: api.ReasonValidation, Message: "Task title is required"}
	}
	if !tc.Status.Valid() {
		tc.Status = models.StatusToDo
	}
	return run(s, ScopeTasks, func() (models.Task, error) {
		return s.gw.CreateTask(ctx, tc)
	}, func(t models.Task) {
		if s.project != nil && s.project.ID == t.ProjectID {
			s.project.Tasks = append(s.project.Tasks, t)
		}
		s.confirmed[t.ID] = t.Status
	})
}

// DeleteTask removes a task server-side and then from every view.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	_, err := run(s, ScopeTasks, func() (int64, error) {
		return id, s.gw.DeleteTask(ctx, id)
	}, func(deleted int64) {
		s.removeTaskLocked(deleted)
	})
	return err
}

// MoveTask is the optimistic status-change pipeline behind dragging a card
// to another column:
//
//  1. no-op when the task is already in the target column
//  2. rewrite the cached status immediately so the board re-renders with
//     zero latency
//  3. commit remotely under the tasks scope
//  4. on success, adopt the server's record (authoritative even where it
//     differs from the optimistic value) and refresh the focused project to
//     pick up server-side effects; on failure, roll back and return the
//     classified error so the card snaps back
//
// Rollback restores the last status the server confirmed, never a value a
// newer optimistic move has since superseded: each move bumps the task's
// generation, and a completing move only touches the cached status if no
// later move outranks it. A task deleted concurrently server-side comes
// back as not_found and rolls back like any other failure.
func (s *Store) MoveTask(ctx context.Context, taskID int64, to models.Status) error {
	if !to.Valid() {
		return &api.Error{Reason: api.ReasonValidation, Message: "unknown status"}
	}

	s.mu.Lock()
	cur, ok := s.taskStatusLocked(taskID)
	if !ok {
		s.mu.Unlock()
		return &api.Error{Reason: api.ReasonNotFound, Message: "task is not loaded"}
	}
	if cur == to {
		s.mu.Unlock()
		return nil
	}
	if _, seen := s.confirmed[taskID]; !seen {
		s.confirmed[taskID] = cur
	}
	s.moveGen[taskID]++
	gen := s.moveGen[taskID]
	s.setTaskStatusLocked(taskID, to)
	s.mu.Unlock()

	status := to
	_, err := run(s, ScopeTasks, func() (models.Task, error) {
		return s.gw.UpdateTask(ctx, taskID, api.TaskUpdate{Status: &status})
	}, func(t models.Task) {
		s.confirmed[t.ID] = t.Status
		if s.moveGen[taskID] == gen {
			s.replaceTaskLocked(t)
		}
	})
	if err != nil {
		s.mu.Lock()
		if s.moveGen[taskID] == gen {
			s.setTaskStatusLocked(taskID, s.confirmed[taskID])
		}
		s.mu.Unlock()
		return err
	}

	// Server-side effects (derived counts, reordered collections) land via a
	// detail refresh. Its failure is logged but does not undo the move the
	// server already accepted.
	s.mu.RLock()
	var focusID int64
	if s.project != nil {
		focusID = s.project.ID
	}
	s.mu.RUnlock()
	if focusID != 0 {
		if _, ferr := s.FetchProject(ctx, focusID); ferr != nil {
			s.log.Warn("project refresh after move failed",
				zap.Int64("project_id", focusID),
				zap.Error(ferr))
		}
	}
	return nil
}
