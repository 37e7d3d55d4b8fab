package state

import (
	"context"
	"strings"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// FetchProjects loads the collection view. The previous list is replaced
// wholesale, so a project deleted server-side disappears here.
func (s *Store) FetchProjects(ctx context.Context) ([]models.Project, error) {
	return run(s, ScopeProjects, func() ([]models.Project, error) {
		return s.gw.ListProjects(ctx)
	}, func(projects []models.Project) {
		s.projects = projects
	})
}

// FetchProject loads the focus view: one project with nested tasks and team
// members, replaced wholesale. The server response also resets the
// last-confirmed status of every task it carries.
func (s *Store) FetchProject(ctx context.Context, id int64) (models.Project, error) {
	return run(s, ScopeProjects, func() (models.Project, error) {
		return s.gw.GetProject(ctx, id)
	}, func(p models.Project) {
		s.project = &p
		for _, t := range p.Tasks {
			s.confirmed[t.ID] = t.Status
		}
	})
}

// CreateProject validates and creates a project. The creator is always a
// team member, deduplicated. An empty name fails client-side: no remote
// call, no pending state, no cache mutation.
func (s *Store) CreateProject(ctx context.Context, name, description string, teamMembers []int64, creatorID int64) (models.Project, error) {
	if strings.TrimSpace(name) == "" {
		return models.Project{}, &api.Error{Reason: api.ReasonValidation, Message: "Project name is required"}
	}

	members := dedupeIDs(teamMembers, creatorID)
	return run(s, ScopeProjects, func() (models.Project, error) {
		return s.gw.CreateProject(ctx, api.ProjectCreate{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(description),
			TeamMembers: members,
		})
	}, func(p models.Project) {
		s.projects = append(s.projects, p)
	})
}

// DeleteProject removes a project server-side, then from the collection view
// and, if it was focused, the focus view.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	_, err := run(s, ScopeProjects, func() (int64, error) {
		return id, s.gw.DeleteProject(ctx, id)
	}, func(deleted int64) {
		kept := s.projects[:0]
		for _, p := range s.projects {
			if p.ID != deleted {
				kept = append(kept, p)
			}
		}
		s.projects = kept
		if s.project != nil && s.project.ID == deleted {
			s.project = nil
		}
	})
	return err
}

func dedupeIDs(ids []int64, extra int64) []int64 {
	seen := make(map[int64]bool, len(ids)+1)
	out := make([]int64, 0, len(ids)+1)
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if extra != 0 && !seen[extra] {
		out = append(out, extra)
	}
	return out
}
