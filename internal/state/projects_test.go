package state

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

func TestFetchProjectsReplacesWholesale(t *testing.T) {
	s, gw := newTestStore(t)
	pages := [][]models.Project{
		{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}},
		{{ID: 2, Name: "two"}}, // project 1 deleted server-side
	}
	gw.listProjectsFn = func() ([]models.Project, error) {
		out := pages[0]
		if len(pages) > 1 {
			pages = pages[1:]
		}
		return out, nil
	}

	s.FetchProjects(context.Background())
	s.FetchProjects(context.Background())

	got := s.Projects()
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected the second response to replace the list, got %+v", got)
	}
}

func TestFetchProjectReplacesFocusWholesale(t *testing.T) {
	s, gw := newTestStore(t)
	responses := []models.Project{
		{ID: 1, Name: "p", Tasks: []models.Task{
			{ID: 10, Status: models.StatusToDo},
			{ID: 11, Status: models.StatusDone},
		}},
		{ID: 1, Name: "p", Tasks: []models.Task{
			{ID: 11, Status: models.StatusInProgress},
		}},
	}
	gw.getProjectFn = func(int64) (models.Project, error) {
		out := responses[0]
		if len(responses) > 1 {
			responses = responses[1:]
		}
		return out, nil
	}

	s.FetchProject(context.Background(), 1)
	s.FetchProject(context.Background(), 1)

	p := s.FocusedProject()
	if p == nil {
		t.Fatal("no focused project")
	}
	if len(p.Tasks) != 1 || p.Tasks[0].ID != 11 || p.Tasks[0].Status != models.StatusInProgress {
		t.Fatalf("expected exactly the second response's task set, got %+v", p.Tasks)
	}
}

func TestCreateProjectValidatesNameClientSide(t *testing.T) {
	s, gw := newTestStore(t)

	_, err := s.CreateProject(context.Background(), "   ", "desc", nil, 1)
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Reason != api.ReasonValidation || ae.Message != "Project name is required" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.callCount("CreateProject") != 0 {
		t.Error("validation failure must not reach the gateway")
	}
	if sc := s.Scope(ScopeProjects); sc.Loading || sc.Err != "" {
		t.Errorf("validation failure must not touch the scope: %+v", sc)
	}
}

func TestCreateProjectIncludesCreatorOnce(t *testing.T) {
	s, gw := newTestStore(t)
	var sent api.ProjectCreate
	gw.createProjectFn = func(pc api.ProjectCreate) (models.Project, error) {
		sent = pc
		return models.Project{ID: 5, Name: pc.Name}, nil
	}

	_, err := s.CreateProject(context.Background(), " Launch ", "  ", []int64{2, 3, 3, 1}, 1)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if sent.Name != "Launch" {
		t.Errorf("name not trimmed: %q", sent.Name)
	}
	want := []int64{2, 3, 1}
	if !reflect.DeepEqual(sent.TeamMembers, want) {
		t.Errorf("team members = %v, want %v (creator deduplicated)", sent.TeamMembers, want)
	}

	got := s.Projects()
	if len(got) != 1 || got[0].ID != 5 {
		t.Errorf("created project not appended: %+v", got)
	}
}

func TestCreateProjectAppendsCreatorWhenAbsent(t *testing.T) {
	s, gw := newTestStore(t)
	var sent api.ProjectCreate
	gw.createProjectFn = func(pc api.ProjectCreate) (models.Project, error) {
		sent = pc
		return models.Project{ID: 6, Name: pc.Name}, nil
	}

	if _, err := s.CreateProject(context.Background(), "x", "", []int64{4}, 9); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if !reflect.DeepEqual(sent.TeamMembers, []int64{4, 9}) {
		t.Errorf("creator not appended: %v", sent.TeamMembers)
	}
}

func TestDeleteProjectRemovesFromBothViews(t *testing.T) {
	s, gw := newTestStore(t)
	gw.listProjectsFn = func() ([]models.Project, error) {
		return []models.Project{{ID: 1}, {ID: 2}}, nil
	}
	gw.getProjectFn = func(id int64) (models.Project, error) {
		return models.Project{ID: id}, nil
	}
	gw.deleteProjectFn = func(int64) error { return nil }

	s.FetchProjects(context.Background())
	s.FetchProject(context.Background(), 2)

	if err := s.DeleteProject(context.Background(), 2); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	got := s.Projects()
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("collection view after delete: %+v", got)
	}
	if s.FocusedProject() != nil {
		t.Error("deleting the focused project must clear the focus view")
	}
}

func TestDeleteProjectFailureKeepsCache(t *testing.T) {
	s, gw := newTestStore(t)
	gw.listProjectsFn = func() ([]models.Project, error) {
		return []models.Project{{ID: 1}}, nil
	}
	gw.deleteProjectFn = func(int64) error {
		return &api.Error{Reason: api.ReasonNotFound, Message: "not found"}
	}

	s.FetchProjects(context.Background())
	if err := s.DeleteProject(context.Background(), 1); err == nil {
		t.Fatal("expected delete to fail")
	}
	if got := s.Projects(); len(got) != 1 {
		t.Errorf("failed delete removed the project anyway: %+v", got)
	}
}
