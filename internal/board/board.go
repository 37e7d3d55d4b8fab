// Package board derives the kanban view from cached tasks. Everything here
// is pure: same inputs, same board, and the input slice is never touched.
package board

import (
	"sort"
	"strings"

	"github.com/ayushimehta23/nextwave-tui/internal/models"
)

// FilterAll matches every value of a facet.
const FilterAll = "all"

// Filters narrows which tasks reach the board. A task passes only if it
// satisfies every facet; empty string is treated like FilterAll for the
// enum facets, and an empty Search matches everything.
type Filters struct {
	Status   string
	Priority string
	Assignee string // username
	Search   string // case-insensitive substring of the title
}

// DefaultFilters matches all tasks.
func DefaultFilters() Filters {
	return Filters{Status: FilterAll, Priority: FilterAll, Assignee: FilterAll}
}

// Column is one kanban lane, keyed by status.
type Column struct {
	Status models.Status
	Title  string
	Tasks  []models.Task
}

// Build partitions tasks into the to_do / in_progress / done columns.
// Each passing task lands in exactly the column matching its status; a task
// with an unknown status matches no column and is omitted. Within a column,
// tasks are ordered by priority (high before medium before low); ties keep
// their input order, since the sort is stable and there is no secondary key.
func Build(tasks []models.Task, f Filters) []Column {
	cols := make([]Column, len(models.Statuses))
	index := make(map[models.Status]int, len(models.Statuses))
	for i, st := range models.Statuses {
		cols[i] = Column{Status: st, Title: st.Label()}
		index[st] = i
	}

	for _, t := range tasks {
		if !matches(t, f) {
			continue
		}
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		cols[i].Tasks = append(cols[i].Tasks, t)
	}

	for i := range cols {
		ts := cols[i].Tasks
		sort.SliceStable(ts, func(a, b int) bool {
			return ts[a].Priority.Rank() < ts[b].Priority.Rank()
		})
	}
	return cols
}

func passes(facet, value string) bool {
	return facet == "" || facet == FilterAll || facet == value
}

func matches(t models.Task, f Filters) bool {
	if !passes(f.Status, string(t.Status)) {
		return false
	}
	if !passes(f.Priority, string(t.Priority)) {
		return false
	}
	if f.Assignee != "" && f.Assignee != FilterAll {
		if t.AssignedTo == nil || t.AssignedTo.Username != f.Assignee {
			return false
		}
	}
	if f.Search != "" {
		if !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}
