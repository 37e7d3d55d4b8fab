package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayushimehta23/nextwave-tui/internal/api"
	"github.com/ayushimehta23/nextwave-tui/internal/board"
	"github.com/ayushimehta23/nextwave-tui/internal/models"
	"github.com/ayushimehta23/nextwave-tui/internal/state"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/keys"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/styles"
)

// BackToProjects signals to go back to the project list.
type BackToProjects struct{}

type projectLoadedMsg struct{ err error }
type taskMovedMsg struct{ err error }
type taskCreatedMsg struct{ err error }
type taskDeletedMsg struct{ err error }

type boardSelection struct {
	col    int
	row    int
	taskID int64 // stable across re-sorts; preferred over row when present
}

// BoardView renders one project's tasks as kanban columns and owns the
// drag-to-column mutation and the board filters.
type BoardView struct {
	store   *state.Store
	project models.Project
	tasks   []models.Task
	columns []board.Column
	sel     boardSelection
	filters board.Filters
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int
	loaded bool

	searchInput   textinput.Model
	searchFocused bool

	creating bool
	form     *huh.Form
	formErr  string
	fTitle   *string
	fDesc    *string
	fStatus  *string
	fPrio    *string
	fAssign  *int64

	viewingTask bool

	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
}

func NewBoardView(store *state.Store, project models.Project) *BoardView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	title, desc, status, prio := "", "", string(models.StatusToDo), string(models.PriorityMedium)
	var assign int64
	return &BoardView{
		store:       store,
		project:     project,
		filters:     board.DefaultFilters(),
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
		fTitle:      &title,
		fDesc:       &desc,
		fStatus:     &status,
		fPrio:       &prio,
		fAssign:     &assign,
	}
}

func (v *BoardView) Init() tea.Cmd {
	return tea.Batch(v.loadProject, v.loadUsers)
}

func (v *BoardView) loadProject() tea.Msg {
	_, err := v.store.FetchProject(context.Background(), v.project.ID)
	return projectLoadedMsg{err: err}
}

func (v *BoardView) loadUsers() tea.Msg {
	_, err := v.store.FetchUsers(context.Background())
	return usersLoadedMsg{err: err}
}

// syncFromStore mirrors the focus view into the model and rebuilds the
// columns through the projection engine.
func (v *BoardView) syncFromStore() {
	if p := v.store.FocusedProject(); p != nil && p.ID == v.project.ID {
		v.project = *p
		v.tasks = p.Tasks
	}
	v.rebuild()
}

func (v *BoardView) rebuild() {
	v.filters.Search = strings.TrimSpace(v.searchInput.Value())
	v.columns = board.Build(v.tasks, v.filters)
	v.clampSelection()
	v.loaded = true
}

func (v *BoardView) clampSelection() {
	// Prefer following the selected card wherever the rebuild put it.
	if v.sel.taskID != 0 {
		for ci := range v.columns {
			for ri := range v.columns[ci].Tasks {
				if v.columns[ci].Tasks[ri].ID == v.sel.taskID {
					v.sel.col, v.sel.row = ci, ri
					return
				}
			}
		}
		v.sel.taskID = 0
	}

	v.sel.col = clamp(v.sel.col, 0, len(v.columns)-1)
	n := len(v.columns[v.sel.col].Tasks)
	if n == 0 {
		v.sel.row = 0
		return
	}
	v.sel.row = clamp(v.sel.row, 0, n-1)
	v.sel.taskID = v.columns[v.sel.col].Tasks[v.sel.row].ID
}

func (v *BoardView) selectedTask() (models.Task, bool) {
	if v.sel.col >= len(v.columns) {
		return models.Task{}, false
	}
	col := v.columns[v.sel.col]
	if v.sel.row >= len(col.Tasks) {
		return models.Task{}, false
	}
	return col.Tasks[v.sel.row], true
}

// moveSelected applies the drag optimistically to the local mirror (so the
// card appears in its new column on this very frame) and commits through the
// store pipeline, which handles rollback.
func (v *BoardView) moveSelected(dir int) (tea.Model, tea.Cmd) {
	task, ok := v.selectedTask()
	if !ok {
		return v, nil
	}
	target := v.sel.col + dir
	if target < 0 || target >= len(v.columns) {
		return v, nil
	}
	to := v.columns[target].Status
	if to == task.Status {
		return v, nil
	}

	for i := range v.tasks {
		if v.tasks[i].ID == task.ID {
			v.tasks[i].Status = to
		}
	}
	v.sel.taskID = task.ID
	v.rebuild()

	id := task.ID
	return v, func() tea.Msg {
		return taskMovedMsg{err: v.store.MoveTask(context.Background(), id, to)}
	}
}

func (v *BoardView) showCreateForm() tea.Cmd {
	*v.fTitle = ""
	*v.fDesc = ""
	*v.fStatus = string(models.StatusToDo)
	*v.fPrio = string(models.PriorityMedium)
	*v.fAssign = 0
	v.formErr = ""

	statusOptions := make([]huh.Option[string], len(models.Statuses))
	for i, st := range models.Statuses {
		statusOptions[i] = huh.NewOption(st.Label(), string(st))
	}
	prioOptions := make([]huh.Option[string], len(models.Priorities))
	for i, p := range models.Priorities {
		prioOptions[i] = huh.NewOption(string(p), string(p))
	}
	assignOptions := []huh.Option[int64]{huh.NewOption("Unassigned", int64(0))}
	for _, u := range v.store.Users() {
		assignOptions = append(assignOptions, huh.NewOption(u.Username, u.ID))
	}

	v.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(v.fTitle),
			huh.NewInput().Title("Description").Value(v.fDesc),
			huh.NewSelect[string]().Title("Status").Options(statusOptions...).Value(v.fStatus),
			huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(v.fPrio),
			huh.NewSelect[int64]().Title("Assignee").Options(assignOptions...).Value(v.fAssign),
		),
	).WithShowHelp(true).WithShowErrors(true)

	v.creating = true
	return v.form.Init()
}

func (v *BoardView) createTask() tea.Cmd {
	tc := api.TaskCreate{
		Title:       *v.fTitle,
		Description: *v.fDesc,
		Status:      models.Status(*v.fStatus),
		Priority:    models.Priority(*v.fPrio),
		Project:     v.project.ID,
	}
	if *v.fAssign != 0 {
		id := *v.fAssign
		tc.AssignedTo = &id
	}
	return func() tea.Msg {
		_, err := v.store.CreateTask(context.Background(), tc)
		return taskCreatedMsg{err: err}
	}
}

func (v *BoardView) deleteTask(id int64) tea.Cmd {
	return func() tea.Msg {
		return taskDeletedMsg{err: v.store.DeleteTask(context.Background(), id)}
	}
}

func (v *BoardView) cycleStatusFilter() {
	order := []string{board.FilterAll, string(models.StatusToDo), string(models.StatusInProgress), string(models.StatusDone)}
	v.filters.Status = cycle(order, v.filters.Status)
	v.rebuild()
}

func (v *BoardView) cyclePriorityFilter() {
	order := []string{board.FilterAll, string(models.PriorityHigh), string(models.PriorityMedium), string(models.PriorityLow)}
	v.filters.Priority = cycle(order, v.filters.Priority)
	v.rebuild()
}

func (v *BoardView) cycleAssigneeFilter() {
	order := []string{board.FilterAll}
	for _, u := range v.project.TeamMembers {
		order = append(order, u.Username)
	}
	v.filters.Assignee = cycle(order, v.filters.Assignee)
	v.rebuild()
}

func cycle(order []string, current string) string {
	for i, val := range order {
		if val == current {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case projectLoadedMsg, taskMovedMsg, taskCreatedMsg, taskDeletedMsg:
		// Whatever the outcome, the store holds the reconciled truth now
		// (committed, rolled back, or refreshed); mirror it.
		v.syncFromStore()
		if m, ok := msg.(taskCreatedMsg); ok {
			if m.err != nil {
				v.formErr = m.err.Error()
			} else {
				v.creating = false
			}
		}
		return v, nil

	case usersLoadedMsg:
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.viewingTask {
			v.viewingTask = false
			return v, nil
		}
		if v.searchFocused {
			return v.updateSearch(msg)
		}
		return v.updateBoard(msg)
	}
	return v, nil
}

func (v *BoardView) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }
	case key.Matches(msg, v.keys.Refresh):
		return v, v.loadProject
	case key.Matches(msg, v.keys.Search):
		v.searchFocused = true
		v.searchInput.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.New):
		return v, tea.Batch(v.showCreateForm(), v.loadUsers)
	case key.Matches(msg, v.keys.Enter):
		if _, ok := v.selectedTask(); ok {
			v.viewingTask = true
		}
		return v, nil
	case key.Matches(msg, v.keys.Delete):
		if task, ok := v.selectedTask(); ok {
			v.confirmingDelete = true
			v.deleteTargetID = task.ID
			v.deleteTargetName = task.Title
		}
		return v, nil
	case key.Matches(msg, v.keys.MoveLeft):
		return v.moveSelected(-1)
	case key.Matches(msg, v.keys.MoveRight):
		return v.moveSelected(1)
	case key.Matches(msg, v.keys.Left):
		if v.sel.col > 0 {
			v.sel.col--
			v.sel.row = 0
			v.sel.taskID = 0
			v.clampSelection()
		}
		return v, nil
	case key.Matches(msg, v.keys.Right):
		if v.sel.col < len(v.columns)-1 {
			v.sel.col++
			v.sel.row = 0
			v.sel.taskID = 0
			v.clampSelection()
		}
		return v, nil
	case key.Matches(msg, v.keys.Up):
		if v.sel.row > 0 {
			v.sel.row--
			v.sel.taskID = 0
			v.clampSelection()
		}
		return v, nil
	case key.Matches(msg, v.keys.Down):
		v.sel.row++
		v.sel.taskID = 0
		v.clampSelection()
		return v, nil
	case msg.String() == "s":
		v.cycleStatusFilter()
		return v, nil
	case msg.String() == "p":
		v.cyclePriorityFilter()
		return v, nil
	case msg.String() == "a":
		v.cycleAssigneeFilter()
		return v, nil
	}
	return v, nil
}

func (v *BoardView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.searchFocused = false
		v.searchInput.Blur()
		v.searchInput.Reset()
		v.rebuild()
		return v, nil
	case "enter":
		v.searchFocused = false
		v.searchInput.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.rebuild()
	return v, cmd
}

func (v *BoardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.deleteTask(v.deleteTargetID)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *BoardView) updateCreating(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		v.creating = false
		return v, nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	if v.form.State == huh.StateCompleted {
		return v, v.createTask()
	}
	return v, cmd
}

func (v *BoardView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if v.viewingTask {
		return v.renderTaskDetail()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading board...")
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	header := s.Title.Render(v.project.Name) + s.TitleMuted.Render("  kanban")
	filterBar := v.renderFilterBar(contentWidth)

	rows := []string{header}
	if detail := v.renderProjectDetail(contentWidth); detail != "" {
		rows = append(rows, detail)
	}
	rows = append(rows, filterBar)

	tasksScope := v.store.Scope(state.ScopeTasks)
	if tasksScope.Err != "" {
		rows = append(rows, s.ErrorBar.Render(tasksScope.Err))
	}

	colHeight := v.height - lipgloss.Height(strings.Join(rows, "\n")) - 4
	rows = append(rows, v.renderColumns(contentWidth, colHeight), v.renderHelp())

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(content, v.width, v.height)
}

func (v *BoardView) renderProjectDetail(width int) string {
	parts := []string{}
	if v.project.Description != "" {
		parts = append(parts, v.project.Description)
	}
	if len(v.project.TeamMembers) > 0 {
		names := make([]string, len(v.project.TeamMembers))
		for i, u := range v.project.TeamMembers {
			names[i] = u.Username
		}
		parts = append(parts, "team: "+strings.Join(names, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return v.styles.TitleMuted.Render(truncate(strings.Join(parts, " · "), width))
}

func (v *BoardView) renderFilterBar(width int) string {
	s := v.styles
	search := v.searchInput.View()
	if !v.searchFocused && v.searchInput.Value() == "" {
		search = s.TitleMuted.Render("/ to search")
	}
	parts := []string{
		fmt.Sprintf("status:%s", v.filters.Status),
		fmt.Sprintf("priority:%s", v.filters.Priority),
		fmt.Sprintf("assignee:%s", v.filters.Assignee),
		search,
	}
	return s.FilterBar.Width(width - 2).Render(strings.Join(parts, "  "))
}

func (v *BoardView) renderColumns(width, height int) string {
	s := v.styles
	n := len(v.columns)
	if n == 0 {
		return ""
	}

	gap := 2
	colW := max((width-gap*(n-1))/n, 16)

	rendered := make([]string, 0, n)
	for ci, col := range v.columns {
		head := fmt.Sprintf("%s (%d)", col.Title, len(col.Tasks))
		hs := s.ColumnHeader
		if ci == v.sel.col {
			hs = s.ColumnHeaderActive
		}
		lines := []string{hs.Width(colW).Render(head)}

		if len(col.Tasks) == 0 {
			lines = append(lines, s.TitleMuted.Render("(empty)"))
		}
		for ri, task := range col.Tasks {
			lines = append(lines, v.renderCard(task, colW, ci == v.sel.col && ri == v.sel.row))
		}

		colView := lipgloss.JoinVertical(lipgloss.Left, lines...)
		rendered = append(rendered, lipgloss.NewStyle().Width(colW).Height(height).Render(colView))
	}

	out := rendered[0]
	sep := strings.Repeat(" ", gap)
	for i := 1; i < len(rendered); i++ {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, sep, rendered[i])
	}
	return out
}

func (v *BoardView) renderCard(task models.Task, colW int, selected bool) string {
	s := v.styles
	innerW := colW - 4

	titleStyle := lipgloss.NewStyle().Foreground(styles.PriorityColor(task.Priority)).Bold(true)
	title := titleStyle.Render(styles.PriorityGlyph(task.Priority) + " " + truncate(task.Title, innerW-2))

	assignee := "Unassigned"
	if task.AssignedTo != nil {
		assignee = task.AssignedTo.Username
	}

	body := []string{title}
	if task.Description != "" {
		body = append(body, s.TitleMuted.Render(truncate(task.Description, innerW)))
	}
	body = append(body, s.TitleMuted.Render("@ "+assignee))

	card := s.Card
	if selected {
		card = s.CardSelected
	}
	return card.Width(colW - 2).Render(strings.Join(body, "\n"))
}

func (v *BoardView) renderTaskDetail() string {
	s := v.styles
	task, ok := v.selectedTask()
	if !ok {
		return ""
	}

	assignee := "Unassigned"
	if task.AssignedTo != nil {
		assignee = task.AssignedTo.Username
	}

	lines := []string{
		s.Title.Render(task.Title),
		"",
		task.Description,
		"",
		s.TitleMuted.Render(fmt.Sprintf("Status: %s • Priority: %s • Assigned to: %s",
			task.Status.Label(), task.Priority, assignee)),
	}
	if task.Deadline != nil {
		lines = append(lines, s.TitleMuted.Render("Deadline: "+task.Deadline.Format("2006-01-02")))
	}
	if len(task.Comments) > 0 {
		lines = append(lines, "", s.Title.Render("Comments"))
		for _, c := range task.Comments {
			lines = append(lines,
				s.HelpKey.Render(c.User)+s.TitleMuted.Render(" · "+c.CreatedAt.Format("Jan 2 15:04")),
				c.Text,
				"")
		}
	}
	lines = append(lines, "", s.TitleMuted.Render("Press any key to close"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	boxed := s.FilterBar.Render(content)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, boxed)
}

func (v *BoardView) renderCreateForm() string {
	s := v.styles
	lines := []string{
		s.Title.Render("New Task"),
		"",
		v.form.View(),
	}
	if v.formErr != "" {
		lines = append(lines, s.ErrorBar.Render(v.formErr))
	}
	lines = append(lines, "", s.TitleMuted.Render("Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}

func (v *BoardView) renderDeleteConfirm() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}

func (v *BoardView) renderHelp() string {
	s := v.styles
	return s.Help.Render(
		fmt.Sprintf("%s move card • %s navigate • %s filters • %s search • %s new • %s del • %s back",
			s.HelpKey.Render("H/L"),
			s.HelpKey.Render("←↓↑→"),
			s.HelpKey.Render("s/p/a"),
			s.HelpKey.Render("/"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("esc"),
		),
	)
}

func truncate(s string, w int) string {
	if w <= 0 || len(s) <= w {
		return s
	}
	if w <= 1 {
		return "…"
	}
	return s[:w-1] + "…"
}
