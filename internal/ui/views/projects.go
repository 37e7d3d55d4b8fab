package views

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayushimehta23/nextwave-tui/internal/models"
	"github.com/ayushimehta23/nextwave-tui/internal/state"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/keys"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return i.project.Description }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	title := titleStyle.Render(p.Title())
	desc := descStyle.Render(fmt.Sprintf("%s · %d members", p.Description(), len(p.project.TeamMembers)))

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// SelectedProject signals that a project should be opened on the board.
type SelectedProject struct {
	Project models.Project
}

// LoggedOut signals that the session ended and the login view should show.
type LoggedOut struct{}

type projectsLoadedMsg struct{ err error }
type usersLoadedMsg struct{ err error }
type projectCreatedMsg struct {
	project models.Project
	err     error
}
type projectDeletedMsg struct{ err error }

// ProjectListView shows all projects and owns project creation/deletion.
type ProjectListView struct {
	store    *state.Store
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	creating bool
	form     *huh.Form
	formName *string
	formDesc *string
	formTeam *[]int64
	formErr  string

	confirmingDelete bool
	deleteTargetID   int64
	deleteTargetName string
}

func NewProjectListView(store *state.Store) *ProjectListView {
	s := styles.NewStyles()

	delegate := &projectDelegate{styles: s, width: 80}
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	name, desc := "", ""
	team := []int64{}
	return &ProjectListView{
		store:    store,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		formName: &name,
		formDesc: &desc,
		formTeam: &team,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

func (v *ProjectListView) loadProjects() tea.Msg {
	_, err := v.store.FetchProjects(context.Background())
	return projectsLoadedMsg{err: err}
}

func (v *ProjectListView) loadUsers() tea.Msg {
	_, err := v.store.FetchUsers(context.Background())
	return usersLoadedMsg{err: err}
}

func (v *ProjectListView) syncList() {
	projects := v.store.Projects()
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	v.list.SetItems(items)
	v.loaded = true
}

func (v *ProjectListView) showCreateForm() tea.Cmd {
	*v.formName = ""
	*v.formDesc = ""
	*v.formTeam = nil
	v.formErr = ""

	users := v.store.Users()
	self := v.store.Session().User
	options := make([]huh.Option[int64], 0, len(users))
	for _, u := range users {
		if self != nil && u.ID == self.ID {
			continue // the creator is always included
		}
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%s)", u.Username, u.Email), u.ID))
	}

	v.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(v.formName),
			huh.NewInput().Title("Description").Value(v.formDesc),
			huh.NewMultiSelect[int64]().Title("Team Members").Options(options...).Value(v.formTeam),
		),
	).WithShowHelp(true).WithShowErrors(true)

	v.creating = true
	return v.form.Init()
}

func (v *ProjectListView) createProject() tea.Cmd {
	name, desc := *v.formName, *v.formDesc
	team := append([]int64(nil), *v.formTeam...)
	var creatorID int64
	if u := v.store.Session().User; u != nil {
		creatorID = u.ID
	}
	return func() tea.Msg {
		p, err := v.store.CreateProject(context.Background(), name, desc, team, creatorID)
		return projectCreatedMsg{project: p, err: err}
	}
}

func (v *ProjectListView) deleteProject(id int64) tea.Cmd {
	return func() tea.Msg {
		return projectDeletedMsg{err: v.store.DeleteProject(context.Background(), id)}
	}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case projectsLoadedMsg:
		v.syncList()
		return v, nil

	case usersLoadedMsg:
		return v, nil

	case projectCreatedMsg:
		if msg.err != nil {
			v.formErr = msg.err.Error()
			return v, nil
		}
		v.creating = false
		v.syncList()
		return v, func() tea.Msg {
			return SelectedProject{Project: msg.project}
		}

	case projectDeletedMsg:
		v.syncList()
		return v, nil

	case tea.KeyMsg:
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadProjects
		case key.Matches(msg, v.keys.Logout):
			v.store.Logout()
			return v, func() tea.Msg { return LoggedOut{} }
		case key.Matches(msg, v.keys.New):
			// Users feed the team-member picker; refresh them first.
			cmd := v.showCreateForm()
			return v, tea.Batch(cmd, v.loadUsers)
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: item.project}
				}
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTargetID = item.project.ID
				v.deleteTargetName = item.project.Name
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.deleteProject(v.deleteTargetID)
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		v.creating = false
		return v, nil
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	if v.form.State == huh.StateCompleted {
		return v, v.createProject()
	}
	return v, cmd
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}
	if v.creating {
		return v.renderCreateForm()
	}

	scope := v.store.Scope(state.ScopeProjects)
	if !v.loaded || scope.Loading {
		return v.styles.TitleMuted.Render("Loading projects...")
	}

	var rows []string
	if scope.Err != "" {
		rows = append(rows, v.styles.ErrorBar.Render(scope.Err))
	}

	if len(v.list.Items()) == 0 {
		rows = append(rows, v.renderEmpty())
	} else {
		rows = append(rows, v.list.View(), v.renderHelp())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)

	return lipgloss.Place(contentWidth, v.height-2,
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	lines := []string{
		s.Title.Render("New Project"),
		"",
		v.form.View(),
	}
	if v.formErr != "" {
		lines = append(lines, s.ErrorBar.Render(v.formErr))
	}
	lines = append(lines, "", s.TitleMuted.Render("Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	return v.styles.Help.Render(
		fmt.Sprintf("%s open board • %s new • %s del • %s refresh • %s log out • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("ctrl+o"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of its tasks will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
