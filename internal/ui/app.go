package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/ayushimehta23/nextwave-tui/internal/session"
	"github.com/ayushimehta23/nextwave-tui/internal/state"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLogin View = iota
	ViewProjects
	ViewBoard
)

type App struct {
	store    *state.Store
	sessions *session.Store
	log      *zap.Logger

	currentView View
	login       *views.LoginView
	projectList *views.ProjectListView
	board       *views.BoardView
	width       int
	height      int
}

// NewApp creates the root model. When the store already carries a restored
// session token, the app skips the login screen.
func NewApp(store *state.Store, sessions *session.Store, log *zap.Logger) *App {
	a := &App{
		store:       store,
		sessions:    sessions,
		log:         log,
		currentView: ViewLogin,
		login:       views.NewLoginView(store),
		projectList: views.NewProjectListView(store),
	}
	if store.Session().Token != "" {
		a.currentView = ViewProjects
	}
	return a
}

func (a *App) Init() tea.Cmd {
	if a.currentView == ViewProjects {
		return a.projectList.Init()
	}
	return a.login.Init()
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.login.Update(msg)
		a.projectList.Update(msg)
		if a.board != nil {
			a.board.Update(msg)
		}

	case views.LoggedIn:
		if err := a.sessions.SaveToken(msg.Token); err != nil {
			a.log.Warn("could not persist session token", zap.Error(err))
		}
		a.currentView = ViewProjects
		return a, tea.Batch(a.projectList.Init(), a.resize())

	case views.LoggedOut:
		if err := a.sessions.ClearToken(); err != nil {
			a.log.Warn("could not clear session token", zap.Error(err))
		}
		a.currentView = ViewLogin
		a.login = views.NewLoginView(a.store)
		return a, tea.Batch(a.login.Init(), a.resize())

	case views.SelectedProject:
		a.currentView = ViewBoard
		a.board = views.NewBoardView(a.store, msg.Project)
		return a, tea.Batch(a.board.Init(), a.resize())

	case views.BackToProjects:
		a.currentView = ViewProjects
		return a, tea.Batch(a.projectList.Init(), a.resize())
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewBoard:
		if a.board != nil {
			return a.board.View()
		}
	case ViewProjects:
		return a.projectList.View()
	}
	return a.login.View()
}
