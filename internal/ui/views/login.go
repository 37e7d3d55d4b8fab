package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayushimehta23/nextwave-tui/internal/models"
	"github.com/ayushimehta23/nextwave-tui/internal/state"
	"github.com/ayushimehta23/nextwave-tui/internal/ui/styles"
)

// LoggedIn signals a successful login to the app shell.
type LoggedIn struct {
	User  models.User
	Token string
}

type authResultMsg struct {
	registered bool
	err        error
}

// LoginView is the entry screen: a login form with a register mode.
type LoginView struct {
	store  *state.Store
	styles *styles.Styles

	form        *huh.Form
	registering bool
	notice      string

	// Field pointers survive form value copies.
	username *string
	email    *string
	password *string

	width  int
	height int
}

func NewLoginView(store *state.Store) *LoginView {
	username, email, password := "", "", ""
	v := &LoginView{
		store:    store,
		styles:   styles.NewStyles(),
		username: &username,
		email:    &email,
		password: &password,
	}
	v.form = v.buildForm()
	return v
}

func (v *LoginView) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().Title("Username").Value(v.username),
	}
	if v.registering {
		fields = append(fields, huh.NewInput().Title("Email").Value(v.email))
	}
	fields = append(fields,
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(v.password),
	)
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false).WithShowErrors(true)
}

func (v *LoginView) Init() tea.Cmd {
	return v.form.Init()
}

func (v *LoginView) submit() tea.Cmd {
	username, email, password := *v.username, *v.email, *v.password
	registering := v.registering
	return func() tea.Msg {
		ctx := context.Background()
		if registering {
			_, err := v.store.Register(ctx, username, email, password)
			return authResultMsg{registered: true, err: err}
		}
		user, err := v.store.Login(ctx, username, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		return LoggedIn{User: user, Token: v.store.Session().Token}
	}
}

func (v *LoginView) resetForm() tea.Cmd {
	*v.password = ""
	v.form = v.buildForm()
	return v.form.Init()
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case authResultMsg:
		if msg.err != nil {
			return v, v.resetForm()
		}
		if msg.registered {
			// Account created; switch back to login so the user signs in.
			v.registering = false
			v.notice = "Account created, log in to continue"
			return v, v.resetForm()
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return v, tea.Quit
		case "ctrl+r":
			v.registering = !v.registering
			v.notice = ""
			return v, v.resetForm()
		}
	}

	form, cmd := v.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		v.form = f
	}

	if v.form.State == huh.StateCompleted {
		return v, tea.Batch(v.resetForm(), v.submit())
	}
	return v, cmd
}

func (v *LoginView) View() string {
	s := v.styles
	title := "Log in to NextWave"
	action := "ctrl+r register"
	if v.registering {
		title = "Create a NextWave account"
		action = "ctrl+r back to login"
	}

	lines := []string{
		s.Title.Render(title),
		"",
		v.form.View(),
	}

	scope := v.store.Scope(state.ScopeAuth)
	switch {
	case scope.Loading:
		lines = append(lines, s.TitleMuted.Render("Signing in..."))
	case scope.Err != "":
		lines = append(lines, s.ErrorBar.Render(scope.Err))
	case v.notice != "":
		lines = append(lines, s.TitleMuted.Render(v.notice))
	}

	lines = append(lines, "", s.Help.Render(
		s.HelpKey.Render("enter")+" submit • "+s.HelpKey.Render(action)+" • "+s.HelpKey.Render("ctrl+c")+" quit",
	))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, content)
}
