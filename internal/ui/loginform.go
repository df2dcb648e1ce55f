package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/memberfolio/folio/internal/auth"
	"github.com/memberfolio/folio/internal/login"
)

// ErrCancelled is returned when the user leaves the form without logging in.
var ErrCancelled = errors.New("login cancelled")

const (
	UsernameLabel    = "Username or Email:"
	PasswordLabel    = "Password :"
	ShowPasswordText = "Show Password"
	SubmitText       = "Login"

	usernamePlaceholder = "Username or Email"
	passwordPlaceholder = "Password"
)

var (
	formTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e")).
			Bold(true).
			MarginBottom(1)

	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff"))

	requiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444"))

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22c55e"))

	blurredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#888"))

	activeButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Foreground(lipgloss.Color("#000")).
				Background(lipgloss.Color("#22c55e")).
				Bold(true)

	formErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			MarginTop(1)

	formHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#444")).
			MarginTop(1)
)

// Focus targets, in tab order.
const (
	focusUsername = iota
	focusPassword
	focusShowPassword
	focusSubmit
	focusCount
)

type formKeyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Submit     key.Binding
	Toggle     key.Binding
	TogglePass key.Binding
	Quit       key.Binding
}

var formKeys = formKeyMap{
	Next:       key.NewBinding(key.WithKeys("tab", "down")),
	Prev:       key.NewBinding(key.WithKeys("shift+tab", "up")),
	Submit:     key.NewBinding(key.WithKeys("enter")),
	Toggle:     key.NewBinding(key.WithKeys(" ")),
	TogglePass: key.NewBinding(key.WithKeys("ctrl+s")),
	Quit:       key.NewBinding(key.WithKeys("ctrl+c", "esc")),
}

// loginResultMsg carries the outcome of the one request of a submission.
type loginResultMsg struct {
	session *auth.Session
	err     error
}

// LoginFormModel draws a login.Controller and feeds it key events.
type LoginFormModel struct {
	ctrl     *login.Controller
	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	focus    int

	// missing holds the fields flagged by the last blocked submit.
	missing map[string]bool

	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
}

func NewLoginForm(ctx context.Context, ctrl *login.Controller) LoginFormModel {
	if ctx == nil {
		ctx = context.Background()
	}

	username := textinput.New()
	username.Placeholder = usernamePlaceholder
	username.Prompt = "> "
	username.CharLimit = 256
	username.SetValue(ctrl.Username())
	username.Focus()

	password := textinput.New()
	password.Placeholder = passwordPlaceholder
	password.Prompt = "> "
	password.CharLimit = 256
	password.EchoCharacter = '•'
	password.SetValue(ctrl.Password())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = focusedStyle

	m := LoginFormModel{
		ctrl:     ctrl,
		username: username,
		password: password,
		spinner:  s,
		missing:  map[string]bool{},
		ctx:      ctx,
	}
	m.syncEchoMode()
	if ctrl.Username() != "" {
		m.setFocus(focusPassword)
	}
	return m
}

func (m LoginFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		if m.ctrl.Resolve(msg.session, msg.err) == login.Authenticated {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.ctrl.Status() != login.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, formKeys.Quit):
			if m.cancel != nil {
				m.cancel()
			}
			m.cancelled = true
			return m, tea.Quit

		case key.Matches(msg, formKeys.Next):
			cmd := m.setFocus((m.focus + 1) % focusCount)
			return m, cmd

		case key.Matches(msg, formKeys.Prev):
			cmd := m.setFocus((m.focus - 1 + focusCount) % focusCount)
			return m, cmd

		case key.Matches(msg, formKeys.TogglePass):
			m.togglePassword()
			return m, nil

		case key.Matches(msg, formKeys.Toggle) && m.focus == focusShowPassword:
			m.togglePassword()
			return m, nil

		case key.Matches(msg, formKeys.Submit):
			if m.focus == focusShowPassword {
				m.togglePassword()
				return m, nil
			}
			cmd := m.submit()
			return m, cmd
		}
	}

	cmd := m.updateInputs(msg)
	return m, cmd
}

func (m *LoginFormModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusUsername:
		m.username, cmd = m.username.Update(msg)
		m.ctrl.SetUsername(m.username.Value())
		if m.username.Value() != "" {
			delete(m.missing, login.FieldUsername)
		}
	case focusPassword:
		m.password, cmd = m.password.Update(msg)
		m.ctrl.SetPassword(m.password.Value())
		if m.password.Value() != "" {
			delete(m.missing, login.FieldPassword)
		}
	}
	return cmd
}

func (m *LoginFormModel) setFocus(target int) tea.Cmd {
	m.focus = target
	m.username.Blur()
	m.password.Blur()
	switch target {
	case focusUsername:
		return m.username.Focus()
	case focusPassword:
		return m.password.Focus()
	}
	return nil
}

func (m *LoginFormModel) togglePassword() {
	m.ctrl.ToggleShowPassword()
	m.syncEchoMode()
}

func (m *LoginFormModel) syncEchoMode() {
	if m.ctrl.PasswordVisible() {
		m.password.EchoMode = textinput.EchoNormal
	} else {
		m.password.EchoMode = textinput.EchoPassword
	}
}

// submit starts a submission. Empty required fields are flagged and no
// request is made.
func (m *LoginFormModel) submit() tea.Cmd {
	creds, err := m.ctrl.BeginSubmit()
	if err != nil {
		var verr *login.ValidationError
		if errors.As(err, &verr) {
			m.missing = map[string]bool{}
			for _, f := range verr.Missing {
				m.missing[f] = true
			}
			if verr.Has(login.FieldUsername) {
				return m.setFocus(focusUsername)
			}
			return m.setFocus(focusPassword)
		}
		return nil
	}

	m.missing = map[string]bool{}
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	ctrl := m.ctrl

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		session, err := ctrl.Send(ctx, creds)
		return loginResultMsg{session: session, err: err}
	})
}

func (m LoginFormModel) View() string {
	var b strings.Builder

	b.WriteString(formTitleStyle.Render("Log in to Member Portfolio"))
	b.WriteString("\n")

	b.WriteString(m.label(UsernameLabel, login.FieldUsername))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n\n")

	b.WriteString(m.label(PasswordLabel, login.FieldPassword))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	box := "[ ]"
	if m.ctrl.PasswordVisible() {
		box = "[✓]"
	}
	toggle := box + " " + ShowPasswordText
	if m.focus == focusShowPassword {
		b.WriteString(focusedStyle.Render("> " + toggle))
	} else {
		b.WriteString(blurredStyle.Render("  " + toggle))
	}
	b.WriteString("\n\n")

	if m.focus == focusSubmit {
		b.WriteString(activeButtonStyle.Render(SubmitText))
	} else {
		b.WriteString(buttonStyle.Render(SubmitText))
	}
	if m.ctrl.Status() == login.Submitting {
		b.WriteString(" " + m.spinner.View() + " Logging in...")
	}
	b.WriteString("\n")

	if msg, ok := m.ErrorRegion(); ok {
		b.WriteString(formErrorStyle.Render("✗ " + msg))
		b.WriteString("\n")
	}

	b.WriteString(formHelpStyle.Render("Tab/↑↓: move • Enter: submit • Space: toggle • Ctrl+S: show password • Esc: quit"))
	return b.String()
}

func (m LoginFormModel) label(text, field string) string {
	l := fieldLabelStyle.Render(text) + requiredStyle.Render(" *")
	if m.missing[field] {
		l += " " + requiredStyle.Render("required")
	}
	return l
}

// ErrorRegion returns the error message the form displays, if any.
func (m LoginFormModel) ErrorRegion() (string, bool) {
	return m.ctrl.ErrorMessage()
}

// Required reports whether field was flagged by a blocked submit.
func (m LoginFormModel) Required(field string) bool {
	return m.missing[field]
}

// PasswordEchoMode reports how the password input renders its value.
func (m LoginFormModel) PasswordEchoMode() textinput.EchoMode {
	return m.password.EchoMode
}

func (m LoginFormModel) Cancelled() bool {
	return m.cancelled
}

func (m LoginFormModel) Controller() *login.Controller {
	return m.ctrl
}

// RunLoginForm shows the form until the user logs in or quits.
func RunLoginForm(ctx context.Context, ctrl *login.Controller) (*auth.Session, error) {
	p := tea.NewProgram(NewLoginForm(ctx, ctrl), tea.WithContext(ctx))

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	m := finalModel.(LoginFormModel)
	if m.Cancelled() || ctrl.Status() != login.Authenticated {
		return nil, ErrCancelled
	}
	return ctrl.Session(), nil
}
