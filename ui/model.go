package ui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"creator-chat/domain"
	"creator-chat/feed"
	"creator-chat/services"
)

type route int

const (
	routeLoading route = iota
	routeLogin
	routeChat
	routeUsers
	routeSettings
)

// SessionChangedMsg is delivered whenever the authenticated session changes.
// A nil Session means the user is signed out.
type SessionChangedMsg struct {
	Session *domain.Session
}

// FeedUpdatedMsg signals that the message feed changed and the chat view
// should re-render.
type FeedUpdatedMsg struct{}

type authResultMsg struct {
	registered bool
	err        error
}

type sendResultMsg struct {
	err error
}

type usersLoadedMsg struct {
	users []domain.User
	err   error
}

// Model is the root Bubble Tea model. It routes between the login form,
// the chat view, the user list and the settings screen based on the
// session state pushed by the session manager.
type Model struct {
	ctx  context.Context
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService

	synchronizer *feed.Synchronizer

	route    route
	width    int
	height   int
	ready    bool
	errText  string
	infoText string

	// Login form
	emailInput    textinput.Model
	passwordInput textinput.Model
	focusPassword bool
	registering   bool
	submitting    bool

	// Chat view
	viewport     viewport.Model
	messageInput textinput.Model
	session      *domain.Session

	// Users view
	users []domain.User

	program   *tea.Program
	programMu sync.Mutex
}

// NewModel builds the root model. The session manager and synchronizer are
// wired by the caller; the model only reacts to the messages they push.
func NewModel(
	ctx context.Context,
	log *slog.Logger,
	auth services.IAuthService,
	chat services.IChatService,
	synchronizer *feed.Synchronizer,
) *Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 72

	message := textinput.New()
	message.Placeholder = "Type a message..."
	message.CharLimit = 2000

	return &Model{
		ctx:           ctx,
		log:           log,
		auth:          auth,
		chat:          chat,
		synchronizer:  synchronizer,
		route:         routeLoading,
		emailInput:    email,
		passwordInput: password,
		messageInput:  message,
	}
}

// SetProgram hands the running program to the model so background
// goroutines can push messages into the update loop.
func (m *Model) SetProgram(p *tea.Program) {
	m.programMu.Lock()
	defer m.programMu.Unlock()
	m.program = p
}

// Send delivers a message to the running program. It is safe to call from
// any goroutine and is a no-op until SetProgram has been called.
func (m *Model) Send(msg tea.Msg) {
	m.programMu.Lock()
	p := m.program
	m.programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.renderFeed()
		return m, nil

	case SessionChangedMsg:
		return m.handleSessionChange(msg.Session)

	case FeedUpdatedMsg:
		_, loaded, loadErr := m.synchronizer.Snapshot()
		m.renderFeed()
		if loaded {
			m.viewport.GotoBottom()
		}
		if loadErr != nil {
			m.log.Warn("message history fetch failed", "error", loadErr)
			m.errText = "could not load messages: " + loadErr.Error()
		}
		return m, nil

	case authResultMsg:
		m.submitting = false
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		if msg.registered {
			m.registering = false
			m.infoText = "account created, sign in to continue"
			m.passwordInput.Reset()
		}
		return m, nil

	case sendResultMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.messageInput.Reset()
		return m, nil

	case usersLoadedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.users = msg.users
		m.route = routeUsers
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, m.updateInputs(msg)
}

func (m *Model) handleSessionChange(sess *domain.Session) (tea.Model, tea.Cmd) {
	m.session = sess
	m.errText = ""
	if sess == nil {
		m.synchronizer.Deactivate()
		m.route = routeLogin
		m.emailInput.Focus()
		m.passwordInput.Blur()
		m.focusPassword = false
		return m, textinput.Blink
	}
	m.synchronizer.Activate(m.ctx)
	m.route = routeChat
	m.messageInput.Focus()
	m.renderFeed()
	return m, textinput.Blink
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.route {
	case routeLogin:
		return m.handleLoginKey(msg)
	case routeChat:
		return m.handleChatKey(msg)
	case routeUsers, routeSettings:
		switch msg.String() {
		case "esc", "q":
			m.route = routeChat
			m.messageInput.Focus()
			return m, textinput.Blink
		case "ctrl+l":
			return m, m.signOut()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch m.route {
	case routeLogin:
		m.emailInput, cmd = m.emailInput.Update(msg)
		cmds = append(cmds, cmd)
		m.passwordInput, cmd = m.passwordInput.Update(msg)
		cmds = append(cmds, cmd)
	case routeChat:
		m.messageInput, cmd = m.messageInput.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) View() string {
	switch m.route {
	case routeLoading:
		return m.loadingView()
	case routeLogin:
		return m.loginView()
	case routeChat:
		return m.chatView()
	case routeUsers:
		return m.usersView()
	case routeSettings:
		return m.settingsView()
	}
	return ""
}

func (m *Model) loadingView() string {
	return "\n  " + headerStyle.Render("Creator Chat") + "\n\n  Loading session...\n"
}
