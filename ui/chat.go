package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		content := m.messageInput.Value()
		if strings.TrimSpace(content) == "" {
			return m, nil
		}
		m.errText = ""
		return m, m.submitMessage(content)

	case "ctrl+u":
		return m, m.loadUsers()

	case "ctrl+s":
		m.route = routeSettings
		return m, nil

	case "ctrl+l":
		return m, m.signOut()
	}

	return m, m.updateInputs(msg)
}

// submitMessage sends the content to the store. The input is only cleared
// once the store acknowledges; the message itself arrives through the live
// event stream, never by local append.
func (m *Model) submitMessage(content string) tea.Cmd {
	authorID := ""
	if m.session != nil {
		authorID = m.session.UserID
	}
	return func() tea.Msg {
		_, err := m.synchronizer.Send(m.ctx, content, authorID)
		return sendResultMsg{err: err}
	}
}

func (m *Model) loadUsers() tea.Cmd {
	return func() tea.Msg {
		users, err := m.chat.ListUsers(m.ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m *Model) signOut() tea.Cmd {
	return func() tea.Msg {
		if err := m.auth.SignOut(m.ctx); err != nil {
			return authResultMsg{err: err}
		}
		// The session manager pushes the nil session back to the UI.
		return nil
	}
}

// renderFeed rebuilds the viewport content from the current feed snapshot.
func (m *Model) renderFeed() {
	if !m.ready {
		return
	}
	messages, loaded, _ := m.synchronizer.Snapshot()

	var b strings.Builder
	if !loaded {
		b.WriteString(helpStyle.Render("Loading messages..."))
	}
	for _, msg := range messages {
		style := otherMessageStyle
		if m.session != nil && msg.AuthorID == m.session.UserID {
			style = ownMessageStyle
		}
		b.WriteString(timestampStyle.Render(msg.CreatedAt.Format("15:04")))
		b.WriteString(" ")
		b.WriteString(style.Render(msg.Content))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) chatView() string {
	email := ""
	if m.session != nil {
		email = m.session.Email
	}
	header := titleStyle.Render("Creator Chat") + " " + helpStyle.Render(email)
	footer := m.messageInput.View() + "\n" +
		helpStyle.Render("enter send • ctrl+u users • ctrl+s settings • ctrl+l sign out • ctrl+c quit")
	if m.errText != "" {
		footer += "\n" + errorStyle.Render(m.errText)
	}
	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
}
