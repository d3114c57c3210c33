package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		m.focusPassword = !m.focusPassword
		if m.focusPassword {
			m.emailInput.Blur()
			m.passwordInput.Focus()
		} else {
			m.passwordInput.Blur()
			m.emailInput.Focus()
		}
		return m, textinput.Blink

	case "ctrl+r":
		m.registering = !m.registering
		m.errText = ""
		m.infoText = ""
		return m, nil

	case "enter":
		if m.submitting {
			return m, nil
		}
		email := strings.TrimSpace(m.emailInput.Value())
		password := m.passwordInput.Value()
		if email == "" || password == "" {
			m.errText = "email and password are required"
			return m, nil
		}
		m.submitting = true
		m.errText = ""
		m.infoText = ""
		return m, m.submitAuth(email, password, m.registering)
	}

	return m, m.updateInputs(msg)
}

func (m *Model) submitAuth(email, password string, register bool) tea.Cmd {
	return func() tea.Msg {
		if register {
			err := m.auth.SignUp(m.ctx, email, password)
			return authResultMsg{registered: true, err: err}
		}
		_, err := m.auth.SignIn(m.ctx, email, password)
		return authResultMsg{err: err}
	}
}

func (m *Model) loginView() string {
	var b strings.Builder

	action := "Sign in"
	if m.registering {
		action = "Create account"
	}

	b.WriteString("\n  " + titleStyle.Render("Creator Chat") + "\n\n")
	b.WriteString("  " + headerStyle.Render(action) + "\n\n")
	b.WriteString("  " + m.emailInput.View() + "\n")
	b.WriteString("  " + m.passwordInput.View() + "\n\n")

	if m.submitting {
		b.WriteString("  " + infoStyle.Render("Working...") + "\n")
	}
	if m.errText != "" {
		b.WriteString("  " + errorStyle.Render(m.errText) + "\n")
	}
	if m.infoText != "" {
		b.WriteString("  " + infoStyle.Render(m.infoText) + "\n")
	}

	toggle := "ctrl+r register"
	if m.registering {
		toggle = "ctrl+r back to sign in"
	}
	b.WriteString("\n  " + helpStyle.Render("tab switch field • enter submit • "+toggle+" • ctrl+c quit") + "\n")

	return formStyle.Render(b.String())
}
