package ui

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

func (m *Model) usersView() string {
	var table strings.Builder
	writer := tablewriter.NewWriter(&table)
	writer.SetHeader([]string{"ID", "Email", "Joined"})
	writer.SetBorder(false)
	for _, user := range m.users {
		writer.Append([]string{user.ID, user.Email, user.CreatedAt.Format("2006-01-02")})
	}
	writer.Render()

	var b strings.Builder
	b.WriteString("\n  " + headerStyle.Render("Members") + "\n\n")
	b.WriteString(table.String())
	b.WriteString("\n  " + helpStyle.Render("esc back") + "\n")
	return b.String()
}

func (m *Model) settingsView() string {
	var b strings.Builder
	b.WriteString("\n  " + headerStyle.Render("Settings") + "\n\n")
	if m.session != nil {
		b.WriteString("  Signed in as " + m.session.Email + "\n")
		b.WriteString("  Session expires " + m.session.ExpiresAt.Format("2006-01-02 15:04") + "\n")
	}
	b.WriteString("\n  " + helpStyle.Render("esc back • ctrl+l sign out") + "\n")
	return b.String()
}
