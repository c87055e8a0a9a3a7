package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"musage/internal/scan"
	"musage/internal/watch"
)

// Run owns the terminal until the user quits. Updates reach the program
// through the session's update handler, never by polling.
func Run(session *watch.Session) error {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())

	session.SetUpdateHandler(func(summary scan.Summary) {
		p.Send(updateMsg{summary: summary})
	})

	go func() {
		p.Send(updateMsg{summary: session.Current()})
	}()

	_, err := p.Run()
	return err
}
