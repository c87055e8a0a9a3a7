package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"musage/internal/scan"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	cleanStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type updateMsg struct {
	summary scan.Summary
}

type model struct {
	table        table.Model
	summary      scan.Summary
	lastUpdate   time.Time
	showFailures bool
}

func initialModel() model {
	columns := []table.Column{
		{Title: "NAME", Width: 52},
		{Title: "COUNT", Width: 8},
	}

	tbl := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(16),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#0F172A")).
		Background(lipgloss.Color("#3B82F6")).
		Bold(false)
	tbl.SetStyles(styles)

	return model{table: tbl, lastUpdate: time.Now()}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f":
			m.showFailures = !m.showFailures
			return m, nil
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.table.SetWidth(width)
		m.table.SetHeight(height)
	case updateMsg:
		m.summary = msg.summary
		m.lastUpdate = time.Now()

		rows := make([]table.Row, 0, len(m.summary.Tally))
		for _, row := range m.summary.Tally.Rank() {
			rows = append(rows, table.Row{row.Name, strconv.Itoa(row.Count)})
		}
		m.table.SetRows(rows)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d hits",
		m.lastUpdate.Format("15:04:05"), m.summary.Files, m.summary.Tally.Total()))

	var health string
	if len(m.summary.Failures) == 0 {
		health = cleanStyle.Render("All Files Parsed")
	} else {
		health = failureStyle.Render(fmt.Sprintf("%d parse failures", len(m.summary.Failures)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n",
		titleStyle(fmt.Sprintf("Module Usage Monitor · %s", m.summary.Module)),
		status, health)
	help := statusStyle.Render("↑/↓ scroll · f failures · q quit")

	body := m.table.View()
	if m.showFailures {
		body += "\n\n" + renderFailures(m.summary)
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func renderFailures(summary scan.Summary) string {
	if len(summary.Failures) == 0 {
		return cleanStyle.Render("No failures recorded.")
	}
	out := failureStyle.Render("Failures") + "\n"
	for _, failure := range summary.Failures {
		out += fmt.Sprintf("  %s: %s\n", failure.Path, failure.Reason)
	}
	return out
}
