package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateWeek:
		content = docStyle.Render(m.viewWeek())
	case StateRoutines:
		content = docStyle.Render(m.list.View())
	case StateTrends:
		content = docStyle.Render(m.trend.View())
	case StateAddRoutine:
		content = docStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New routine"),
			"",
			m.form.View(),
		))
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabTitles {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewWeek() string {
	w := m.grid.Week()
	if w.Title == "" {
		return m.grid.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(w.Title),
		"",
		m.grid.View(),
	)
}

func (m Model) viewStatus() string {
	switch {
	case m.err != nil:
		return warningStyle.Render("  " + errorText(m.err))
	case m.pendingToggles > 0:
		return statusStyle.Render("  Saving...")
	case m.status != "":
		return statusStyle.Render("  " + m.status)
	}
	return ""
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-4,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render("Delete \""+m.deleteTitle+"\" and its history?"),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
