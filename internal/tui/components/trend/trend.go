package trend

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/stats"
)

var (
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// Model charts completion over the trailing seven days.
type Model struct {
	chart   barchart.Model
	summary *stats.Summary
	width   int
	height  int
}

func New(width, height int) Model {
	return Model{
		chart:  barchart.New(width, height),
		width:  width,
		height: height,
	}
}

func (m *Model) SetSummary(s stats.Summary) {
	m.summary = &s
	m.build()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.build()
}

// Bars converts a daily series into chart bars labelled by weekday.
func Bars(points []stats.DayPoint) []barchart.BarData {
	bars := make([]barchart.BarData, 0, len(points))
	for _, p := range points {
		label := p.Weekday
		if len(label) > 3 {
			label = label[:3]
		}
		style := barStyle
		if p.Total == 0 {
			style = emptyStyle
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  p.Day.String(),
				Value: float64(p.Percentage),
				Style: style,
			}},
		})
	}
	return bars
}

func (m *Model) build() {
	width := m.width - 4
	if width < 28 {
		width = 28
	}
	height := m.height - 8
	if height < 8 {
		height = 8
	}
	if height > 16 {
		height = 16
	}

	m.chart = barchart.New(width, height)
	if m.summary == nil {
		return
	}
	m.chart.PushAll(Bars(m.summary.Daily))
	m.chart.Draw()
}

func (m Model) View() string {
	if m.summary == nil {
		return "Loading summary..."
	}
	s := m.summary

	var b strings.Builder
	b.WriteString(titleStyle.Render("Last 7 days"))
	b.WriteString("\n\n")
	b.WriteString(m.chart.View())
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Today %d/%d (%d%%)  |  Week %d%%  |  %d routines, %d tasks",
		s.TodayProgress.Completed, s.TodayProgress.Total, s.TodayProgress.Percentage,
		s.WeekProgress.Percentage, s.TotalRoutines, s.TotalTasks)))

	for _, r := range s.Routines {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  %-24s %3d%%", r.Title, r.Percentage))
	}
	return b.String()
}
