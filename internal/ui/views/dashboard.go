package views

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/michal94mk/taskflow/internal/analytics"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/ui/theme"
)

// DashboardSource is what the dashboard view needs from analytics
type DashboardSource interface {
	Dashboard(ctx context.Context, user *model.User) (*analytics.Dashboard, error)
}

type dashboardLoadedMsg struct{ data *analytics.Dashboard }

type dashboardErrorMsg struct{ err error }

// DashboardView shows KPIs, breakdown charts and the activity timeline
type DashboardView struct {
	src    DashboardSource
	user   *model.User
	width  int
	height int

	data *analytics.Dashboard
	err  error
}

// NewDashboardView creates a dashboard view for user
func NewDashboardView(src DashboardSource, user *model.User) DashboardView {
	return DashboardView{src: src, user: user}
}

// Init loads the dashboard
func (v DashboardView) Init() tea.Cmd {
	return v.load()
}

// SetSize sets the view dimensions
func (v DashboardView) SetSize(width, height int) DashboardView {
	v.width = width
	v.height = height
	return v
}

func (v DashboardView) load() tea.Cmd {
	src, user := v.src, v.user
	return func() tea.Msg {
		d, err := src.Dashboard(context.Background(), user)
		if err != nil {
			return dashboardErrorMsg{err: err}
		}
		return dashboardLoadedMsg{data: d}
	}
}

// Update handles messages
func (v DashboardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		v.data = msg.data
		v.err = nil
		return v, nil
	case dashboardErrorMsg:
		v.err = msg.err
		return v, nil
	case taskMovedMsg:
		return v, v.load()
	case tea.KeyMsg:
		if msg.String() == "r" {
			return v, v.load()
		}
	}
	return v, nil
}

// View renders the dashboard
func (v DashboardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	t := theme.Current.Theme
	if v.err != nil {
		return lipgloss.NewStyle().Foreground(t.Error).Render("Error: " + v.err.Error())
	}
	if v.data == nil {
		return "Loading..."
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections := []string{titleStyle.Render("Dashboard"), ""}

	sections = append(sections, v.renderKPIs(), "")

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		renderBars("Tasks by Status", v.data.Charts.ByStatus),
		"    ",
		renderBars("Tasks by Priority", v.data.Charts.ByPriority),
	)
	sections = append(sections, charts, "")
	sections = append(sections, v.renderTimeline(), "")
	sections = append(sections, v.renderProjects())

	hints := lipgloss.NewStyle().Foreground(t.Subtle).Render("r: refresh")
	sections = append(sections, "", hints)

	return strings.Join(sections, "\n")
}

func (v DashboardView) renderKPIs() string {
	t := theme.Current.Theme

	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	card := func(value int64, label string, color lipgloss.Color) string {
		return cardStyle.Render(
			lipgloss.NewStyle().Bold(true).Foreground(color).Render(fmt.Sprintf("%d", value)) + "\n" +
				labelStyle.Render(label),
		)
	}

	k := v.data.KPIs
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card(k.Total, "Total Tasks", t.Primary),
		card(k.Completed, "Completed", t.Success),
		card(k.InProgress, "In Progress", t.Warning),
		card(k.Overdue, "Overdue", t.Error),
	)
}

// renderBars draws one horizontal bar per row, scaled to the largest count
func renderBars(title string, rows []analytics.ChartRow) string {
	t := theme.Current.Theme
	lines := []string{theme.Current.Styles.PanelTitle.Render(title)}

	var peak int64 = 1
	for _, r := range rows {
		if r.Count > peak {
			peak = r.Count
		}
	}

	const barMaxWidth = 20
	for _, r := range rows {
		width := int(float64(r.Count) / float64(peak) * barMaxWidth)
		if width < 1 && r.Count > 0 {
			width = 1
		}
		bar := lipgloss.NewStyle().Foreground(t.Color(r.Color)).Render(strings.Repeat("█", width))
		lines = append(lines, fmt.Sprintf("%-12s %s %d", truncate(r.Name, 12), bar, r.Count))
	}
	return strings.Join(lines, "\n")
}

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkline maps values onto block characters, scaled to peak. Zero stays
// blank.
func sparkline(values []int64, peak int64) string {
	if peak < 1 {
		peak = 1
	}
	var b strings.Builder
	for _, n := range values {
		if n <= 0 {
			b.WriteRune(' ')
			continue
		}
		idx := int(float64(n) / float64(peak) * float64(len(sparkBlocks)-1))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func (v DashboardView) renderTimeline() string {
	t := theme.Current.Theme
	points := v.data.Timeline

	created := make([]int64, len(points))
	completed := make([]int64, len(points))
	var peak, sumCreated, sumCompleted int64
	for i, p := range points {
		created[i], completed[i] = p.Created, p.Completed
		sumCreated += p.Created
		sumCompleted += p.Completed
		if p.Created > peak {
			peak = p.Created
		}
		if p.Completed > peak {
			peak = p.Completed
		}
	}

	header := fmt.Sprintf("Activity (Last %d Days)", len(points))
	lines := []string{theme.Current.Styles.PanelTitle.Render(header)}
	lines = append(lines,
		fmt.Sprintf("%-10s %s %d", "Created", lipgloss.NewStyle().Foreground(t.Info).Render(sparkline(created, peak)), sumCreated),
		fmt.Sprintf("%-10s %s %d", "Completed", lipgloss.NewStyle().Foreground(t.Success).Render(sparkline(completed, peak)), sumCompleted),
	)
	if len(points) > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render(
			fmt.Sprintf("%-10s %s → %s", "", points[0].Date, points[len(points)-1].Date)))
	}
	return strings.Join(lines, "\n")
}

func (v DashboardView) renderProjects() string {
	t := theme.Current.Theme
	lines := []string{theme.Current.Styles.PanelTitle.Render("Recent Projects")}
	if len(v.data.RecentProjects) == 0 {
		return strings.Join(append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render("No projects yet.")), "\n")
	}

	const barWidth = 20
	for i := range v.data.RecentProjects {
		p := &v.data.RecentProjects[i]
		filled := p.Progress() * barWidth / 100
		if filled > barWidth {
			filled = barWidth
		}
		bar := lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", filled)) +
			lipgloss.NewStyle().Foreground(t.Subtle).Render(strings.Repeat("░", barWidth-filled))
		lines = append(lines, fmt.Sprintf("%-20s %s %3d%%  %d/%d",
			truncate(p.Name, 20), bar, p.Progress(), p.CompletedTasksCount, p.TasksCount))
	}
	return strings.Join(lines, "\n")
}
