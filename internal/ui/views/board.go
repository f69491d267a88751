package views

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/michal94mk/taskflow/internal/board"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/ui/theme"
)

// BoardSource is what the board view needs from the board service
type BoardSource interface {
	Assemble(ctx context.Context, user *model.User, f board.Filter) ([]board.Column, error)
	ProjectOptions(ctx context.Context, user *model.User) ([]model.Project, error)
	MoveTask(ctx context.Context, user *model.User, taskID, statusID string) (*model.Task, error)
}

type boardLoadedMsg struct {
	columns  []board.Column
	projects []model.Project
}

type boardErrorMsg struct{ err error }

type taskMovedMsg struct{ task *model.Task }

// BoardView is the kanban board: one column per task status
type BoardView struct {
	src    BoardSource
	user   *model.User
	now    func() time.Time
	width  int
	height int

	columns  []board.Column
	projects []model.Project

	// projectIdx is -1 for all projects
	projectIdx int

	currentColumn int
	cursorRow     int
	columnScroll  []int

	statusMsg string
}

// NewBoardView creates a board view for user
func NewBoardView(src BoardSource, user *model.User) BoardView {
	return BoardView{
		src:        src,
		user:       user,
		now:        time.Now,
		projectIdx: -1,
	}
}

// Init loads the board
func (v BoardView) Init() tea.Cmd {
	return v.load()
}

// SetSize sets the view dimensions
func (v BoardView) SetSize(width, height int) BoardView {
	v.width = width
	v.height = height
	return v
}

func (v BoardView) filter() board.Filter {
	if v.projectIdx < 0 || v.projectIdx >= len(v.projects) {
		return board.Filter{}
	}
	return board.Filter{ProjectID: v.projects[v.projectIdx].ID}
}

func (v BoardView) load() tea.Cmd {
	src, user, f := v.src, v.user, v.filter()
	return func() tea.Msg {
		ctx := context.Background()
		cols, err := src.Assemble(ctx, user, f)
		if err != nil {
			return boardErrorMsg{err: err}
		}
		projects, err := src.ProjectOptions(ctx, user)
		if err != nil {
			return boardErrorMsg{err: err}
		}
		return boardLoadedMsg{columns: cols, projects: projects}
	}
}

// Update handles messages
func (v BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		v.columns = msg.columns
		v.projects = msg.projects
		if len(v.columnScroll) != len(v.columns) {
			v.columnScroll = make([]int, len(v.columns))
		}
		if v.currentColumn >= len(v.columns) {
			v.currentColumn = 0
		}
		v.clampCursor()
		return v, nil

	case boardErrorMsg:
		v.statusMsg = "Error: " + msg.err.Error()
		return v, nil

	case taskMovedMsg:
		v.statusMsg = fmt.Sprintf("Moved %q to %s", msg.task.Title, statusName(msg.task))
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v BoardView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""
	switch msg.String() {
	case "h", "left":
		if v.currentColumn > 0 {
			v.currentColumn--
			v.clampCursor()
		}
	case "l", "right":
		if v.currentColumn < len(v.columns)-1 {
			v.currentColumn++
			v.clampCursor()
		}
	case "k", "up":
		if v.cursorRow > 0 {
			v.cursorRow--
			v.ensureCursorVisible()
		}
	case "j", "down":
		if v.cursorRow < len(v.currentTasks())-1 {
			v.cursorRow++
			v.ensureCursorVisible()
		}
	case "H":
		return v, v.moveTask(-1)
	case "L":
		return v, v.moveTask(1)
	case "p":
		// Cycle: all projects, then each project in turn
		v.projectIdx++
		if v.projectIdx >= len(v.projects) {
			v.projectIdx = -1
		}
		v.cursorRow = 0
		return v, v.load()
	case "r":
		return v, v.load()
	}
	return v, nil
}

func (v BoardView) currentTasks() []model.Task {
	if v.currentColumn < 0 || v.currentColumn >= len(v.columns) {
		return nil
	}
	return v.columns[v.currentColumn].Tasks
}

// SelectedTask returns the task under the cursor, if any
func (v BoardView) SelectedTask() *model.Task {
	tasks := v.currentTasks()
	if v.cursorRow < 0 || v.cursorRow >= len(tasks) {
		return nil
	}
	return &tasks[v.cursorRow]
}

// moveTask moves the current task to the adjacent status column
func (v BoardView) moveTask(direction int) tea.Cmd {
	task := v.SelectedTask()
	target := v.currentColumn + direction
	if task == nil || target < 0 || target >= len(v.columns) {
		return nil
	}

	src, user := v.src, v.user
	taskID, statusID := task.ID, v.columns[target].Status.ID
	return func() tea.Msg {
		moved, err := src.MoveTask(context.Background(), user, taskID, statusID)
		if err != nil {
			return boardErrorMsg{err: err}
		}
		return taskMovedMsg{task: moved}
	}
}

func (v *BoardView) clampCursor() {
	tasks := v.currentTasks()
	if v.cursorRow >= len(tasks) {
		v.cursorRow = len(tasks) - 1
	}
	if v.cursorRow < 0 {
		v.cursorRow = 0
	}
	v.ensureCursorVisible()
}

// ensureCursorVisible adjusts scroll to keep cursor in view
func (v *BoardView) ensureCursorVisible() {
	if v.currentColumn >= len(v.columnScroll) {
		return
	}
	visible := v.visibleItemCount()
	col := v.currentColumn
	if v.cursorRow >= v.columnScroll[col]+visible {
		v.columnScroll[col] = v.cursorRow - visible + 1
	}
	if v.cursorRow < v.columnScroll[col] {
		v.columnScroll[col] = v.cursorRow
	}
}

// visibleItemCount returns how many cards fit in a column. Each card
// takes two lines; header, borders and scroll hints take seven.
func (v *BoardView) visibleItemCount() int {
	n := (v.height - 7) / 2
	if n < 1 {
		return 1
	}
	return n
}

func statusName(t *model.Task) string {
	if t.TaskStatus == nil {
		return "new status"
	}
	return t.TaskStatus.Name
}

// FilterLabel describes the active project filter
func (v BoardView) FilterLabel() string {
	if v.projectIdx < 0 || v.projectIdx >= len(v.projects) {
		return "All projects"
	}
	return v.projects[v.projectIdx].Name
}

// View renders the board
func (v BoardView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	if len(v.columns) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Current.Theme.Subtle).Render("No statuses defined.")
	}

	t := theme.Current.Theme

	// Show as many columns as fit, keeping the current one in view
	colWidth := 28
	numVisible := (v.width - 2) / colWidth
	if numVisible < 1 {
		numVisible = 1
	}
	if numVisible > len(v.columns) {
		numVisible = len(v.columns)
	}
	colWidth = (v.width - 2) / numVisible
	startCol := 0
	if v.currentColumn >= numVisible {
		startCol = v.currentColumn - numVisible + 1
	}
	endCol := startCol + numVisible

	columnStyle := lipgloss.NewStyle().
		Width(colWidth - 2).
		Height(v.height - 5).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)

	visible := v.visibleItemCount()
	now := v.now()

	var cols []string
	for i := startCol; i < endCol; i++ {
		col := v.columns[i]
		active := i == v.currentColumn

		header := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Color(col.Status.Color)).
			Width(colWidth - 2).
			Align(lipgloss.Center)
		if active {
			header = header.Background(t.Highlight)
		}

		scroll := 0
		if i < len(v.columnScroll) {
			scroll = v.columnScroll[i]
		}
		start, end := scroll, scroll+visible
		if start > len(col.Tasks) {
			start = len(col.Tasks)
		}
		if end > len(col.Tasks) {
			end = len(col.Tasks)
		}

		items := []string{header.Render(fmt.Sprintf("%s (%d)", col.Status.Name, len(col.Tasks)))}
		if scroll > 0 {
			items = append(items, v.scrollHint(colWidth, fmt.Sprintf("↑ %d more", scroll)))
		}
		for j := start; j < end; j++ {
			items = append(items, v.renderCard(&col.Tasks[j], colWidth-4, active && j == v.cursorRow, now))
		}
		if end < len(col.Tasks) {
			items = append(items, v.scrollHint(colWidth, fmt.Sprintf("↓ %d more", len(col.Tasks)-end)))
		}
		if len(col.Tasks) == 0 {
			items = append(items, v.scrollHint(colWidth, "empty"))
		}

		cols = append(cols, columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, items...)))
	}

	footer := theme.Current.Styles.Label.Render(fmt.Sprintf(
		"Project: %s  •  h/l: column  j/k: task  H/L: move  p: project  r: refresh", v.FilterLabel()))
	if v.statusMsg != "" {
		footer = theme.Current.Styles.DueDate.Render(v.statusMsg)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		footer,
	)
}

func (v BoardView) scrollHint(colWidth int, text string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Theme.Subtle).
		Width(colWidth - 4).
		Align(lipgloss.Center).
		Render(text)
}

// renderCard draws a task as two lines: priority marker and title, then
// project and due date
func (v BoardView) renderCard(task *model.Task, width int, selected bool, now time.Time) string {
	t := theme.Current.Theme

	card := lipgloss.NewStyle().Width(width).Padding(0, 1).Foreground(t.Foreground)
	if selected {
		card = card.Background(t.Highlight)
	}

	marker := lipgloss.NewStyle().Foreground(t.Color(task.PriorityColor())).Render("●")
	title := truncate(task.Title, width-4)

	var meta string
	if task.Project != nil {
		meta = lipgloss.NewStyle().Foreground(t.Secondary).Render(truncate(task.Project.Name, width/2))
	}
	if task.DueDate != nil {
		due := task.DueDate.Format("Jan 2")
		style := lipgloss.NewStyle().Foreground(t.Subtle)
		if task.IsOverdueAt(now) {
			style = theme.Current.Styles.TaskOverdue
		}
		if meta != "" {
			meta += " "
		}
		meta += style.Render(due)
	}

	return card.Render(marker + " " + title + "\n  " + meta)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit < 2 || len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
