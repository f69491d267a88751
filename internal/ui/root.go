package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/ui/theme"
	"github.com/michal94mk/taskflow/internal/ui/views"
)

// Deps are the services the views read from, and the user they act as
type Deps struct {
	Board     views.BoardSource
	Analytics views.DashboardSource
	Search    views.SearchSource
	User      *model.User
}

// RootModel is the main application model that manages views
type RootModel struct {
	user   *model.User
	keys   KeyMap
	help   help.Model
	width  int
	height int

	currentView   View
	boardView     views.BoardView
	dashboardView views.DashboardView
	searchView    views.SearchView
	helpVisible   bool

	// Status message
	statusMsg string
}

// NewRootModel creates a new root model
func NewRootModel(deps Deps) RootModel {
	h := help.New()
	h.ShowAll = true

	return RootModel{
		user:          deps.User,
		keys:          DefaultKeyMap(),
		help:          h,
		currentView:   ViewBoard,
		boardView:     views.NewBoardView(deps.Board, deps.User),
		dashboardView: views.NewDashboardView(deps.Analytics, deps.User),
		searchView:    views.NewSearchView(deps.Search, deps.User),
	}
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	return m.boardView.Init()
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (1 line) and footer (2 lines)
		contentHeight := m.height - 3
		m.boardView = m.boardView.SetSize(m.width, contentHeight)
		m.dashboardView = m.dashboardView.SetSize(m.width, contentHeight)
		m.searchView = m.searchView.SetSize(m.width, contentHeight)

	case tea.KeyMsg:
		m.statusMsg = ""

		isInputMode := m.currentView == ViewSearch && m.searchView.IsInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// q is a character while typing a query
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.ThemeCycle):
			return m, cycleTheme()
		}

		if isInputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help, m.keys.Back) {
				m.helpVisible = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = true
			return m, nil
		case key.Matches(msg, m.keys.BoardView):
			m.currentView = ViewBoard
			return m, m.boardView.Init()
		case key.Matches(msg, m.keys.DashboardView):
			m.currentView = ViewDashboard
			return m, m.dashboardView.Init()
		case key.Matches(msg, m.keys.SearchView):
			// From the results list, / goes back to editing the query
			if m.currentView == ViewSearch && msg.String() == "/" {
				break
			}
			m.currentView = ViewSearch
			return m, m.searchView.Init()
		}

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", msg.ThemeName)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewBoard:
		var v tea.Model
		v, cmd = m.boardView.Update(msg)
		m.boardView = v.(views.BoardView)
	case ViewDashboard:
		var v tea.Model
		v, cmd = m.dashboardView.Update(msg)
		m.dashboardView = v.(views.DashboardView)
	case ViewSearch:
		var v tea.Model
		v, cmd = m.searchView.Update(msg)
		m.searchView = v.(views.SearchView)
	}
	return m, cmd
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentHeight := m.height - 3
	if m.statusMsg != "" {
		contentHeight--
	}

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewBoard:
			content = m.boardView.View()
		case ViewDashboard:
			content = m.dashboardView.View()
		case ViewSearch:
			content = m.searchView.View()
		default:
			content = theme.Current.Styles.Panel.Render("View not implemented")
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}

	return strings.Join([]string{m.renderHeader(), content, m.renderFooter()}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("taskflow")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	current := m.currentView
	if m.helpVisible {
		current = ViewHelp
	}
	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewStyle.Render(fmt.Sprintf("[%s]", current)))

	var right []string
	if m.user != nil {
		right = append(right, m.user.Name)
	}
	right = append(right, "theme: "+t.Name)
	rightSide := viewStyle.Render(strings.Join(right, "  "))

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the status line and the key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	hint := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var lines []string
	if m.statusMsg != "" {
		lines = append(lines, styles.Footer.Foreground(t.Info).Render(m.statusMsg))
	}

	switch {
	case m.helpVisible:
		lines = append(lines, hint("?/esc", "close help"))
	case m.currentView == ViewSearch && m.searchView.IsInputMode():
		lines = append(lines, hint("enter", "search")+sep+hint("esc", "results")+sep+hint("ctrl+c", "quit"))
	default:
		lines = append(lines, hint("1", "board")+sep+
			hint("2", "dashboard")+sep+
			hint("3", "search")+sep+
			hint("ctrl+t", "theme")+sep+
			hint("?", "help")+sep+
			hint("q", "quit"))
	}
	lines[len(lines)-1] = styles.Footer.Render(lines[len(lines)-1])
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay from the key map
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1).Render("TaskFlow Help")
	return lipgloss.JoinVertical(lipgloss.Left, title, m.help.View(m.keys))
}

// cycleTheme switches to the next available theme and reports it
func cycleTheme() tea.Cmd {
	next := theme.Next()
	theme.SetTheme(next)
	return func() tea.Msg {
		return ThemeChangedMsg{ThemeName: next.Name}
	}
}
