package views

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/michal94mk/taskflow/internal/apperr"
	"github.com/michal94mk/taskflow/internal/model"
	"github.com/michal94mk/taskflow/internal/search"
	"github.com/michal94mk/taskflow/internal/ui/theme"
)

// SearchSource is what the search view needs from the searcher
type SearchSource interface {
	Search(ctx context.Context, user *model.User, query string) (*search.Results, error)
}

type searchResultsMsg struct {
	query   string
	results *search.Results
}

type searchErrorMsg struct{ err error }

// SearchView runs a query and lists matching tasks and projects
type SearchView struct {
	src    SearchSource
	user   *model.User
	width  int
	height int

	input   textinput.Model
	query   string
	results *search.Results
	cursor  int
	errText string
}

// NewSearchView creates a search view for user
func NewSearchView(src SearchSource, user *model.User) SearchView {
	ti := textinput.New()
	ti.Placeholder = "Search tasks and projects..."
	ti.CharLimit = 512
	ti.Focus()

	return SearchView{src: src, user: user, input: ti}
}

// Init starts the cursor blinking
func (v SearchView) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize sets the view dimensions
func (v SearchView) SetSize(width, height int) SearchView {
	v.width = width
	v.height = height
	v.input.Width = width - 6
	return v
}

// IsInputMode reports whether keystrokes go to the query box
func (v SearchView) IsInputMode() bool {
	return v.input.Focused()
}

func (v SearchView) run(query string) tea.Cmd {
	src, user := v.src, v.user
	return func() tea.Msg {
		res, err := src.Search(context.Background(), user, query)
		if err != nil {
			return searchErrorMsg{err: err}
		}
		return searchResultsMsg{query: query, results: res}
	}
}

// rows flattens the results, tasks first
func (v SearchView) rows() []search.ResultRow {
	if v.results == nil {
		return nil
	}
	rows := make([]search.ResultRow, 0, len(v.results.Tasks)+len(v.results.Projects))
	rows = append(rows, v.results.Tasks...)
	return append(rows, v.results.Projects...)
}

// Update handles messages
func (v SearchView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchResultsMsg:
		v.query = msg.query
		v.results = msg.results
		v.cursor = 0
		v.errText = ""
		return v, nil

	case searchErrorMsg:
		v.results = nil
		v.errText = errorText(msg.err)
		return v, nil

	case tea.KeyMsg:
		if v.input.Focused() {
			switch msg.String() {
			case "enter":
				v.input.Blur()
				return v, v.run(v.input.Value())
			case "esc":
				v.input.Blur()
				return v, nil
			}
			var cmd tea.Cmd
			v.input, cmd = v.input.Update(msg)
			return v, cmd
		}

		switch msg.String() {
		case "/", "i":
			v.input.Focus()
			return v, textinput.Blink
		case "j", "down":
			if v.cursor < len(v.rows())-1 {
				v.cursor++
			}
		case "k", "up":
			if v.cursor > 0 {
				v.cursor--
			}
		case "r":
			return v, v.run(v.input.Value())
		}
	}
	return v, nil
}

// errorText renders validation failures by field, in a stable order
func errorText(err error) string {
	ve, ok := apperr.AsValidation(err)
	if !ok {
		return "Error: " + err.Error()
	}
	fields := make([]string, 0, len(ve.Fields))
	for f := range ve.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, ve.Fields[f])
	}
	return strings.Join(msgs, " ")
}

// View renders the query box and the grouped results
func (v SearchView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	t := theme.Current.Theme
	s := theme.Current.Styles

	box := s.Input
	if v.input.Focused() {
		box = s.InputFocused
	}
	sections := []string{box.Width(v.width - 4).Render(v.input.View()), ""}

	switch {
	case v.errText != "":
		sections = append(sections, lipgloss.NewStyle().Foreground(t.Error).Render(v.errText))
	case v.results == nil:
		sections = append(sections, s.Label.Render("Type a query and press enter."))
	case len(v.results.Tasks) == 0 && len(v.results.Projects) == 0:
		sections = append(sections, s.Label.Render(fmt.Sprintf("No results for %q.", v.query)))
	default:
		sections = append(sections, v.renderGroup("Tasks", v.results.Tasks, 0))
		sections = append(sections, "", v.renderGroup("Projects", v.results.Projects, len(v.results.Tasks)))
	}

	hints := "enter: search  esc: results"
	if !v.input.Focused() {
		hints = "/: edit query  j/k: move  r: rerun"
	}
	sections = append(sections, "", s.Label.Render(hints))
	return strings.Join(sections, "\n")
}

func (v SearchView) renderGroup(title string, rows []search.ResultRow, offset int) string {
	t := theme.Current.Theme
	s := theme.Current.Styles

	lines := []string{s.Subtitle.Render(fmt.Sprintf("%s (%d)", title, len(rows)))}
	if len(rows) == 0 {
		return strings.Join(append(lines, s.Label.Render("  none")), "\n")
	}
	for i, r := range rows {
		line := r.Title
		var meta []string
		for _, m := range []string{r.Project, r.Status, r.Priority} {
			if m != "" {
				meta = append(meta, m)
			}
		}
		if len(meta) > 0 {
			line += lipgloss.NewStyle().Foreground(t.Subtle).Render("  " + strings.Join(meta, " · "))
		}
		style := s.TaskNormal
		if offset+i == v.cursor && !v.input.Focused() {
			style = s.TaskSelected
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}
