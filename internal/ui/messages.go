package ui

// View represents the current active view
type View int

const (
	ViewBoard View = iota
	ViewDashboard
	ViewSearch
	ViewHelp
)

// String returns the display name for a view
func (v View) String() string {
	switch v {
	case ViewBoard:
		return "Board"
	case ViewDashboard:
		return "Dashboard"
	case ViewSearch:
		return "Search"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// ThemeChangedMsg reports the theme that ctrl+t switched to
type ThemeChangedMsg struct {
	ThemeName string
}
