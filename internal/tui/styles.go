package tui

import "github.com/charmbracelet/lipgloss"

var (
	appStyle = lipgloss.NewStyle().Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334455"))

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("#0AF"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			Bold(true).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCC"))

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0AF")).
				Background(lipgloss.Color("#224"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000")).
			Background(lipgloss.Color("#FD0"))

	currentMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#0AF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0AF", Dark: "#0AF"})

	modeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#0AF")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#0AF")).
			Padding(1, 2)

	errorModalStyle = modalStyle.
			BorderForeground(lipgloss.Color("#F55"))

	// Rendered note styles.
	h1Style          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFF")).Underline(true)
	h2Style          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DDD"))
	h3Style          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AAA"))
	boldStyle        = lipgloss.NewStyle().Bold(true)
	italicStyle      = lipgloss.NewStyle().Italic(true)
	underlineStyle   = lipgloss.NewStyle().Underline(true)
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F80")).Italic(true)
	lineCursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0AF"))
)
