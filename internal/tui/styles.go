package tui

import "github.com/charmbracelet/lipgloss"

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D32")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Theme holds the styles that depend on the terminal background
type Theme struct {
	Name       string
	RedCard    lipgloss.Style
	BlackCard  lipgloss.Style
	FaceDown   lipgloss.Style
	EmptySlot  lipgloss.Style
	Selected   lipgloss.Style
	Label      lipgloss.Style
	HintLabel  lipgloss.Style
	LogText    lipgloss.Style
	BorderDim  lipgloss.Color
	BorderLive lipgloss.Color
}

// NewTheme returns the styles for "dark" or "light". Anything else gets dark.
func NewTheme(name string) Theme {
	if name == "light" {
		return Theme{
			Name:       "light",
			RedCard:    lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828")).Bold(true),
			BlackCard:  lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Bold(true),
			FaceDown:   lipgloss.NewStyle().Foreground(lipgloss.Color("#1565C0")),
			EmptySlot:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E")),
			Selected:   lipgloss.NewStyle().Background(lipgloss.Color("#FFE082")),
			Label:      lipgloss.NewStyle().Foreground(lipgloss.Color("#757575")),
			HintLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32")).Bold(true).Underline(true),
			LogText:    lipgloss.NewStyle().Foreground(lipgloss.Color("#212121")),
			BorderDim:  lipgloss.Color("#BDBDBD"),
			BorderLive: lipgloss.Color("#2E7D32"),
		}
	}
	return Theme{
		Name:       "dark",
		RedCard:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		BlackCard:  lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0")).Bold(true),
		FaceDown:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5C6BC0")),
		EmptySlot:  lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		Selected:   lipgloss.NewStyle().Background(lipgloss.Color("#7D56F4")),
		Label:      lipgloss.NewStyle().Foreground(lipgloss.Color("#626262")),
		HintLabel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true).Underline(true),
		LogText:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		BorderDim:  lipgloss.Color("#626262"),
		BorderLive: lipgloss.Color("#04B575"),
	}
}
