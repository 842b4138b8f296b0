// Package ui layout constants for consistent spacing and dimensions
package ui

// Layout constants for viewport and panel sizing
const (
	// Viewport padding and margins
	ViewportHorizontalPadding = 4
	ViewportVerticalPadding   = 8

	// Chrome heights
	HeaderHeight = 3
	FooterHeight = 2
	InputHeight  = 3

	// Sidebar (conversation list) dimensions
	SidebarWidth    = 34
	SidebarMinWidth = 24

	// Responsive breakpoints
	MinimumTerminalWidth = 60
	CompactModeWidth     = 100

	// Content widths
	MinContentWidth = 40
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width <= CompactModeWidth,
	}
}

// ContentHeight returns the usable height for the chat viewport
func (l LayoutConfig) ContentHeight() int {
	h := l.TerminalHeight - HeaderHeight - FooterHeight - InputHeight
	if h < 1 {
		return 1
	}
	return h
}

// PaneWidths calculates sidebar and detail pane widths for the split view.
// On a compact layout one pane gets the full width.
func (l LayoutConfig) PaneWidths() (sidebarWidth, detailWidth int) {
	if l.IsCompact {
		return l.TerminalWidth, l.TerminalWidth
	}
	sidebarWidth = SidebarWidth
	if l.TerminalWidth-sidebarWidth < MinContentWidth {
		sidebarWidth = SidebarMinWidth
	}
	detailWidth = l.TerminalWidth - sidebarWidth - 1
	return sidebarWidth, detailWidth
}

// WrapWidth returns the word-wrap width for rendered markdown
func (l LayoutConfig) WrapWidth() int {
	_, detail := l.PaneWidths()
	w := detail - ViewportHorizontalPadding
	if w < MinContentWidth {
		w = MinContentWidth
	}
	return w
}
