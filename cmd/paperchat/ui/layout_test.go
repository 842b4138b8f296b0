package ui

import "testing"

func TestNewLayoutConfig_CompactBreakpoint(t *testing.T) {
	if !NewLayoutConfig(CompactModeWidth, 40).IsCompact {
		t.Fatalf("width at the breakpoint should be compact")
	}
	if NewLayoutConfig(CompactModeWidth+1, 40).IsCompact {
		t.Fatalf("width past the breakpoint should not be compact")
	}
}

func TestPaneWidths(t *testing.T) {
	layout := NewLayoutConfig(140, 40)
	sidebar, detail := layout.PaneWidths()
	if sidebar != SidebarWidth {
		t.Fatalf("sidebar width = %d, want %d", sidebar, SidebarWidth)
	}
	if sidebar+detail+1 != 140 {
		t.Fatalf("panes do not fill the terminal: %d + %d + 1 != 140", sidebar, detail)
	}

	compact := NewLayoutConfig(80, 40)
	sidebar, detail = compact.PaneWidths()
	if sidebar != 80 || detail != 80 {
		t.Fatalf("compact layout should give each pane the full width, got %d/%d", sidebar, detail)
	}
}

func TestContentHeightNeverZero(t *testing.T) {
	if got := NewLayoutConfig(80, 4).ContentHeight(); got < 1 {
		t.Fatalf("ContentHeight = %d, want >= 1", got)
	}
}
