package chat

// Viewport derives the compact/full layout mode from an injected width query
// and tracks whether the conversation list pane is visible. On a full-width
// layout the list is always shown; on a compact layout the user toggles
// between list and detail.
type Viewport struct {
	width      func() int
	breakpoint int
	listHidden bool
}

// NewViewport creates a coordinator. width is queried on every decision so
// resizes take effect immediately; breakpoint is the largest width still
// considered compact.
func NewViewport(width func() int, breakpoint int) *Viewport {
	return &Viewport{width: width, breakpoint: breakpoint}
}

// IsCompact reports whether the layout is in compact (single-pane) mode.
func (v *Viewport) IsCompact() bool {
	return v.width() <= v.breakpoint
}

// ListVisible reports whether the conversation list pane should be rendered.
func (v *Viewport) ListVisible() bool {
	if !v.IsCompact() {
		return true
	}
	return !v.listHidden
}

// ToggleList flips list visibility on a compact layout. No-op otherwise.
func (v *Viewport) ToggleList() {
	if !v.IsCompact() {
		return
	}
	v.listHidden = !v.listHidden
}

// CollapseList hides the list on a compact layout, used when the user
// interacts with the conversation detail pane. No-op otherwise.
func (v *Viewport) CollapseList() {
	if !v.IsCompact() {
		return
	}
	v.listHidden = true
}

// ShowList makes the list visible again on a compact layout.
func (v *Viewport) ShowList() {
	v.listHidden = false
}
