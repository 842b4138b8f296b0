// Package main provides the PaperChat CLI entry point.
// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/loicSchussler/PaperChat/cmd/paperchat/ui"
	"github.com/loicSchussler/PaperChat/internal/api"
	"github.com/loicSchussler/PaperChat/internal/chat"
	"github.com/loicSchussler/PaperChat/internal/config"
	"github.com/loicSchussler/PaperChat/internal/usage"
)

// chatModel is the main model for the interactive chat interface
type chatModel struct {
	// UI Components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// Session backend
	client     *api.Client
	store      *chat.Store
	controller *chat.Controller
	panes      *chat.Viewport
	tracker    *usage.Tracker
	logger     *zap.Logger

	// State
	width    int
	height   int
	widthRef *int // shared with the pane coordinator's width query
	ready    bool
	selected int // cursor into the conversation list

	// Pending delete confirmation, nil when none. A delete never reaches
	// the backend without an explicit y from the user.
	confirmDelete *int64

	sessionID string
	cfg       config.Config
}

// gatewayMsg carries a resolved backend call back onto the update loop.
type gatewayMsg struct {
	ev chat.Event
}

// statsMsg carries the backend's monitoring numbers for the /stats command.
type statsMsg struct {
	stats *api.MonitoringStats
	err   error
}

// initChat initializes the interactive chat model
func initChat(client *api.Client, tracker *usage.Tracker, cfg config.Config, logger *zap.Logger) chatModel {
	styles := ui.DefaultStyles()
	if cfg.Theme == "dark" {
		styles = ui.NewStyles(ui.DarkTheme())
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your papers... (Enter to send, /help for commands)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = chat.MaxQuestionLength
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(80),
		)
	}

	// The pane coordinator queries the current width through a shared
	// pointer so resizes take effect without rebuilding it.
	widthRef := new(int)
	*widthRef = 80
	panes := chat.NewViewport(func() int { return *widthRef }, ui.CompactModeWidth)

	store := chat.NewStore()
	controller := chat.NewController(store, client, panes, logger)

	return chatModel{
		textinput:  ti,
		viewport:   vp,
		spinner:    sp,
		styles:     styles,
		renderer:   renderer,
		client:     client,
		store:      store,
		controller: controller,
		panes:      panes,
		tracker:    tracker,
		logger:     logger,
		widthRef:   widthRef,
		sessionID:  fmt.Sprintf("sess_%d", time.Now().UnixNano()),
		cfg:        cfg,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.runGateway(m.controller.RefreshList()),
	)
}

// runGateway executes a deferred backend call off the update loop and feeds
// the outcome back as a gatewayMsg.
func (m chatModel) runGateway(cmd chat.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return gatewayMsg{ev: cmd(ctx)}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// A pending delete confirmation captures y/n before anything else.
		if m.confirmDelete != nil {
			return m.handleDeleteConfirmation(msg)
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlN:
			m.controller.StartNew()
			m.selected = 0
			m.viewport.SetContent(m.renderHistory())
			m.textinput.Reset()
			return m, nil

		case tea.KeyCtrlL:
			m.panes.ToggleList()
			return m, nil

		case tea.KeyCtrlK:
			if m.selected > 0 {
				m.selected--
			}
			return m, nil

		case tea.KeyCtrlJ:
			if m.selected < len(m.store.List())-1 {
				m.selected++
			}
			return m, nil

		case tea.KeyCtrlO:
			return m.openSelected()

		case tea.KeyEnter:
			return m.handleSubmit()
		}

		m.textinput, tiCmd = m.textinput.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		*m.widthRef = msg.Width

		layout := ui.NewLayoutConfig(msg.Width, msg.Height)
		_, detailWidth := layout.PaneWidths()

		if !m.ready {
			m.viewport = viewport.New(detailWidth, layout.ContentHeight())
			m.ready = true
		} else {
			m.viewport.Width = detailWidth
			m.viewport.Height = layout.ContentHeight()
		}

		m.textinput.Width = msg.Width - ui.ViewportHorizontalPadding

		if m.renderer != nil {
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(layout.WrapWidth()),
			)
		}
		m.viewport.SetContent(m.renderHistory())

	case spinner.TickMsg:
		if m.controller.InFlight() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}

	case gatewayMsg:
		return m.handleGatewayEvent(msg.ev)

	case statsMsg:
		if msg.err != nil {
			m.viewport.SetContent(m.styles.Error.Render("Error: " + api.UserMessage(msg.err)))
			return m, nil
		}
		m.viewport.SetContent(m.renderStats(msg.stats))
		m.viewport.GotoTop()
		return m, nil
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

// handleGatewayEvent applies a resolved backend call and schedules any
// follow-up the controller hands back.
func (m chatModel) handleGatewayEvent(ev chat.Event) (tea.Model, tea.Cmd) {
	var follow chat.Cmd

	switch ev := ev.(type) {
	case chat.AskResolved:
		follow = m.controller.HandleAskResolved(ev)
		if ev.Err == nil && m.tracker != nil {
			m.tracker.Track(usage.QueryEvent{
				Timestamp:      time.Now(),
				SessionID:      m.sessionID,
				ConversationID: ev.Resp.ConversationID,
				CostUSD:        ev.Resp.CostUSD,
				ResponseTimeMS: ev.Resp.ResponseTimeMS,
			})
		}

	case chat.ConversationFetched:
		m.controller.HandleConversationFetched(ev)
		if ev.Err == nil {
			// Opening a conversation on a compact layout lands the user
			// on the message history, not the list.
			m.panes.CollapseList()
		}

	case chat.ListRefreshed:
		m.controller.HandleListRefreshed(ev)
		if max := len(m.store.List()) - 1; m.selected > max {
			m.selected = 0
		}

	case chat.ConversationDeleted:
		follow = m.controller.HandleConversationDeleted(ev)

	case chat.TitleUpdated:
		follow = m.controller.HandleTitleUpdated(ev)
	}

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	return m, m.runGateway(follow)
}

// handleDeleteConfirmation resolves a pending delete prompt.
func (m chatModel) handleDeleteConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		id := *m.confirmDelete
		m.confirmDelete = nil
		return m, m.runGateway(m.controller.Delete(id))
	case "n", "esc", "ctrl+c":
		m.confirmDelete = nil
		return m, nil
	}
	return m, nil
}

func (m chatModel) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textinput.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	askCmd, err := m.controller.Ask(input)
	if err != nil {
		// Validation and in-flight rejections surface through LastError;
		// the composer keeps its content so nothing is lost.
		return m, nil
	}

	m.textinput.Reset()
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.spinner.Tick,
		m.runGateway(askCmd),
	)
}

func (m chatModel) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]
	m.textinput.Reset()

	switch cmd {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/new":
		m.controller.StartNew()
		m.selected = 0
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case "/open":
		if len(parts) < 2 {
			return m.openSelected()
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 || n > len(m.store.List()) {
			return m, nil
		}
		m.selected = n - 1
		return m.openSelected()

	case "/delete":
		id := m.store.ActiveID()
		if len(parts) >= 2 {
			if n, err := strconv.Atoi(parts[1]); err == nil && n >= 1 && n <= len(m.store.List()) {
				id = m.store.List()[n-1].ID
			}
		}
		if id == 0 {
			// A draft has nothing to delete.
			return m, nil
		}
		m.confirmDelete = &id
		return m, nil

	case "/rename":
		if m.store.IsDraft() {
			return m, nil
		}
		title := strings.TrimSpace(strings.TrimPrefix(input, "/rename"))
		renameCmd, err := m.controller.Rename(m.store.ActiveID(), title)
		if err != nil {
			return m, nil
		}
		return m, m.runGateway(renameCmd)

	case "/scope":
		if len(parts) < 2 || parts[1] == "all" {
			m.controller.ScopeToPapers(nil)
			return m, nil
		}
		var ids []int64
		for _, field := range strings.Split(parts[1], ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return m, nil
			}
			ids = append(ids, id)
		}
		m.controller.ScopeToPapers(ids)
		return m, nil

	case "/sources":
		if len(parts) < 2 {
			return m, nil
		}
		if n, err := strconv.Atoi(parts[1]); err == nil && n >= 0 {
			m.controller.SetMaxSources(n)
		}
		return m, nil

	case "/refresh":
		return m, m.runGateway(m.controller.RefreshList())

	case "/stats":
		timeout := m.cfg.Timeout()
		client := m.client
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			stats, err := client.GetStats(ctx)
			return statsMsg{stats: stats, err: err}
		}

	case "/help":
		m.viewport.SetContent(m.renderHelp())
		m.viewport.GotoTop()
		return m, nil
	}

	return m, nil
}

// openSelected fetches the conversation under the list cursor.
func (m chatModel) openSelected() (tea.Model, tea.Cmd) {
	list := m.store.List()
	if m.selected < 0 || m.selected >= len(list) {
		return m, nil
	}
	return m, m.runGateway(m.controller.Select(list[m.selected].ID))
}

func (m chatModel) renderHelp() string {
	help := `## PaperChat Commands

| Command | Description |
|---------|-------------|
| /new | Start a new conversation |
| /open [n] | Open the selected (or nth) conversation |
| /delete [n] | Delete the active (or nth) conversation |
| /rename <title> | Rename the active conversation |
| /scope 1,2,3 | Restrict questions to the given papers (/scope all resets) |
| /sources <n> | Citations requested per answer |
| /refresh | Reload the conversation list |
| /stats | Show backend usage statistics |
| /help | Show this help |
| /quit, /exit, /q | Exit |

## Keybindings
| Key | Description |
|-----|-------------|
| Enter | Send question |
| Ctrl+N | New conversation |
| Ctrl+L | Toggle conversation list (narrow terminals) |
| Ctrl+J / Ctrl+K | Move list selection |
| Ctrl+O | Open selected conversation |
| Ctrl+C / Esc | Exit |
`
	return m.safeRenderMarkdown(help)
}

func (m chatModel) renderStats(stats *api.MonitoringStats) string {
	body := fmt.Sprintf(`## Library Statistics

- **Papers indexed**: %d (%d chunks)
- **Questions answered**: %d (%d today)
- **Total cost**: $%.4f
- **Avg response time**: %.0fms
`, stats.TotalPapers, stats.TotalChunks, stats.TotalQueries, stats.QueriesToday,
		stats.TotalCostUSD, stats.AvgResponseTimeMS)
	return m.safeRenderMarkdown(body)
}

func (m chatModel) renderHistory() string {
	var sb strings.Builder

	messages := m.store.Messages()
	if len(messages) == 0 {
		sb.WriteString(m.styles.Muted.Render("New conversation. Ask a question about your papers."))
		return sb.String()
	}

	for _, msg := range messages {
		if msg.Role == api.RoleUser {
			userStyle := m.styles.Bold.
				Foreground(m.styles.Theme.Primary).
				MarginTop(1)
			sb.WriteString(userStyle.Render("You") + "\n")
			sb.WriteString(m.styles.UserInput.Render(msg.Content))
			sb.WriteString("\n\n")
			continue
		}

		assistantStyle := m.styles.Bold.
			Foreground(m.styles.Theme.Accent).
			MarginTop(1)
		sb.WriteString(assistantStyle.Render("📚 PaperChat") + "\n")
		sb.WriteString(m.safeRenderMarkdown(msg.Content))
		sb.WriteString("\n")

		for i, src := range msg.Sources {
			citation := fmt.Sprintf("[%d] %s (%d), %s · relevance %.2f",
				i+1, src.PaperTitle, src.PaperYear, src.SectionName, src.RelevanceScore)
			sb.WriteString(m.styles.Citation.Render(citation) + "\n")
		}

		if msg.CostUSD > 0 || msg.ResponseTimeMS > 0 {
			meta := fmt.Sprintf("$%.4f · %dms", msg.CostUSD, msg.ResponseTimeMS)
			sb.WriteString(m.styles.Muted.Render(meta) + "\n")
		}
	}

	return sb.String()
}

// safeRenderMarkdown renders markdown with panic recovery
func (m chatModel) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m chatModel) renderSidebar(width, height int) string {
	var sb strings.Builder

	sb.WriteString(m.styles.Title.Render("Conversations") + "\n")

	list := m.store.List()
	if len(list) == 0 {
		sb.WriteString(m.styles.Muted.Render("No conversations yet"))
	}

	for i, item := range list {
		title := item.Title
		if title == "" {
			title = fmt.Sprintf("Conversation %d", item.ID)
		}
		label := fmt.Sprintf("%s (%d)", title, item.MessageCount)
		if maxLen := width - 4; maxLen > 3 && len(label) > maxLen {
			label = label[:maxLen-1] + "…"
		}

		style := m.styles.ListItem
		if i == m.selected {
			style = m.styles.ListSelected
		}
		if item.ID == m.store.ActiveID() {
			label = "● " + label
		}
		sb.WriteString(style.Render(label) + "\n")
	}

	return m.styles.Sidebar.
		Width(width).
		Height(height).
		Render(sb.String())
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	layout := ui.NewLayoutConfig(m.width, m.height)

	header := m.renderHeader()

	chatView := m.styles.Content.Render(m.viewport.View())
	if m.controller.InFlight() {
		chatView += "\n" + m.styles.Spinner.Render(m.spinner.View()) + " Thinking..."
	}
	if lastErr := m.controller.LastError(); lastErr != "" {
		chatView += "\n" + m.styles.Error.Render("Error: "+lastErr)
	}

	var body string
	switch {
	case layout.IsCompact && m.panes.ListVisible():
		body = m.renderSidebar(m.width, layout.ContentHeight())
	case layout.IsCompact:
		body = chatView
	case m.panes.ListVisible():
		sidebarWidth, _ := layout.PaneWidths()
		body = lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderSidebar(sidebarWidth, layout.ContentHeight()),
			chatView,
		)
	default:
		body = chatView
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1)
	inputArea := inputStyle.Render(m.textinput.View())

	if m.confirmDelete != nil {
		inputArea = m.styles.Warning.Render(
			fmt.Sprintf("Delete conversation %d? (y/n)", *m.confirmDelete))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		body,
		inputArea,
		m.renderFooter(),
	)
}

func (m chatModel) renderHeader() string {
	title := m.styles.Header.Render(" 📚 PaperChat ")

	var conversation string
	if m.store.IsDraft() {
		conversation = m.styles.Badge.Render("new")
	} else {
		conversation = m.styles.Badge.Render(fmt.Sprintf("#%d", m.store.ActiveID()))
	}

	var status string
	if m.controller.InFlight() {
		status = m.styles.Warning.Render("● Asking")
	} else {
		status = m.styles.Success.Render("● Ready")
	}

	headerLine := lipgloss.JoinHorizontal(
		lipgloss.Center,
		title,
		" ",
		conversation,
		"  ",
		status,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		m.styles.RenderDivider(m.width),
	)
}

func (m chatModel) renderFooter() string {
	help := "Enter: send • Ctrl+N: new • Ctrl+J/K: select • Ctrl+O: open • /help: commands • Ctrl+C: exit"
	if ui.NewLayoutConfig(m.width, m.height).IsCompact {
		help = "Ctrl+L: list • " + help
	}
	return m.styles.Footer.MarginTop(1).Render(help)
}

// runInteractiveChat wires the session backend and runs the TUI.
func runInteractiveChat(paperScope []int64, maxSources int) error {
	dir, err := config.Dir()
	if err != nil {
		return fmt.Errorf("failed to resolve config dir: %w", err)
	}
	tracker, err := usage.NewTracker(dir)
	if err != nil {
		// Usage tracking is best-effort; the chat works without it.
		logger.Warn("usage tracker unavailable", zap.Error(err))
		tracker = nil
	}

	model := initChat(newClient(), tracker, cfg, logger)
	model.controller.ScopeToPapers(paperScope)
	model.controller.SetMaxSources(maxSources)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat interface failed: %w", err)
	}

	if tracker != nil {
		if err := tracker.Save(); err != nil {
			logger.Warn("failed to persist usage data", zap.Error(err))
		}
	}
	return nil
}
