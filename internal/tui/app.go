// Package tui provides the interactive Bubble Tea interface for rab.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/export"
	"github.com/theirongolddev/rab/internal/ingest"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/tui/components"
	"github.com/theirongolddev/rab/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Tab indices.
const (
	tabItems = iota
	tabSummary
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 100
	wideWidth        = 140
	maxContentWidth  = 180
	minContentHeight = 5
)

// eventMsg carries a budget event into the update loop.
type eventMsg budget.Event

// uploadDoneMsg is sent when a background upload finishes.
type uploadDoneMsg struct {
	File    string
	Outcome budget.Outcome
}

// exportDoneMsg is sent when an XLSX export finishes.
type exportDoneMsg struct {
	Path string
	Err  error
}

// Options configure the app.
type Options struct {
	// Ctx bounds uploads started from the UI.
	Ctx    context.Context
	Config config.Config
	// NeedSetup shows the first-run wizard before the main view.
	NeedSetup bool
	// ExportDir receives exported workbooks. Defaults to the working directory.
	ExportDir string
	// NewExtractor rebuilds the AI client after settings change. It must
	// return a nil interface when no key is configured.
	NewExtractor func(config.Config) budget.Extractor
	// SaveConfig persists settings. Defaults to config.Save.
	SaveConfig func(config.Config) error
	Now        func() time.Time
}

type bannerLevel int

const (
	bannerInfo bannerLevel = iota
	bannerSuccess
	bannerError
)

type banner struct {
	text  string
	level bannerLevel
}

// App is the root Bubble Tea model.
type App struct {
	svc    *budget.Service
	opts   Options
	cfg    config.Config
	events <-chan budget.Event
	unsub  func()

	// Derived from the service on every change
	summary model.Summary
	status  budget.Status

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	banner    banner

	// Per-tab state
	items    itemsState
	settings settingsState

	// Manual entry (huh form)
	entryForm *huh.Form
	entryVals *model.Entry

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues

	// Upload prompt and the in-flight upload
	prompting   bool
	uploadInput textinput.Model
	uploading   bool
	uploadFile  string
	spinner     spinner.Model
}

// NewApp creates the TUI model over svc.
func NewApp(svc *budget.Service, opts Options) App {
	if opts.Ctx == nil {
		opts.Ctx = context.Background()
	}
	if opts.SaveConfig == nil {
		opts.SaveConfig = config.Save
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	events, unsub := svc.Subscribe(32)

	a := App{
		svc:         svc,
		opts:        opts,
		cfg:         opts.Config,
		events:      events,
		unsub:       unsub,
		spinner:     sp,
		uploadInput: newUploadInput(),
		settings:    settingsState{input: newSettingsInput()},
	}
	if opts.NeedSetup {
		a.setupVals = newSetupValues(opts.Config)
		a.setupForm = newSetupForm(a.setupVals)
	}
	a.refresh()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		waitForEvent(a.events),
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// refresh pulls the summary and status from the service and clamps the cursor.
func (a *App) refresh() {
	a.summary = a.svc.Summary()
	a.status = a.svc.Status()

	if a.items.cursor >= len(a.summary.Rows) {
		a.items.cursor = len(a.summary.Rows) - 1
	}
	if a.items.cursor < 0 {
		a.items.cursor = 0
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.entryForm != nil {
			a.entryForm = a.entryForm.WithWidth(entryFormWidth(msg.Width))
		}
		return a, nil

	case tea.MouseMsg:
		if a.inputBlocked() || a.showHelp {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case eventMsg:
		a.refresh()
		return a, waitForEvent(a.events)

	case uploadDoneMsg:
		a.uploading = false
		a.uploadFile = ""
		a.refresh()
		if msg.Outcome.OK() {
			a.items.cursor, a.items.offset = 0, 0
			a.banner = banner{
				text:  fmt.Sprintf("%d item diimpor dari %s", len(msg.Outcome.Items), msg.File),
				level: bannerSuccess,
			}
		} else {
			a.banner = banner{text: msg.Outcome.Message, level: bannerError}
		}
		return a, nil

	case exportDoneMsg:
		if msg.Err != nil {
			a.banner = banner{text: "Gagal mengekspor: " + msg.Err.Error(), level: bannerError}
		} else {
			a.banner = banner{text: "Diekspor ke " + msg.Path, level: bannerSuccess}
		}
		return a, nil

	case spinner.TickMsg:
		if a.uploading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks etc.) to whatever has focus.
	switch {
	case a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.entryForm != nil:
		return a.updateEntryForm(msg)
	case a.prompting:
		var cmd tea.Cmd
		a.uploadInput, cmd = a.uploadInput.Update(msg)
		return a, cmd
	case a.settings.editing:
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// Close detaches the app from the service's event stream. It is safe to
// call more than once.
func (a App) Close() {
	if a.unsub != nil {
		a.unsub()
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.Close()
	return a, tea.Quit
}

// inputBlocked reports whether keys other than ctrl+c are ignored.
func (a App) inputBlocked() bool {
	return a.uploading
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a.quit()
	}

	if a.inputBlocked() {
		return a, nil
	}

	// Modal inputs intercept all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.entryForm != nil {
		if key == "esc" {
			a.entryForm = nil
			a.entryVals = nil
			return a, nil
		}
		return a.updateEntryForm(msg)
	}
	if a.prompting {
		return a.updateUploadPrompt(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if key == "esc" {
		a.banner = banner{}
		a.svc.ClearError()
		a.refresh()
		return a, nil
	}

	switch a.activeTab {
	case tabItems:
		if next, cmd, ok := a.updateItemsKey(key); ok {
			return next, cmd
		}
	case tabSettings:
		if next, cmd, ok := a.updateSettingsKey(key); ok {
			return next, cmd
		}
	}

	switch key {
	case "q":
		return a.quit()
	case "a":
		return a.openEntryForm()
	case "u":
		return a.openUploadPrompt()
	case "e":
		return a.startExport()
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if a.setupForm != nil || a.entryForm != nil || a.prompting {
		return a, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabItems && a.items.cursor > 0 {
			a.items.cursor--
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabItems && a.items.cursor < len(a.summary.Rows)-1 {
			a.items.cursor++
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// ─── Upload ─────────────────────────────────────────────────────

func newUploadInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "path/ke/rab.xlsx"
	ti.Prompt = "File: "
	ti.CharLimit = 1024
	ti.Width = 60
	return ti
}

func (a App) openUploadPrompt() (tea.Model, tea.Cmd) {
	a.prompting = true
	a.uploadInput = newUploadInput()
	a.uploadInput.Focus()
	return a, a.uploadInput.Cursor.BlinkCmd()
}

func (a App) updateUploadPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.prompting = false
		return a, nil
	case "enter":
		path := expandHome(strings.TrimSpace(a.uploadInput.Value()))
		a.prompting = false
		if path == "" {
			return a, nil
		}
		return a.startUpload(path)
	}

	var cmd tea.Cmd
	a.uploadInput, cmd = a.uploadInput.Update(msg)
	return a, cmd
}

func (a App) startUpload(path string) (tea.Model, tea.Cmd) {
	a.uploading = true
	a.uploadFile = filepath.Base(path)
	a.banner = banner{}
	return a, tea.Batch(a.spinner.Tick, uploadCmd(a.opts.Ctx, a.svc, path))
}

// uploadCmd reads path and runs the upload in the background.
func uploadCmd(ctx context.Context, svc *budget.Service, path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)

		f, err := os.Open(path)
		if err != nil {
			return uploadDoneMsg{File: name, Outcome: budget.Outcome{
				Err:     err,
				Message: "File tidak dapat dibuka: " + name,
			}}
		}
		defer f.Close()

		data, err := ingest.ReadAll(f)
		if err != nil {
			return uploadDoneMsg{File: name, Outcome: budget.Outcome{
				Err:     err,
				Message: budget.UserMessage(err),
			}}
		}

		return uploadDoneMsg{File: name, Outcome: svc.Upload(ctx, name, data)}
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// ─── Export ─────────────────────────────────────────────────────

func (a App) startExport() (tea.Model, tea.Cmd) {
	if len(a.summary.Rows) == 0 {
		a.banner = banner{text: "Belum ada item untuk diekspor.", level: bannerInfo}
		return a, nil
	}
	now := a.opts.Now()
	path := filepath.Join(a.opts.ExportDir, "rab-"+now.Format("20060102-150405")+".xlsx")
	return a, exportCmd(export.NewData(a.cfg.Export.Title, a.summary, now), path)
}

func exportCmd(data export.Data, path string) tea.Cmd {
	return func() tea.Msg {
		b, err := export.XLSX(data)
		if err != nil {
			return exportDoneMsg{Path: path, Err: err}
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return exportDoneMsg{Path: path, Err: err}
		}
		return exportDoneMsg{Path: path}
	}
}

// waitForEvent blocks until the service emits the next event.
func waitForEvent(ch <-chan budget.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

// ─── Views ──────────────────────────────────────────────────────

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.setupForm != nil {
		return a.viewSetup()
	}

	if a.entryForm != nil {
		return a.viewEntryForm()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal terlalu sempit (%d kolom)\n\n  rab membutuhkan minimal %d kolom.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

type binding struct{ key, desc string }

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []binding
	}{
		{"Navigasi", []binding{
			{"i r x", "Pindah tab"},
			{"← →", "Tab sebelumnya / berikutnya"},
			{"j k", "Pilih baris"},
			{"g G", "Baris pertama / terakhir"},
		}},
		{"Aksi", []binding{
			{"a", "Tambah item manual"},
			{"u", "Unggah file Excel (AI)"},
			{"d", "Hapus item terpilih"},
			{"e", "Ekspor ke XLSX"},
			{"Esc", "Tutup pesan / batal"},
			{"?", "Bantuan"},
			{"q", "Keluar"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Pintasan Keyboard"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Tekan tombol apa saja untuk menutup"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	if line := a.renderBanner(w); line != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, line)
	}

	footer := components.RenderStatusBar(w, components.StatusInfo{
		Items:        len(a.summary.Rows),
		Loading:      a.uploading,
		AIConfigured: a.status.AIConfigured,
		Model:        a.cfg.Gemini.Model,
		Spinner:      a.spinner.View(),
	})
	if a.prompting {
		footer = lipgloss.JoinVertical(lipgloss.Left, a.renderUploadPrompt(w), footer)
	}

	contentH := h - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabItems:
		content = a.renderItemsTab(cw, contentH)
	case tabSummary:
		content = a.renderSummaryTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// renderBanner shows the pending message, falling back to the service's
// last upload error.
func (a App) renderBanner(w int) string {
	t := theme.Active

	b := a.banner
	if b.text == "" && a.status.LastError != "" {
		b = banner{text: a.status.LastError, level: bannerError}
	}
	if a.uploading {
		b = banner{text: a.spinner.View() + " Memproses " + a.uploadFile + " dengan AI...", level: bannerInfo}
	}
	if b.text == "" {
		return ""
	}

	var fg, bg lipgloss.Color
	switch b.level {
	case bannerError:
		fg, bg = t.Background, t.Red
	case bannerSuccess:
		fg, bg = t.Background, t.Green
	default:
		fg, bg = t.TextPrimary, t.SurfaceHover
	}

	text := " " + b.text
	if !a.uploading {
		text += "  [esc]"
	}
	return lipgloss.NewStyle().Foreground(fg).Background(bg).Bold(b.level == bannerError).
		Width(w).Render(truncStr(text, w))
}

func (a App) renderUploadPrompt(w int) string {
	t := theme.Active
	style := lipgloss.NewStyle().
		Background(t.SurfaceHover).
		Foreground(t.TextPrimary).
		Width(w)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.SurfaceHover).
		Render("  enter unggah · esc batal")
	return style.Render(" " + a.uploadInput.View() + hint)
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
