package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/export"
	"github.com/theirongolddev/rab/internal/tui/components"
	"github.com/theirongolddev/rab/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldAPIKey = iota
	settingsFieldModel
	settingsFieldTimeout
	settingsFieldTheme
	settingsFieldExportTitle
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "enter":
		next, cmd := a.settingsStartEdit()
		return next, cmd, true
	}
	return a, nil, false
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldAPIKey:
		ti.Placeholder = "AIza..."
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(a.cfg.Gemini.APIKey)
	case settingsFieldModel:
		ti.Placeholder = strings.Join(setupModels, ", ")
		ti.SetValue(a.cfg.Gemini.Model)
	case settingsFieldTimeout:
		ti.Placeholder = "60 (detik)"
		ti.SetValue(strconv.Itoa(int(a.cfg.Timeout().Seconds())))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldExportTitle:
		ti.Placeholder = export.DefaultTitle
		ti.SetValue(a.cfg.Export.Title)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave(strings.TrimSpace(a.settings.input.Value()))
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies val to the selected field and persists the config.
// Invalid values are ignored.
func (a *App) settingsSave(val string) {
	cfg := a.cfg
	rebuild := false

	switch a.settings.cursor {
	case settingsFieldAPIKey:
		cfg.Gemini.APIKey = val
		rebuild = true
	case settingsFieldModel:
		if val != "" {
			cfg.Gemini.Model = val
			rebuild = true
		}
	case settingsFieldTimeout:
		if sec, err := strconv.Atoi(val); err == nil && sec > 0 {
			cfg.Gemini.TimeoutSec = sec
			rebuild = true
		}
	case settingsFieldTheme:
		for _, t := range theme.All {
			if t.Name == val {
				cfg.Appearance.Theme = val
				theme.SetActive(val)
				break
			}
		}
	case settingsFieldExportTitle:
		cfg.Export.Title = val
	}

	a.cfg = cfg
	a.settings.saveErr = a.opts.SaveConfig(cfg)
	if rebuild {
		a.applyExtractor()
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover)

	title := cfg.Export.Title
	if title == "" {
		title = export.DefaultTitle + " (bawaan)"
	}

	fields := []struct{ label, value string }{
		{"Gemini API Key", config.MaskKey(cfg.Gemini.APIKey)},
		{"Model", cfg.Gemini.Model},
		{"Timeout AI", fmt.Sprintf("%ds", int(cfg.Timeout().Seconds()))},
		{"Tema", cfg.Appearance.Theme},
		{"Judul Ekspor", title},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-16s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-16s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := components.CardInnerWidth(cw) - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceHover).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Yellow).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Gagal menyimpan: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Tersimpan."))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] pilih  [Enter] ubah  [Esc] batal"))

	aiState := "belum dikonfigurasi"
	if a.status.AIConfigured {
		aiState = "siap"
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Sumber API key:  ") + valueStyle.Render(config.APIKeySource(cfg)) + "\n")
	infoBody.WriteString(labelStyle.Render("Ekstraksi AI:    ") + valueStyle.Render(aiState) + "\n")
	infoBody.WriteString(labelStyle.Render("Folder ekspor:   ") + valueStyle.Render(a.opts.ExportDir) + "\n")
	infoBody.WriteString(labelStyle.Render("Berkas konfig:   ") + valueStyle.Render(config.Path()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Pengaturan", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Informasi", infoBody.String(), cw))
	return b.String()
}
