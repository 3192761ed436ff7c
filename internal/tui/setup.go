package tui

import (
	"slices"
	"strings"

	"github.com/theirongolddev/rab/internal/config"
	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Models offered by the setup wizard.
var setupModels = []string{extract.DefaultModel, "gemini-2.5-pro", "gemini-2.0-flash"}

// setupValues holds what the setup wizard collects.
type setupValues struct {
	APIKey string
	Model  string
	Theme  string
}

func newSetupValues(cfg config.Config) *setupValues {
	v := &setupValues{
		Model: cfg.Gemini.Model,
		Theme: cfg.Appearance.Theme,
	}
	if v.Model == "" {
		v.Model = extract.DefaultModel
	}
	if v.Theme == "" {
		v.Theme = theme.FlexokiDark.Name
	}
	return v
}

// newSetupForm builds the first-run wizard bound to v.
func newSetupForm(v *setupValues) *huh.Form {
	modelOpts := huh.NewOptions(setupModels...)
	if !slices.Contains(setupModels, v.Model) {
		modelOpts = append([]huh.Option[string]{huh.NewOption(v.Model, v.Model)}, modelOpts...)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Selamat datang di rab").
				Description("Susun Rencana Anggaran Biaya dari input manual\natau dari file Excel yang dibaca oleh Gemini."),
			huh.NewInput().
				Title("Gemini API key").
				Description("Kosongkan untuk memakai GEMINI_API_KEY dari environment.").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model Gemini").
				Options(modelOpts...).
				Value(&v.Model),
			huh.NewSelect[string]().
				Title("Tema warna").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	).WithShowHelp(true)
}

// RunSetup runs the wizard standalone and returns the updated config.
func RunSetup(cfg config.Config) (config.Config, error) {
	vals := newSetupValues(cfg)
	if err := newSetupForm(vals).Run(); err != nil {
		return cfg, err
	}
	return applySetup(cfg, *vals), nil
}

// applySetup merges wizard answers into cfg. A blank key keeps the old one.
func applySetup(cfg config.Config, v setupValues) config.Config {
	if key := strings.TrimSpace(v.APIKey); key != "" {
		cfg.Gemini.APIKey = key
	}
	if v.Model != "" {
		cfg.Gemini.Model = v.Model
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	return cfg
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = applySetup(a.cfg, *a.setupVals)
		theme.SetActive(a.cfg.Appearance.Theme)
		if err := a.opts.SaveConfig(a.cfg); err != nil {
			a.banner = banner{text: "Gagal menyimpan konfigurasi: " + err.Error(), level: bannerError}
		} else {
			a.banner = banner{text: "Konfigurasi disimpan ke " + config.Path(), level: bannerSuccess}
		}
		a.applyExtractor()
		a.setupForm = nil
		a.setupVals = nil
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		a.setupVals = nil
		return a, nil
	}
	return a, cmd
}

// applyExtractor rebuilds the AI client from the current config.
func (a *App) applyExtractor() {
	if a.opts.NewExtractor == nil {
		return
	}
	a.svc.SetExtractor(a.opts.NewExtractor(a.cfg))
	a.refresh()
}

func (a App) viewSetup() string {
	t := theme.Active
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		a.setupForm.View(),
		lipgloss.WithWhitespaceBackground(t.Background))
}
