package tui

import (
	"errors"
	"strings"

	"github.com/theirongolddev/rab/internal/budget"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var errRequired = errors.New("wajib diisi")

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errRequired
	}
	return nil
}

// newEntryForm builds the manual entry form bound to e. Numeric fields are
// free text; ParseEntry coerces them on submit.
func newEntryForm(e *model.Entry) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("uraian").
				Title("Uraian Pekerjaan").
				Placeholder("Galian tanah pondasi").
				Value(&e.Description).
				Validate(required),
			huh.NewInput().
				Key("volume").
				Title("Volume").
				Placeholder("10").
				Value(&e.Volume).
				Validate(required),
			huh.NewInput().
				Key("satuan").
				Title("Satuan").
				Placeholder("m3").
				Value(&e.Unit).
				Validate(required),
			huh.NewInput().
				Key("hargaUpah").
				Title("Harga Satuan Upah (Rp)").
				Placeholder("0").
				Value(&e.LaborUnitPrice),
			huh.NewInput().
				Key("hargaBahan").
				Title("Harga Satuan Bahan (Rp)").
				Placeholder("0").
				Value(&e.MaterialUnitPrice),
		).Title("Tambah Item Pekerjaan").
			Description("Esc untuk batal"),
	).WithShowHelp(true)
}

func entryFormWidth(termWidth int) int {
	w := termWidth - 10
	if w > 72 {
		w = 72
	}
	return w
}

func (a App) openEntryForm() (tea.Model, tea.Cmd) {
	a.entryVals = &model.Entry{}
	a.entryForm = newEntryForm(a.entryVals)
	if a.width > 0 {
		a.entryForm = a.entryForm.WithWidth(entryFormWidth(a.width))
	}
	return a, a.entryForm.Init()
}

func (a App) updateEntryForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.entryForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.entryForm = f
	}

	switch a.entryForm.State {
	case huh.StateCompleted:
		a = a.commitEntry()
		return a, nil
	case huh.StateAborted:
		a.entryForm = nil
		a.entryVals = nil
		return a, nil
	}
	return a, cmd
}

// commitEntry adds the form values to the collection and closes the form.
// A validation error leaves the collection untouched and is shown in the
// banner.
func (a App) commitEntry() App {
	vals := a.entryVals
	a.entryForm = nil
	a.entryVals = nil
	if vals == nil {
		return a
	}

	item, err := a.svc.AddEntry(*vals)
	if err != nil {
		a.banner = banner{text: budget.UserMessage(err), level: bannerError}
		return a
	}

	a.refresh()
	a.items.cursor = len(a.summary.Rows) - 1
	a.banner = banner{text: "Item ditambahkan: " + item.Description, level: bannerSuccess}
	return a
}

func (a App) viewEntryForm() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 2)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(a.entryForm.View()),
		lipgloss.WithWhitespaceBackground(t.Background))
}
