package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/rab/internal/cli"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/tui/components"
	"github.com/theirongolddev/rab/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// itemsState tracks the item table cursor and scroll position.
type itemsState struct {
	cursor int
	offset int
}

// itemColumn is one column of the item table.
type itemColumn struct {
	title string
	width int
	left  bool
	cell  func(model.Row) string
	total func(model.Totals) string
}

// updateItemsKey handles keys specific to the items tab. ok is false when
// the key should fall through to the global bindings.
func (a App) updateItemsKey(key string) (tea.Model, tea.Cmd, bool) {
	n := len(a.summary.Rows)

	switch key {
	case "j", "down":
		if a.items.cursor < n-1 {
			a.items.cursor++
		}
	case "k", "up":
		if a.items.cursor > 0 {
			a.items.cursor--
		}
	case "g", "home":
		a.items.cursor = 0
	case "G", "end":
		a.items.cursor = n - 1
		if a.items.cursor < 0 {
			a.items.cursor = 0
		}
	case "d", "delete":
		if n == 0 {
			return a, nil, true
		}
		row := a.summary.Rows[a.items.cursor]
		if a.svc.Remove(row.Item.ID) {
			a.banner = banner{text: "Item dihapus: " + row.Item.Description, level: bannerInfo}
		}
		a.refresh()
	default:
		return a, nil, false
	}
	return a, nil, true
}

// itemColumns picks the columns that fit cw. Unit prices need a wide
// terminal and the per-component amounts a medium one; the row total is
// always shown.
func (a App) itemColumns(cw int) []itemColumn {
	rupiah := func(v float64) string { return cli.FormatRupiah(v) }

	cols := []itemColumn{
		{title: "No", width: 4, cell: func(r model.Row) string { return fmt.Sprintf("%d", r.No) }},
		{title: "Uraian Pekerjaan", left: true, cell: func(r model.Row) string { return r.Item.Description },
			total: func(model.Totals) string { return "Total Biaya" }},
		{title: "Volume", width: 10, cell: func(r model.Row) string { return cli.FormatVolume(r.Item.Volume) }},
		{title: "Satuan", width: 8, left: true, cell: func(r model.Row) string { return r.Item.Unit }},
	}
	if cw >= wideWidth {
		cols = append(cols,
			itemColumn{title: "Harga Upah", width: 15, cell: func(r model.Row) string { return rupiah(r.Item.LaborUnitPrice) }},
			itemColumn{title: "Harga Bahan", width: 15, cell: func(r model.Row) string { return rupiah(r.Item.MaterialUnitPrice) }},
		)
	}
	if !a.isCompactLayout() {
		cols = append(cols,
			itemColumn{title: "Jumlah Upah", width: 16, cell: func(r model.Row) string { return rupiah(r.LaborAmount) },
				total: func(t model.Totals) string { return rupiah(t.Labor) }},
			itemColumn{title: "Jumlah Bahan", width: 16, cell: func(r model.Row) string { return rupiah(r.MaterialAmount) },
				total: func(t model.Totals) string { return rupiah(t.Material) }},
		)
	}
	cols = append(cols, itemColumn{title: "Jumlah Harga", width: 17,
		cell:  func(r model.Row) string { return rupiah(r.Total) },
		total: func(t model.Totals) string { return rupiah(t.Grand) }})

	// The description column takes whatever the fixed columns leave.
	used := 0
	for _, c := range cols {
		used += c.width + 1
	}
	desc := components.CardInnerWidth(cw) - used
	if desc < 12 {
		desc = 12
	}
	cols[1].width = desc
	return cols
}

func (a App) renderItemsTab(cw, h int) string {
	t := theme.Active

	rows := a.summary.Rows
	if len(rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		hint := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
		body := empty.Render("Belum ada item pekerjaan.") + "\n\n" +
			hint.Render("[a]") + empty.Render(" tambah item manual   ") +
			hint.Render("[u]") + empty.Render(" unggah file Excel")
		return components.ContentCard("Daftar Item RAB", body, cw)
	}

	cols := a.itemColumns(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	totalStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// Card border (2) + title (1) + header (1) + rule (2) + footer (1)
	visible := h - 7
	if visible < 1 {
		visible = 1
	}
	offset := a.items.offset
	if a.items.cursor < offset {
		offset = a.items.cursor
	}
	if a.items.cursor >= offset+visible {
		offset = a.items.cursor - visible + 1
	}

	var b strings.Builder
	b.WriteString(renderItemLine(cols, headerCells(cols), headerStyle))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(strings.Repeat("─", lineWidth(cols))))
	b.WriteString("\n")

	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}
	for i := offset; i < end; i++ {
		style := cellStyle
		if i == a.items.cursor {
			style = selectedStyle
		}
		b.WriteString(renderItemLine(cols, rowCells(cols, rows[i]), style))
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render(strings.Repeat("─", lineWidth(cols))))
	b.WriteString("\n")
	b.WriteString(renderItemLine(cols, footerCells(cols, a.summary.Totals), totalStyle))

	title := fmt.Sprintf("Daftar Item RAB (%d)", len(rows))
	if len(rows) > visible {
		title += fmt.Sprintf("  %d-%d", offset+1, end)
	}
	return components.ContentCard(title, b.String(), cw)
}

func headerCells(cols []itemColumn) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.title
	}
	return out
}

func rowCells(cols []itemColumn, r model.Row) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.cell(r)
	}
	return out
}

func footerCells(cols []itemColumn, totals model.Totals) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if c.total != nil {
			out[i] = c.total(totals)
		}
	}
	return out
}

func renderItemLine(cols []itemColumn, cells []string, style lipgloss.Style) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		cell := truncStr(cells[i], c.width)
		pad := c.width - lipgloss.Width(cell)
		if pad < 0 {
			pad = 0
		}
		if c.left {
			parts[i] = cell + strings.Repeat(" ", pad)
		} else {
			parts[i] = strings.Repeat(" ", pad) + cell
		}
	}
	return style.Render(strings.Join(parts, " "))
}

func lineWidth(cols []itemColumn) int {
	w := len(cols) - 1
	for _, c := range cols {
		w += c.width
	}
	return w
}
