package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/rab/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int  // optional column widths, auto-calculated if nil
	Left    []bool // left-aligned columns; defaults to the first column only
	Footer  []string
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	// Calculate column widths
	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			if lipgloss.Width(h) > widths[i] {
				widths[i] = lipgloss.Width(h)
			}
		}
		grow := func(row []string) {
			for i, cell := range row {
				if i < numCols && lipgloss.Width(cell) > widths[i] {
					widths[i] = lipgloss.Width(cell)
				}
			}
		}
		for _, row := range t.Rows {
			grow(row)
		}
		grow(t.Footer)
	}

	var b strings.Builder

	// Title above table if present
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	// Top border
	b.WriteString(dimStyle.Render("╭"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┬"))
		}
	}
	b.WriteString(dimStyle.Render("╮"))
	b.WriteString("\n")

	// Header row
	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			w := widths[i]
			padded := fmt.Sprintf(" %-*s ", w, h)
			b.WriteString(headerStyle.Render(padded))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")

		// Header separator
		b.WriteString(dimStyle.Render("├"))
		for i, w := range widths {
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("┼"))
			}
		}
		b.WriteString(dimStyle.Render("┤"))
		b.WriteString("\n")
	}

	// Data rows
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			writeSeparator(&b, widths)
			continue
		}
		writeRow(&b, t, widths, row, valueStyle)
	}

	if len(t.Footer) > 0 {
		writeSeparator(&b, widths)
		writeRow(&b, t, widths, t.Footer, totalStyle)
	}

	// Bottom border
	b.WriteString(dimStyle.Render("╰"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < numCols-1 {
			b.WriteString(dimStyle.Render("┴"))
		}
	}
	b.WriteString(dimStyle.Render("╯"))
	b.WriteString("\n")

	return b.String()
}

func writeSeparator(b *strings.Builder, widths []int) {
	b.WriteString(dimStyle.Render("├"))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render("┼"))
		}
	}
	b.WriteString(dimStyle.Render("┤"))
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, t Table, widths []int, row []string, style lipgloss.Style) {
	b.WriteString(dimStyle.Render("│"))
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := w - lipgloss.Width(cell)
		if pad < 0 {
			pad = 0
		}

		var padded string
		if t.isLeft(i) {
			padded = " " + cell + strings.Repeat(" ", pad) + " "
		} else {
			padded = " " + strings.Repeat(" ", pad) + cell + " "
		}
		b.WriteString(style.Render(padded))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render("│"))
		}
	}
	b.WriteString(dimStyle.Render("│"))
	b.WriteString("\n")
}

func (t Table) isLeft(col int) bool {
	if t.Left == nil {
		return col == 0
	}
	return col < len(t.Left) && t.Left[col]
}

// BudgetTable lays out a RAB summary as a terminal table with a totals footer.
func BudgetTable(title string, s model.Summary) Table {
	t := Table{
		Title: title,
		Headers: []string{
			"No", "Uraian Pekerjaan", "Volume", "Satuan",
			"Harga Upah", "Harga Bahan", "Jumlah Upah", "Jumlah Bahan", "Jumlah Harga",
		},
		Left: []bool{false, true, false, true},
	}
	for _, r := range s.Rows {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%d", r.No),
			r.Item.Description,
			FormatVolume(r.Item.Volume),
			r.Item.Unit,
			FormatRupiah(r.Item.LaborUnitPrice),
			FormatRupiah(r.Item.MaterialUnitPrice),
			FormatRupiah(r.LaborAmount),
			FormatRupiah(r.MaterialAmount),
			FormatRupiah(r.Total),
		})
	}
	t.Footer = []string{
		"", "Total Biaya", "", "", "", "",
		FormatRupiah(s.Totals.Labor),
		FormatRupiah(s.Totals.Material),
		FormatRupiah(s.Totals.Grand),
	}
	return t
}

// RenderWarning renders a one-line warning.
func RenderWarning(msg string) string {
	return warnStyle.Render("  ! " + msg)
}

// RenderMuted renders secondary text.
func RenderMuted(msg string) string {
	return mutedStyle.Render(msg)
}
