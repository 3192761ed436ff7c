package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/rab/internal/cli"
	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/tui/components"
	"github.com/theirongolddev/rab/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

const topItemsLimit = 5

func (a App) renderSummaryTab(cw int) string {
	t := theme.Active
	totals := a.summary.Totals

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	var b strings.Builder

	metrics := []components.Metric{
		{Label: "Total Upah", Value: cli.FormatRupiah(totals.Labor), Color: t.Labor},
		{Label: "Total Bahan", Value: cli.FormatRupiah(totals.Material), Color: t.Material},
		{Label: "Total Biaya", Value: cli.FormatRupiah(totals.Grand), Color: t.AccentBright},
		{Label: "Jumlah Item", Value: cli.FormatNumber(int64(len(a.summary.Rows)))},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Composition bars only make sense for a positive total.
	var comp strings.Builder
	if totals.Grand > 0 {
		barW := components.CardInnerWidth(cw) - 16
		comp.WriteString(components.ShareBar("Upah", cli.Share(totals.Labor, totals.Grand), t.Labor, 7, barW))
		comp.WriteString("\n")
		comp.WriteString(components.ShareBar("Bahan", cli.Share(totals.Material, totals.Grand), t.Material, 7, barW))
	} else {
		comp.WriteString(labelStyle.Render("Belum ada biaya."))
	}

	compact := a.isCompactLayout()
	widths := []int{cw, cw}
	if !compact {
		widths = components.LayoutRow(cw, 2)
	}

	var top strings.Builder
	rows := topRows(a.summary.Rows, topItemsLimit)
	if len(rows) == 0 {
		top.WriteString(labelStyle.Render("Belum ada item."))
	}
	inner := components.CardInnerWidth(widths[0])
	for i, r := range rows {
		amount := cli.FormatRupiah(r.Total)
		name := truncStr(fmt.Sprintf("%d. %s", r.No, r.Item.Description), inner-lipgloss.Width(amount)-2)
		pad := inner - lipgloss.Width(name) - lipgloss.Width(amount)
		if pad < 1 {
			pad = 1
		}
		top.WriteString(valueStyle.Render(name + strings.Repeat(" ", pad) + amount))
		if i < len(rows)-1 {
			top.WriteString("\n")
		}
	}

	var upload strings.Builder
	if last := a.status.LastUpload; last == nil {
		upload.WriteString(labelStyle.Render("Belum ada file yang diunggah."))
	} else {
		upload.WriteString(labelStyle.Render("File:   ") + valueStyle.Render(last.File) + "\n")
		upload.WriteString(labelStyle.Render("Waktu:  ") + valueStyle.Render(last.At.Format("02-01-2006 15:04:05")) +
			labelStyle.Render(" ("+cli.FormatElapsed(last.Elapsed)+")") + "\n")
		if last.Error != "" {
			upload.WriteString(labelStyle.Render("Hasil:  ") + errStyle.Render(last.Error))
		} else {
			upload.WriteString(labelStyle.Render("Hasil:  ") + valueStyle.Render(fmt.Sprintf("%d item", last.Items)))
		}
	}

	if compact {
		b.WriteString(components.ContentCard("Komposisi Biaya", comp.String(), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Item Termahal", top.String(), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Unggahan Terakhir", upload.String(), cw))
		return b.String()
	}

	b.WriteString(components.ContentCard("Komposisi Biaya", comp.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.CardRow([]string{
		components.ContentCard("Item Termahal", top.String(), widths[0]),
		components.ContentCard("Unggahan Terakhir", upload.String(), widths[1]),
	}))
	return b.String()
}

// topRows returns the n rows with the largest totals, highest first.
func topRows(rows []model.Row, n int) []model.Row {
	sorted := make([]model.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total > sorted[j].Total
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
