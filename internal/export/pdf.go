package export

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/theirongolddev/rab/internal/cli"
	"github.com/theirongolddev/rab/internal/model"
)

// Grid widths (out of 12) for the nine table columns.
var pdfCols = []int{1, 3, 1, 1, 1, 1, 1, 1, 2}

// PDF renders the data as a landscape A4 document.
func PDF(data Data) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Halaman {current} dari {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addHeader(m, data)
	addTableHeader(m)
	for i, r := range data.Summary.Rows {
		addTableRow(m, r, i%2 == 1)
	}
	addTotals(m, data.Summary.Totals)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, data Data) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)
	if d := data.CreatedDate(); d != "" {
		m.AddRows(
			row.New(8).Add(
				col.New(12).Add(
					text.New("Tanggal: "+d, props.Text{
						Size:  9,
						Align: align.Right,
						Color: &props.Color{Red: 80, Green: 80, Blue: 80},
					}),
				),
			),
		)
	}
	m.AddRows(row.New(4))
}

func addTableHeader(m core.Maroto) {
	headerText := props.Text{
		Size:  7,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}

	cols := make([]core.Col, len(headers))
	for i, h := range headers {
		cols[i] = col.New(pdfCols[i]).Add(text.New(h, headerText)).WithStyle(&headerCell)
	}
	m.AddRows(row.New(10).Add(cols...))
}

func addTableRow(m core.Maroto, r model.Row, shaded bool) {
	base := props.Text{Size: 7, Align: align.Center, Top: 1}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	cells := []struct {
		value string
		style props.Text
	}{
		{fmt.Sprintf("%d", r.No), base},
		{r.Item.Description, left},
		{cli.FormatVolume(r.Item.Volume), right},
		{r.Item.Unit, base},
		{cli.FormatRupiah(r.Item.LaborUnitPrice), right},
		{cli.FormatRupiah(r.Item.MaterialUnitPrice), right},
		{cli.FormatRupiah(r.LaborAmount), right},
		{cli.FormatRupiah(r.MaterialAmount), right},
		{cli.FormatRupiah(r.Total), right},
	}

	var style *props.Cell
	if shaded {
		style = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	}
	cols := make([]core.Col, len(cells))
	for i, c := range cells {
		cc := col.New(pdfCols[i]).Add(text.New(c.value, c.style))
		if style != nil {
			cc = cc.WithStyle(style)
		}
		cols[i] = cc
	}
	m.AddRows(row.New(7).Add(cols...))
}

func addTotals(m core.Maroto, t model.Totals) {
	label := props.Text{Size: 8, Style: fontstyle.Bold, Align: align.Right, Top: 1}
	value := label
	cell := props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}}

	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(text.New("Total Biaya", label)).WithStyle(&cell),
			col.New(1).Add(text.New(cli.FormatRupiah(t.Labor), value)).WithStyle(&cell),
			col.New(1).Add(text.New(cli.FormatRupiah(t.Material), value)).WithStyle(&cell),
			col.New(2).Add(text.New(cli.FormatRupiah(t.Grand), value)).WithStyle(&cell),
		),
	)
}
