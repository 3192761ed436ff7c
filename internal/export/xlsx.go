package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	rupiahFormat = `"Rp" #,##0`
	volumeFormat = `#,##0.##`
	headerRow    = 4
)

// XLSX renders the data as a single-sheet workbook. Amounts are written as
// numbers so the sheet stays computable.
func XLSX(data Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "RAB"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"}
	lastCol := columns[len(columns)-1]
	widths := []float64{6, 42, 10, 10, 18, 18, 18, 18, 20}
	for i, col := range columns {
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	rupiah, volume := rupiahFormat, volumeFormat
	styles := map[string]*excelize.Style{
		"title":    {Font: &excelize.Font{Bold: true, Size: 16}},
		"subtitle": {Font: &excelize.Font{Size: 10, Color: "#555555"}},
		"header": {
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		},
		"text":   {Font: &excelize.Font{Size: 10}, Border: thinBorders()},
		"volume": {Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &volume},
		"amount": {Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &rupiah},
		"totalLabel": {
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    thinBorders(),
		},
		"totalValue": {Font: &excelize.Font{Bold: true, Size: 11}, Border: thinBorders(), CustomNumFmt: &rupiah},
	}
	ids := make(map[string]int, len(styles))
	for name, st := range styles {
		id, err := f.NewStyle(st)
		if err != nil {
			return nil, fmt.Errorf("create %s style: %w", name, err)
		}
		ids[name] = id
	}

	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	_ = f.SetCellValue(sheet, "A1", sanitizeCell(data.Title))
	_ = f.SetCellStyle(sheet, "A1", "A1", ids["title"])
	if d := data.CreatedDate(); d != "" {
		_ = f.SetCellValue(sheet, "A2", "Tanggal: "+d)
		_ = f.SetCellStyle(sheet, "A2", "A2", ids["subtitle"])
	}

	for i, h := range headers {
		cell := fmt.Sprintf("%s%d", columns[i], headerRow)
		_ = f.SetCellValue(sheet, cell, h)
	}
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), ids["header"])
	_ = f.SetRowHeight(sheet, headerRow, 30)

	row := headerRow + 1
	for _, r := range data.Summary.Rows {
		values := []any{
			r.No,
			sanitizeCell(r.Item.Description),
			r.Item.Volume,
			sanitizeCell(r.Item.Unit),
			r.Item.LaborUnitPrice,
			r.Item.MaterialUnitPrice,
			r.LaborAmount,
			r.MaterialAmount,
			r.Total,
		}
		cell := fmt.Sprintf("A%d", row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r.No, err)
		}
		_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), ids["text"])
		_ = f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), ids["volume"])
		_ = f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), ids["text"])
		_ = f.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("I%d", row), ids["amount"])
		row++
	}

	totals := data.Summary.Totals
	if err := f.MergeCell(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row)); err != nil {
		return nil, fmt.Errorf("merge totals: %w", err)
	}
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total Biaya")
	_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), ids["totalLabel"])
	_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), totals.Labor)
	_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), totals.Material)
	_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), totals.Grand)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("G%d", row), fmt.Sprintf("I%d", row), ids["totalValue"])

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeCell keeps text cells from being read as formulas.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
