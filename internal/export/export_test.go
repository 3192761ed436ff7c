package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/rab/internal/model"
	"github.com/theirongolddev/rab/internal/pipeline"
)

func sampleData() Data {
	items := []model.LineItem{
		{ID: "1", Description: "Galian Tanah", Volume: 10, Unit: "m3", LaborUnitPrice: 50000},
		{ID: "2", Description: "=SUM(A1)", Volume: 2, Unit: "m", MaterialUnitPrice: 1000},
		{ID: "3", Description: "Urugan", Volume: 3, Unit: "m", MaterialUnitPrice: 1000},
	}
	return NewData("", pipeline.Summarize(items), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
}

func TestXLSX(t *testing.T) {
	out, err := XLSX(sampleData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "RAB", f.GetSheetName(0))

	get := func(cell string) string {
		t.Helper()
		v, err := f.GetCellValue("RAB", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, DefaultTitle, get("A1"))
	assert.Equal(t, "Tanggal: 01-03-2026", get("A2"))
	assert.Equal(t, "Uraian Pekerjaan", get("B4"))
	assert.Equal(t, "Galian Tanah", get("B5"))
	assert.Equal(t, "500000", get("I5"))
	assert.Equal(t, "'=SUM(A1)", get("B6"))
	assert.Equal(t, "Total Biaya", get("A8"))
	assert.Equal(t, "500000", get("G8"))
	assert.Equal(t, "5000", get("H8"))
	assert.Equal(t, "505000", get("I8"))
}

func TestXLSXEmpty(t *testing.T) {
	out, err := XLSX(NewData("Kosong", model.Summary{}, time.Time{}))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	v, _ := f.GetCellValue("RAB", "A5")
	assert.Equal(t, "Total Biaya", v)
	v, _ = f.GetCellValue("RAB", "A2")
	assert.Empty(t, v)
}

func TestPDF(t *testing.T) {
	out, err := PDF(sampleData())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "not a PDF")
}
