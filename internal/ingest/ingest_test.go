package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	// A second sheet must be ignored.
	_, err := f.NewSheet("Lampiran")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Lampiran", "A1", "ignored"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestToCSVWorkbook(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"No", "Uraian Pekerjaan", "Vol", "Sat", "Upah", "Bahan"},
		{1, "Galian Tanah", 10, "m3", 50000, 0},
		{2, "Urugan, Pasir", 2.5, "m3", 25000},
	})

	got, err := ToCSV("rab.xlsx", data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "No,Uraian Pekerjaan,Vol,Sat,Upah,Bahan", lines[0])
	assert.Equal(t, "1,Galian Tanah,10,m3,50000,0", lines[1])
	assert.Equal(t, `2,"Urugan, Pasir",2.5,m3,25000,`, lines[2])
	assert.NotContains(t, got, "ignored")
}

func TestToCSVLegacyWorkbook(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "sample.xls"))
	require.NoError(t, err)
	require.Equal(t, KindXLS, Detect("sample.xls", data))

	got, err := ToCSV("sample.xls", data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "Code,Name,Description", lines[0])
	assert.Equal(t, "code1,name1,description1", lines[1])
	assert.Equal(t, "code11,name11,description11", lines[11])
}

func TestDetect(t *testing.T) {
	wb := buildWorkbook(t, [][]any{{"a"}})
	assert.Equal(t, KindXLSX, Detect("rab.xlsx", wb))
	assert.Equal(t, KindCSV, Detect("rab.csv", []byte("a,b\n1,2\n")))
	assert.Equal(t, KindXLS, Detect("old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}))
	assert.Equal(t, KindUnknown, Detect("pic.png", []byte("\x89PNG\r\n\x1a\n0000")))
	assert.Equal(t, "xlsx", KindXLSX.String())
}

func TestToCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
		want error
	}{
		{"empty", "a.xlsx", nil, ErrUnreadable},
		{"truncated xls", "old.xls", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0, 0, 0, 0}, ErrUnreadable},
		{"image", "pic.png", []byte("\x89PNG\r\n\x1a\n0000000000"), ErrUnsupportedType},
		{"too large", "big.csv", bytes.Repeat([]byte("a"), MaxUploadSize+1), ErrTooLarge},
		{"blank csv", "blank.csv", []byte(" , \n , \n"), ErrUnreadable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToCSV(tt.file, tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestToCSVEmptySheet(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	_ = f.Close()

	_, err = ToCSV("empty.xlsx", buf.Bytes())
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestToCSVPassesThroughCSV(t *testing.T) {
	in := "Uraian,Volume\nGalian,10\n"
	got, err := ToCSV("rab.csv", []byte(in))
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestReadAll(t *testing.T) {
	data, err := ReadAll(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ReadAll(bytes.NewReader(make([]byte, MaxUploadSize+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}
