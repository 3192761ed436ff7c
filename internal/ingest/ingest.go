// Package ingest converts uploaded spreadsheets into CSV text.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// MaxUploadSize caps the accepted file size.
const MaxUploadSize = 10 << 20 // 10 MB

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
	mimeZip  = "application/zip"
	mimeCSV  = "text/csv"
	mimeText = "text/plain"
)

var (
	// ErrUnsupportedType is returned for files that are not spreadsheets.
	ErrUnsupportedType = errors.New("ingest: unsupported file type")
	// ErrUnreadable is returned when the workbook cannot be opened or has no data.
	ErrUnreadable = errors.New("ingest: spreadsheet unreadable")
	// ErrTooLarge is returned when the upload exceeds MaxUploadSize.
	ErrTooLarge = errors.New("ingest: file too large")
)

// Kind is the recognised format of an upload.
type Kind int

const (
	KindUnknown Kind = iota
	KindXLSX
	KindXLS
	KindCSV
)

func (k Kind) String() string {
	switch k {
	case KindXLSX:
		return "xlsx"
	case KindXLS:
		return "xls"
	case KindCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// Detect sniffs the content and falls back on the file extension when the
// content alone is ambiguous (a zip container, plain text).
func Detect(name string, data []byte) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	m := mimetype.Detect(data)

	switch {
	case m.Is(mimeXLSX):
		return KindXLSX
	case m.Is(mimeXLS), ext == ".xls":
		return KindXLS
	case m.Is(mimeZip) && (ext == ".xlsx" || ext == ".xlsm"):
		return KindXLSX
	case m.Is(mimeCSV):
		return KindCSV
	case m.Is(mimeText) && ext == ".csv":
		return KindCSV
	}
	return KindUnknown
}

// ToCSV returns the first worksheet of the upload as CSV text.
// Files that are already CSV are validated and returned as-is.
func ToCSV(name string, data []byte) (string, error) {
	if len(data) > MaxUploadSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnreadable)
	}

	switch kind := Detect(name, data); kind {
	case KindXLSX:
		return workbookToCSV(data)
	case KindXLS:
		return legacyToCSV(data)
	case KindCSV:
		return checkCSV(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimetype.Detect(data).String())
	}
}

// ReadAll reads r up to MaxUploadSize.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("ingest: reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

func workbookToCSV(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("%w: reading %q: %v", ErrUnreadable, sheet, err)
	}
	if isEmpty(rows) {
		return "", fmt.Errorf("%w: sheet %q is empty", ErrUnreadable, sheet)
	}
	return writeCSV(rows)
}

// legacyToCSV reads the first sheet of a BIFF (.xls) workbook.
func legacyToCSV(data []byte) (out string, err error) {
	// The BIFF reader panics on some corrupt files.
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: corrupt .xls: %v", ErrUnreadable, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if wb == nil || wb.NumSheets() == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)
	}
	sheet := wb.GetSheet(0)

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		// LastCol is one past the last used column.
		rec := make([]string, max(row.LastCol(), 0))
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			rec[c] = row.Col(c)
		}
		rows = append(rows, rec)
	}
	if isEmpty(rows) {
		return "", fmt.Errorf("%w: sheet %q is empty", ErrUnreadable, sheet.Name)
	}
	return writeCSV(rows)
}

// sheetRow returns row i, or nil when the sheet has no such row.
func sheetRow(s *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return s.Row(i)
}

// writeCSV pads rows to a common width and encodes them.
func writeCSV(rows [][]string) (string, error) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, r := range rows {
		rec := make([]string, width)
		copy(rec, r)
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("ingest: writing csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("ingest: writing csv: %w", err)
	}
	return buf.String(), nil
}

func checkCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if isEmpty(rows) {
		return "", fmt.Errorf("%w: no rows", ErrUnreadable)
	}
	return string(data), nil
}

func isEmpty(rows [][]string) bool {
	for _, r := range rows {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				return false
			}
		}
	}
	return true
}
