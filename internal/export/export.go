// Package export renders a RAB summary as XLSX or PDF documents.
package export

import (
	"time"

	"github.com/theirongolddev/rab/internal/model"
)

// DefaultTitle is used when no title is given.
const DefaultTitle = "Rencana Anggaran Biaya"

// Data is everything an exported document shows.
type Data struct {
	Title   string
	Created time.Time
	Summary model.Summary
}

// NewData prepares export data for a summary.
func NewData(title string, s model.Summary, now time.Time) Data {
	if title == "" {
		title = DefaultTitle
	}
	return Data{Title: title, Created: now, Summary: s}
}

// CreatedDate formats the creation date for document headers.
func (d Data) CreatedDate() string {
	if d.Created.IsZero() {
		return ""
	}
	return d.Created.Format("02-01-2006")
}

var headers = []string{
	"No", "Uraian Pekerjaan", "Volume", "Satuan",
	"Harga Satuan Upah", "Harga Satuan Bahan",
	"Jumlah Harga Upah", "Jumlah Harga Bahan", "Jumlah Harga",
}
