package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/rab/internal/extract"
	"github.com/theirongolddev/rab/internal/model"
)

// ErrBadDocument is returned when an items file cannot be decoded.
var ErrBadDocument = errors.New("export: not a RAB items document")

// Document is the structured form written by the json and yaml outputs
// and read back by ReadDocument.
type Document struct {
	Title   string           `json:"title" yaml:"title"`
	Created string           `json:"created,omitempty" yaml:"created,omitempty"`
	Items   []model.LineItem `json:"items" yaml:"items"`
	Totals  model.Totals     `json:"totals" yaml:"totals"`
}

// Document flattens d for structured output.
func (d Data) Document() Document {
	items := make([]model.LineItem, len(d.Summary.Rows))
	for i, r := range d.Summary.Rows {
		items[i] = r.Item
	}
	return Document{
		Title:   d.Title,
		Created: d.CreatedDate(),
		Items:   items,
		Totals:  d.Summary.Totals,
	}
}

// WriteJSON writes d as an indented JSON document.
func WriteJSON(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.Document())
}

// WriteYAML writes d as a YAML document.
func WriteYAML(w io.Writer, d Data) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.Document()); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes the item table with a totals row. Numbers are plain
// decimals so spreadsheets parse them; text cells are neutralised the same
// way as in XLSX.
func WriteCSV(w io.Writer, d Data) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range d.Summary.Rows {
		rec := []string{
			strconv.Itoa(r.No),
			sanitizeCell(r.Item.Description),
			plain(r.Item.Volume),
			sanitizeCell(r.Item.Unit),
			plain(r.Item.LaborUnitPrice),
			plain(r.Item.MaterialUnitPrice),
			plain(r.LaborAmount),
			plain(r.MaterialAmount),
			plain(r.Total),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	t := d.Summary.Totals
	if err := cw.Write([]string{"", "Total Biaya", "", "", "", "", plain(t.Labor), plain(t.Material), plain(t.Grand)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadDocument decodes a JSON items file: either a Document or a bare
// array of items. Ids and totals in the file are ignored; the caller
// recomputes both. Items pass through the same checks as AI output, so
// numeric strings are accepted and rows without a description or unit
// are dropped.
func ReadDocument(r io.Reader) (string, []model.Draft, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("%w: empty input", ErrBadDocument)
	}

	var title string
	items := json.RawMessage(raw)
	if raw[0] != '[' {
		var doc struct {
			Title string          `json:"title"`
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
		}
		if len(doc.Items) == 0 {
			return "", nil, fmt.Errorf("%w: missing items", ErrBadDocument)
		}
		title, items = doc.Title, doc.Items
	}

	drafts, _, err := extract.DecodeCandidates(items)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	return title, drafts, nil
}
