package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingField is returned when a required entry field is blank.
var ErrMissingField = errors.New("model: required field missing")

// Entry holds the raw strings of a manual entry form.
type Entry struct {
	Description       string `json:"uraian" form:"uraian"`
	Volume            string `json:"volume" form:"volume"`
	Unit              string `json:"satuan" form:"satuan"`
	LaborUnitPrice    string `json:"hargaUpah" form:"hargaUpah"`
	MaterialUnitPrice string `json:"hargaBahan" form:"hargaBahan"`
}

// ParseEntry validates the required fields and coerces the numeric ones.
// Numbers that do not parse become 0.
func ParseEntry(e Entry) (Draft, error) {
	desc := strings.TrimSpace(e.Description)
	vol := strings.TrimSpace(e.Volume)
	unit := strings.TrimSpace(e.Unit)

	var missing []string
	if desc == "" {
		missing = append(missing, "uraian")
	}
	if vol == "" {
		missing = append(missing, "volume")
	}
	if unit == "" {
		missing = append(missing, "satuan")
	}
	if len(missing) > 0 {
		return Draft{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	return Draft{
		Description:       desc,
		Volume:            CoerceNumber(vol),
		Unit:              unit,
		LaborUnitPrice:    CoerceNumber(e.LaborUnitPrice),
		MaterialUnitPrice: CoerceNumber(e.MaterialUnitPrice),
	}, nil
}

// CoerceNumber parses a plain decimal number, returning 0 for anything else.
func CoerceNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return Finite(v)
}

// Finite maps NaN and the infinities to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseNumber parses an amount as it appears in Indonesian and English
// spreadsheets: "Rp 1.250.000,50", "1,250,000.50", "50.000,-", "12.5".
// Unparseable input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"Rp.", "Rp", "rp.", "rp", "RP", "IDR", "idr"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, ",-"), ".-")

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasPrefix(s, "-") {
		neg = !neg
		s = s[1:]
	}
	if s == "" {
		return 0
	}

	s = normalizeSeparators(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	if neg {
		v = -v
	}
	return Finite(v)
}

// normalizeSeparators rewrites grouping and decimal marks into Go syntax.
func normalizeSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots > 0 && commas > 0:
		// The mark that appears last is the decimal separator.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case dots > 1:
		return strings.ReplaceAll(s, ".", "")
	case commas > 1:
		return strings.ReplaceAll(s, ",", "")
	case dots == 1:
		if isGrouping(s, ".") {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	case commas == 1:
		if isGrouping(s, ",") {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}

// isGrouping reports whether a single separator splits off exactly three
// digits from a non-zero integer part, as in "50.000".
func isGrouping(s, sep string) bool {
	i := strings.Index(s, sep)
	head, tail := s[:i], s[i+1:]
	if len(tail) != 3 || head == "" || strings.TrimLeft(head, "0") == "" {
		return false
	}
	return true
}
