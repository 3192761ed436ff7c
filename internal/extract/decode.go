package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theirongolddev/rab/internal/model"
)

// DecodeCandidates validates raw model output and converts it to drafts.
// The response schema is a request, not a guarantee, so every field is
// checked: the payload must be an array of objects, numbers may arrive as
// JSON numbers or formatted strings, missing numbers become 0, and
// candidates without a description or unit are skipped and counted.
func DecodeCandidates(raw []byte) ([]model.Draft, int, error) {
	raw = stripFences(raw)
	if len(raw) == 0 {
		return nil, 0, fmt.Errorf("%w: empty output", ErrMalformed)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		// Some responses wrap the array in an object, e.g. {"items": [...]}.
		var wrapped map[string]json.RawMessage
		if json.Unmarshal(raw, &wrapped) != nil || !unwrapArray(wrapped, &elems) {
			return nil, 0, fmt.Errorf("%w: expected a JSON array: %v", ErrMalformed, err)
		}
	}
	// null decodes without error but is not an array; [] is.
	if elems == nil {
		return nil, 0, fmt.Errorf("%w: expected a JSON array, got null", ErrMalformed)
	}

	drafts := make([]model.Draft, 0, len(elems))
	skipped := 0
	for i, e := range elems {
		if !bytes.HasPrefix(bytes.TrimSpace(e), []byte("{")) {
			return nil, 0, fmt.Errorf("%w: element %d is not an object", ErrMalformed, i)
		}
		var c candidate
		if err := json.Unmarshal(e, &c); err != nil {
			return nil, 0, fmt.Errorf("%w: element %d: %v", ErrMalformed, i, err)
		}

		desc, unit := text(c.Description), text(c.Unit)
		if desc == "" || unit == "" {
			skipped++
			continue
		}
		drafts = append(drafts, model.Draft{
			Description:       desc,
			Volume:            number(c.Volume),
			Unit:              unit,
			LaborUnitPrice:    number(c.Labor),
			MaterialUnitPrice: number(c.Material),
		})
	}
	return drafts, skipped, nil
}

func unwrapArray(m map[string]json.RawMessage, out *[]json.RawMessage) bool {
	for _, k := range []string{"items", "data", "rab"} {
		if v, ok := m[k]; ok && json.Unmarshal(v, out) == nil && *out != nil {
			return true
		}
	}
	return false
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}

// text accepts a JSON string or number; anything else is blank.
func text(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// number accepts a JSON number or a numeric string; anything else is 0.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return model.Finite(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return model.ParseNumber(s)
	}
	return 0
}
