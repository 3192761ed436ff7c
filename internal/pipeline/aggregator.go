// Package pipeline derives row amounts and column totals from line items.
package pipeline

import "github.com/theirongolddev/rab/internal/model"

// Aggregate computes the labor, material, and grand totals of items.
// Empty input yields zero totals. Sums are compensated so the result does
// not depend on item order beyond floating-point tolerance.
func Aggregate(items []model.LineItem) model.Totals {
	var labor, material kahan
	for _, it := range items {
		labor.add(it.LaborAmount())
		material.add(it.MaterialAmount())
	}

	t := model.Totals{
		Labor:    labor.sum(),
		Material: material.sum(),
	}
	t.Grand = t.Labor + t.Material
	return t
}

// Rows numbers the items from 1 and attaches their derived amounts.
func Rows(items []model.LineItem) []model.Row {
	rows := make([]model.Row, len(items))
	for i, it := range items {
		rows[i] = model.Row{
			No:             i + 1,
			Item:           it,
			LaborAmount:    it.LaborAmount(),
			MaterialAmount: it.MaterialAmount(),
			Total:          it.RowTotal(),
		}
	}
	return rows
}

// Summarize builds the full read model for a collection snapshot.
func Summarize(items []model.LineItem) model.Summary {
	return model.Summary{
		Count:  len(items),
		Rows:   Rows(items),
		Totals: Aggregate(items),
	}
}

// kahan is a Neumaier compensated accumulator.
type kahan struct {
	s, c float64
}

func (k *kahan) add(v float64) {
	t := k.s + v
	if abs(k.s) >= abs(v) {
		k.c += (k.s - t) + v
	} else {
		k.c += (v - t) + k.s
	}
	k.s = t
}

func (k *kahan) sum() float64 { return k.s + k.c }

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
