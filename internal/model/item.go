// Package model defines the RAB line item and the read models derived from it.
package model

// LineItem is one row of a construction budget.
type LineItem struct {
	ID                string  `json:"id" yaml:"id"`
	Description       string  `json:"uraian" yaml:"uraian"`
	Volume            float64 `json:"volume" yaml:"volume"`
	Unit              string  `json:"satuan" yaml:"satuan"`
	LaborUnitPrice    float64 `json:"hargaUpah" yaml:"hargaUpah"`
	MaterialUnitPrice float64 `json:"hargaBahan" yaml:"hargaBahan"`
}

// Draft is a line item that has not been assigned an id yet.
type Draft struct {
	Description       string  `json:"uraian" yaml:"uraian"`
	Volume            float64 `json:"volume" yaml:"volume"`
	Unit              string  `json:"satuan" yaml:"satuan"`
	LaborUnitPrice    float64 `json:"hargaUpah" yaml:"hargaUpah"`
	MaterialUnitPrice float64 `json:"hargaBahan" yaml:"hargaBahan"`
}

// WithID turns a draft into a stored item.
func (d Draft) WithID(id string) LineItem {
	return LineItem{
		ID:                id,
		Description:       d.Description,
		Volume:            d.Volume,
		Unit:              d.Unit,
		LaborUnitPrice:    d.LaborUnitPrice,
		MaterialUnitPrice: d.MaterialUnitPrice,
	}
}

// Draft strips the id.
func (li LineItem) Draft() Draft {
	return Draft{
		Description:       li.Description,
		Volume:            li.Volume,
		Unit:              li.Unit,
		LaborUnitPrice:    li.LaborUnitPrice,
		MaterialUnitPrice: li.MaterialUnitPrice,
	}
}

// LaborAmount is volume times the labor unit price.
func (li LineItem) LaborAmount() float64 {
	return li.Volume * li.LaborUnitPrice
}

// MaterialAmount is volume times the material unit price.
func (li LineItem) MaterialAmount() float64 {
	return li.Volume * li.MaterialUnitPrice
}

// RowTotal is the labor amount plus the material amount.
func (li LineItem) RowTotal() float64 {
	return li.LaborAmount() + li.MaterialAmount()
}
