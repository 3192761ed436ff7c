package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItemDerivedAmounts(t *testing.T) {
	li := LineItem{
		ID:                "a",
		Description:       "Galian Tanah",
		Volume:            10,
		Unit:              "m3",
		LaborUnitPrice:    50000,
		MaterialUnitPrice: 0,
	}
	assert.Equal(t, 500000.0, li.LaborAmount())
	assert.Equal(t, 0.0, li.MaterialAmount())
	assert.Equal(t, 500000.0, li.RowTotal())
}

func TestRowTotalIsSumOfAmounts(t *testing.T) {
	li := LineItem{Volume: 2.5, LaborUnitPrice: 1200, MaterialUnitPrice: 3400}
	assert.InDelta(t, li.LaborAmount()+li.MaterialAmount(), li.RowTotal(), 1e-9)
	assert.InDelta(t, 11500.0, li.RowTotal(), 1e-9)
}

func TestDraftRoundTrip(t *testing.T) {
	d := Draft{Description: "Urugan Pasir", Volume: 3, Unit: "m3", LaborUnitPrice: 1, MaterialUnitPrice: 2}
	li := d.WithID("x1")
	assert.Equal(t, "x1", li.ID)
	assert.Equal(t, d, li.Draft())
}

func TestParseEntry(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := ParseEntry(Entry{
			Description:       "  Galian Tanah ",
			Volume:            "10",
			Unit:              "m3",
			LaborUnitPrice:    "50000",
			MaterialUnitPrice: "",
		})
		require.NoError(t, err)
		assert.Equal(t, "Galian Tanah", d.Description)
		assert.Equal(t, 10.0, d.Volume)
		assert.Equal(t, 50000.0, d.LaborUnitPrice)
		assert.Equal(t, 0.0, d.MaterialUnitPrice)
	})

	t.Run("non-numeric volume becomes zero", func(t *testing.T) {
		d, err := ParseEntry(Entry{Description: "Bekisting", Volume: "abc", Unit: "m2", LaborUnitPrice: "1000", MaterialUnitPrice: "2000"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, d.Volume)
		li := d.WithID("z")
		assert.Equal(t, 0.0, li.RowTotal())
	})

	t.Run("missing required fields", func(t *testing.T) {
		_, err := ParseEntry(Entry{Volume: " ", LaborUnitPrice: "5"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingField))
		assert.Contains(t, err.Error(), "uraian")
		assert.Contains(t, err.Error(), "volume")
		assert.Contains(t, err.Error(), "satuan")
	})

	t.Run("non-finite input becomes zero", func(t *testing.T) {
		d, err := ParseEntry(Entry{Description: "x", Volume: "NaN", Unit: "ls", LaborUnitPrice: "+Inf"})
		require.NoError(t, err)
		assert.Equal(t, 0.0, d.Volume)
		assert.Equal(t, 0.0, d.LaborUnitPrice)
	})

	t.Run("negative values are kept", func(t *testing.T) {
		d, err := ParseEntry(Entry{Description: "Potongan", Volume: "-1", Unit: "ls", MaterialUnitPrice: "2500"})
		require.NoError(t, err)
		assert.Equal(t, -2500.0, d.WithID("n").RowTotal())
	})
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"abc", 0},
		{"10", 10},
		{"12.5", 12.5},
		{"0.125", 0.125},
		{"12,5", 12.5},
		{"50.000", 50000},
		{"50,000", 50000},
		{"1.250.000", 1250000},
		{"1,250,000", 1250000},
		{"1.250.000,50", 1250000.5},
		{"1,250,000.50", 1250000.5},
		{"Rp 50.000", 50000},
		{"Rp. 75.000,-", 75000},
		{"IDR 1,000", 1000},
		{"-3", -3},
		{"(2.000)", -2000},
		{"NaN", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseNumber(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
