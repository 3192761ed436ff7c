package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCandidates(t *testing.T) {
	t.Run("fenced output", func(t *testing.T) {
		raw := "```json\n[{\"uraian\":\"Galian\",\"volume\":2,\"satuan\":\"m3\",\"hargaUpah\":1,\"hargaBahan\":2}]\n```"
		drafts, skipped, err := DecodeCandidates([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, 0, skipped)
		require.Len(t, drafts, 1)
		assert.Equal(t, "Galian", drafts[0].Description)
	})

	t.Run("skips rows without description or unit", func(t *testing.T) {
		raw := `[{"uraian":"","volume":0,"satuan":"","hargaUpah":0,"hargaBahan":0},
		         {"uraian":"Sub Total","volume":null,"hargaUpah":0},
		         {"uraian":"Plesteran","volume":4,"satuan":"m2"}]`
		drafts, skipped, err := DecodeCandidates([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, 2, skipped)
		require.Len(t, drafts, 1)
		assert.Equal(t, 0.0, drafts[0].LaborUnitPrice)
		assert.Equal(t, 0.0, drafts[0].MaterialUnitPrice)
	})

	t.Run("wrong types are tolerated", func(t *testing.T) {
		raw := `[{"uraian":"Kolom K1","volume":true,"satuan":"m3","hargaUpah":{"x":1},"hargaBahan":"abc"}]`
		drafts, _, err := DecodeCandidates([]byte(raw))
		require.NoError(t, err)
		require.Len(t, drafts, 1)
		assert.Equal(t, 0.0, drafts[0].Volume)
		assert.Equal(t, 0.0, drafts[0].LaborUnitPrice)
		assert.Equal(t, 0.0, drafts[0].MaterialUnitPrice)
	})

	t.Run("wrapped array", func(t *testing.T) {
		drafts, _, err := DecodeCandidates([]byte(`{"items":[{"uraian":"a","volume":1,"satuan":"ls"}]}`))
		require.NoError(t, err)
		assert.Len(t, drafts, 1)
	})

	t.Run("empty array", func(t *testing.T) {
		drafts, skipped, err := DecodeCandidates([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, drafts)
		assert.Equal(t, 0, skipped)
	})

	for name, raw := range map[string]string{
		"empty":        "",
		"object":       `{"uraian":"a"}`,
		"scalars":      `[1,2,3]`,
		"truncated":    `[{"uraian":"a"`,
		"string array": `["a"]`,
		"null":         `null`,
		"fenced null":  "```json\nnull\n```",
		"null items":   `{"items":null}`,
	} {
		t.Run("malformed "+name, func(t *testing.T) {
			_, _, err := DecodeCandidates([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}
