package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "tokyo-night", ByName("tokyo-night").Name)
	assert.Equal(t, FlexokiDark.Name, ByName("solarized").Name)
	assert.Equal(t, FlexokiDark.Name, ByName("").Name)
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)

	SetActive("terminal")
	assert.Equal(t, Terminal, Active)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"flexoki-dark", "tokyo-night", "terminal"}, Names())
}
