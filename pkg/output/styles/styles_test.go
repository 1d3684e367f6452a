package styles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchrig/rigup/pkg/output/styles"
)

func TestEmbeddedStylesLoad(t *testing.T) {
	// init() already parsed the embedded palette
	for _, name := range []string{"Success", "Warning", "Error", "Muted", "Heading", "Stage"} {
		_, ok := styles.StyleRegistry[name]
		assert.True(t, ok, "style %s should be defined", name)
	}
}

func TestLoadStylesFromData(t *testing.T) {
	data := []byte(`
colors:
  accent:
    light: "#000000"
    dark: "#ffffff"
styles:
  Custom:
    bold: true
    foreground: accent
`)
	require.NoError(t, styles.LoadStylesFromData(data))
	t.Cleanup(func() {
		// Restore the embedded registry for other tests
		require.NoError(t, styles.LoadStylesFromData(styles.EmbeddedStyles()))
	})

	assert.True(t, styles.GetStyle("Custom").GetBold())
}

func TestLoadStylesFromDataParseError(t *testing.T) {
	assert.Error(t, styles.LoadStylesFromData([]byte("styles: [")))
}

func TestGetStyleUnknownName(t *testing.T) {
	style := styles.GetStyle("NoSuchStyle")
	assert.False(t, style.GetBold())
}
