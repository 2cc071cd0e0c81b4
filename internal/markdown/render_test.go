package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/botchat/internal/theme"
)

func TestRendererRendersEveryBlock(t *testing.T) {
	for _, th := range []theme.Theme{theme.Dark, theme.Light} {
		renderer, err := NewRenderer(80, th)
		require.NoError(t, err)

		rendered := renderer.Render("m1", Parse("Some **bold** words\n```go\nfmt.Println(\"hi\")\n```"))
		assert.Contains(t, rendered, "bold")
		assert.Contains(t, rendered, "Println")
		assert.NotContains(t, rendered, "**")
	}
}

func TestRendererCacheResetsOnWidthAndTheme(t *testing.T) {
	renderer, err := NewRenderer(80, theme.Dark)
	require.NoError(t, err)
	block := &TextBlock{Text: "hello"}

	first := renderer.RenderBlock("k", block)
	block.Text = "changed"
	assert.Equal(t, first, renderer.RenderBlock("k", block))

	require.NoError(t, renderer.SetWidth(40))
	assert.Equal(t, 40, renderer.Width())
	assert.Contains(t, renderer.RenderBlock("k", block), "changed")

	block.Text = "again"
	require.NoError(t, renderer.SetTheme(theme.Light))
	assert.Contains(t, renderer.RenderBlock("k", block), "again")
}

func TestHTMLPairsCopyButtonsWithCodeBlocks(t *testing.T) {
	document := Parse("Intro with <script>alert(1)</script>\n```html\n<b>a</b>\n```\n```\nb\n```")

	rendered, err := document.HTML()
	require.NoError(t, err)
	html := string(rendered)

	assert.Equal(t, 2, strings.Count(html, `class="copy-button"`))
	first := strings.Index(html, `data-index="0"`)
	second := strings.Index(html, `data-index="1"`)
	require.True(t, first >= 0 && second > first)
	assert.Contains(t, html, "&lt;b&gt;a&lt;/b&gt;")
	assert.Contains(t, html, `class="language-html"`)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<p>Intro with")
}
