package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"

	"github.com/malonaz/botchat/internal/theme"
)

// Renderer renders markdown blocks for the terminal with syntax highlighting.
// Rendered blocks are cached by key until the width or theme changes.
type Renderer struct {
	glamour *glamour.TermRenderer
	width   int
	theme   theme.Theme
	cache   map[string]string
}

// NewRenderer creates a new markdown renderer.
func NewRenderer(width int, t theme.Theme) (*Renderer, error) {
	gr, err := glamour.NewTermRenderer(
		glamour.WithStyles(customStyle(t)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}

	return &Renderer{
		glamour: gr,
		width:   width,
		theme:   t,
		cache:   map[string]string{},
	}, nil
}

// Render renders every block of a document. `key` identifies the document for caching; use "" to skip
// the cache.
func (r *Renderer) Render(key string, document *Document) string {
	rendered := make([]string, 0, len(document.Blocks))
	for i, block := range document.Blocks {
		blockKey := ""
		if key != "" {
			blockKey = fmt.Sprintf("%s/%d", key, i)
		}
		rendered = append(rendered, r.RenderBlock(blockKey, block))
	}
	return strings.Join(rendered, "\n")
}

// RenderBlock renders a single block, cached under `key` when it is not empty.
func (r *Renderer) RenderBlock(key string, block Block) string {
	if md, ok := r.cache[key]; ok && key != "" {
		return md
	}
	md := r.toMarkdownBlock(block.md())
	if key != "" {
		r.cache[key] = md
	}
	return md
}

// Width returns the wrapping width.
func (r *Renderer) Width() int { return r.width }

// SetWidth updates the renderer width, recreating internals if needed.
func (r *Renderer) SetWidth(width int) error {
	if r.width == width {
		return nil
	}
	return r.reset(width, r.theme)
}

// SetTheme switches the highlighting style.
func (r *Renderer) SetTheme(t theme.Theme) error {
	if r.theme == t {
		return nil
	}
	return r.reset(r.width, t)
}

func (r *Renderer) reset(width int, t theme.Theme) error {
	newRenderer, err := NewRenderer(width, t)
	if err != nil {
		return err
	}
	*r = *newRenderer
	return nil
}

// toMarkdownBlock renders a single block of markdown content.
func (r *Renderer) toMarkdownBlock(content string) string {
	rendered, err := r.glamour.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}

// customStyle returns a modified glamour style for cleaner output.
func customStyle(t theme.Theme) ansi.StyleConfig {
	style := styles.DraculaStyleConfig
	if !t.IsDark() {
		style = styles.LightStyleConfig
	}
	zero := uint(0)
	style.Document.Margin = &zero
	style.CodeBlock.Margin = &zero
	style.CodeBlock.Indent = &zero
	style.CodeBlock.Prefix = ""
	style.CodeBlock.BlockPrefix = ""

	style.Code.Margin = &zero
	style.Code.Indent = &zero
	style.Code.Prefix = ""
	style.Code.Suffix = ""

	style.Paragraph.BlockPrefix = ""
	style.Paragraph.BlockSuffix = ""

	return style
}
