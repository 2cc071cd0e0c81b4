package markdown

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the document for the browser. Text blocks go through goldmark with raw HTML disabled;
// each code block gets a copy button carrying its index in CodeBlocks.
func (d *Document) HTML() (template.HTML, error) {
	var buffer bytes.Buffer
	for _, block := range d.Blocks {
		switch b := block.(type) {
		case *TextBlock:
			if err := htmlRenderer.Convert([]byte(b.Text), &buffer); err != nil {
				return "", errors.Wrap(err, "converting markdown")
			}
		case *CodeBlock:
			language := html.EscapeString(b.Language())
			fmt.Fprintf(&buffer, `<div class="code-block" data-index="%d">`, b.Index)
			fmt.Fprintf(&buffer, `<div class="code-header"><span class="code-language">%s</span>`, language)
			fmt.Fprintf(&buffer, `<button type="button" class="copy-button" data-index="%d">Copy</button></div>`, b.Index)
			fmt.Fprintf(&buffer, `<pre><code class="language-%s">%s</code></pre></div>`, language, html.EscapeString(b.Content()))
			buffer.WriteString("\n")
		}
	}
	return template.HTML(buffer.String()), nil
}
