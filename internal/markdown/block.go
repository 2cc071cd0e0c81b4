package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Regex to match fenced code blocks with capture groups:
	// Group 1: language (optional)
	// Group 2: code content
	// A fence left open runs to the end of the content.
	codeBlockRegexp = regexp.MustCompile("(?sm)^ {0,3}```([\\w+#.-]*)[^\\n]*\\n(.*?)(?:^ {0,3}```[ \\t\\r]*$|\\z)")
)

// Block represents a parsed content block.
type Block interface {
	md() string
	Content() string
	Extension() string
}

// TextBlock represents plain markdown content.
type TextBlock struct {
	Text string
}

func (b *TextBlock) md() string { return b.Text }

// Content returns the text content.
func (b *TextBlock) Content() string { return b.Text }

// Extension returns the file extension of a text block.
func (b *TextBlock) Extension() string { return "md" }

// CodeBlock represents a fenced code block with optional language.
type CodeBlock struct {
	// Position among the document's code blocks.
	Index    int
	language string
	code     string
}

// md returns the code block as markdown. Tabs are expanded because they break terminal alignment.
func (b *CodeBlock) md() string {
	return "```" + b.language + "\n" + strings.ReplaceAll(b.code, "\t", "  ") + "\n```"
}

// Content returns the code exactly as it should be copied.
func (b *CodeBlock) Content() string {
	return b.code
}

// Language returns the fence language, or "" when none was given.
func (b *CodeBlock) Language() string {
	return b.language
}

// Extension returns the file extension of a code block.
func (b *CodeBlock) Extension() string {
	if b.language == "" {
		return "txt"
	}
	return b.language
}

// Document is a message split into text and code blocks, in order.
type Document struct {
	Blocks []Block
}

// Parse splits markdown content into blocks in a single pass.
func Parse(content string) *Document {
	return &Document{Blocks: ParseBlocks(content)}
}

// CodeBlocks returns the document's code blocks in order. The Nth rendered code block is the Nth
// element, so copy actions always pair with what is displayed.
func (d *Document) CodeBlocks() []*CodeBlock {
	var codeBlocks []*CodeBlock
	for _, block := range d.Blocks {
		if codeBlock, ok := block.(*CodeBlock); ok {
			codeBlocks = append(codeBlocks, codeBlock)
		}
	}
	return codeBlocks
}

// trimCode drops the blank lines around fenced code and trailing whitespace. Indentation of the first
// line is kept. Line endings are normalized to "\n".
func trimCode(code string) string {
	code = strings.TrimRightFunc(strings.ReplaceAll(code, "\r\n", "\n"), unicode.IsSpace)
	for {
		line, rest, found := strings.Cut(code, "\n")
		if !found || strings.TrimSpace(line) != "" {
			return code
		}
		code = rest
	}
}

// ParseBlocks parses markdown content into a list of TextBlock and CodeBlock segments.
func ParseBlocks(content string) []Block {
	var result []Block

	matches := codeBlockRegexp.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(content) != "" {
			result = append(result, &TextBlock{Text: content})
		}
		return result
	}

	lastEnd := 0
	codeIndex := 0
	for _, match := range matches {
		fullStart, fullEnd := match[0], match[1]
		langStart, langEnd := match[2], match[3]
		codeStart, codeEnd := match[4], match[5]

		// Add plain text before this code block
		if text := content[lastEnd:fullStart]; strings.TrimSpace(text) != "" {
			result = append(result, &TextBlock{Text: text})
		}

		var language string
		if langStart >= 0 {
			language = content[langStart:langEnd]
		}
		var code string
		if codeStart >= 0 {
			code = content[codeStart:codeEnd]
		}

		result = append(result, &CodeBlock{
			Index:    codeIndex,
			language: language,
			code:     trimCode(code),
		})
		codeIndex++
		lastEnd = fullEnd
	}

	// Add any remaining plain text after the last code block
	if text := content[lastEnd:]; strings.TrimSpace(text) != "" {
		result = append(result, &TextBlock{Text: text})
	}

	return result
}
