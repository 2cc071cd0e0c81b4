package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeBlocksPairInDocumentOrder(t *testing.T) {
	document := Parse("Here:\n```\na\n```\nand then\n```go\nb\n```\n")

	codeBlocks := document.CodeBlocks()
	require.Len(t, codeBlocks, 2)
	assert.Equal(t, "a", codeBlocks[0].Content())
	assert.Equal(t, "b", codeBlocks[1].Content())
	assert.Equal(t, 0, codeBlocks[0].Index)
	assert.Equal(t, 1, codeBlocks[1].Index)
	assert.Equal(t, "", codeBlocks[0].Language())
	assert.Equal(t, "go", codeBlocks[1].Language())

	require.Len(t, document.Blocks, 4)
	assert.IsType(t, &TextBlock{}, document.Blocks[0])
	assert.IsType(t, &CodeBlock{}, document.Blocks[1])
	assert.IsType(t, &TextBlock{}, document.Blocks[2])
	assert.Same(t, codeBlocks[1], document.Blocks[3])
}

func TestCodeBlockContentKeepsIndentation(t *testing.T) {
	document := Parse("```python\n\n\tdef f():\n\t\treturn 1\n\n```")
	codeBlocks := document.CodeBlocks()
	require.Len(t, codeBlocks, 1)
	assert.Equal(t, "\tdef f():\n\t\treturn 1", codeBlocks[0].Content())
	assert.Equal(t, "python", codeBlocks[0].Extension())
	assert.True(t, strings.HasPrefix(codeBlocks[0].md(), "```python\n  def f():"))
}

func TestCodeBlockContentIsTrimmedOfSurroundingWhitespace(t *testing.T) {
	document := Parse("Run:\r\n```sh  \r\n  \r\nmake test  \r\ngo vet ./...\r\n \t\r\n```\r\nDone.")
	codeBlocks := document.CodeBlocks()
	require.Len(t, codeBlocks, 1)
	assert.Equal(t, "make test  \ngo vet ./...", codeBlocks[0].Content())
	assert.Equal(t, "sh", codeBlocks[0].Language())
	require.Len(t, document.Blocks, 3)
	assert.Contains(t, document.Blocks[2].(*TextBlock).Text, "Done.")
}

func TestParseBlocks(t *testing.T) {
	cases := []struct {
		name    string
		content string
		code    []string
		blocks  int
	}{
		{name: "plain text", content: "# Title\n\n- one\n- two", blocks: 1},
		{name: "empty", content: "", blocks: 0},
		{name: "inline backticks are not fences", content: "use ```x``` inline", blocks: 1},
		{name: "language with symbols", content: "```c++\nint x;\n```", code: []string{"int x;"}, blocks: 1},
		{name: "info string", content: "```js title=app.js\nlet a\n```", code: []string{"let a"}, blocks: 1},
		{name: "unterminated fence", content: "text\n```sh\necho hi\n", code: []string{"echo hi"}, blocks: 2},
		{name: "empty block", content: "```\n```", code: []string{""}, blocks: 1},
		{name: "adjacent blocks", content: "```\na\n```\n```\nb\n```", code: []string{"a", "b"}, blocks: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			document := Parse(tc.content)
			assert.Len(t, document.Blocks, tc.blocks)
			var code []string
			for _, codeBlock := range document.CodeBlocks() {
				code = append(code, codeBlock.Content())
			}
			assert.Equal(t, tc.code, code)
		})
	}
}
