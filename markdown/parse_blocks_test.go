package markdown

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outline renders the tree below the root one node per line, two spaces of
// indent per level.
func outline(doc *Document) []string {
	var lines []string
	doc.Walk(func(id NodeID, depth int) bool {
		if id == doc.Root() {
			return true
		}
		n := doc.Node(id)
		label := n.Kind.String()
		switch n.Kind {
		case NodeHeading:
			label = fmt.Sprintf("Heading(%d)", n.Level)
		case NodeList:
			if n.Ordered {
				label = fmt.Sprintf("List(ordered,%d)", n.Start)
			}
		case NodeCodeBlock:
			label = fmt.Sprintf("CodeBlock(%s)", n.Language)
		case NodeTableRow:
			if n.Header {
				label = "TableRow(header)"
			}
		}
		if n.HasText {
			label += fmt.Sprintf(" %q", n.Text)
		}
		lines = append(lines, strings.Repeat("  ", depth-1)+label)
		return true
	})
	return lines
}

func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := ParseString(text)
	require.NoError(t, err)
	return doc
}

func TestParseStructure(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "heading and paragraph",
			in:   "# Title\n\nSome **bold** and *italic* text.",
			want: []string{`Heading(1) "Title"`, `Paragraph "Some **bold** and *italic* text."`},
		},
		{
			name: "paragraph lines join with a space",
			in:   "one\ntwo\n\nthree",
			want: []string{`Paragraph "one two"`, `Paragraph "three"`},
		},
		{
			name: "hard break",
			in:   "one  \ntwo\\\nthree",
			want: []string{`Paragraph "one\ntwo\nthree"`},
		},
		{
			name: "nested list",
			in:   "- a\n  - b\n- c",
			want: []string{
				"List",
				"  ListItem",
				`    Paragraph "a"`,
				"    List",
				"      ListItem",
				`        Paragraph "b"`,
				"  ListItem",
				`    Paragraph "c"`,
			},
		},
		{
			name: "blank line between items keeps the list",
			in:   "- a\n\n- b",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, "  ListItem", `    Paragraph "b"`},
		},
		{
			name: "ordered list keeps its start and kind",
			in:   "3. three\n- four",
			want: []string{
				"List(ordered,3)",
				"  ListItem",
				`    Paragraph "three"`,
				"  ListItem",
				`    Paragraph "four"`,
			},
		},
		{
			name: "lazy continuation",
			in:   "- item\ncontinued",
			want: []string{"List", "  ListItem", `    Paragraph "item continued"`},
		},
		{
			name: "second paragraph inside item",
			in:   "- a\n\n  b",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, `    Paragraph "b"`},
		},
		{
			name: "unindented text after blank leaves the list",
			in:   "- a\n\nb",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, `Paragraph "b"`},
		},
		{
			name: "heading closes list",
			in:   "- a\n## H",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, `Heading(2) "H"`},
		},
		{
			name: "blockquote paragraphs",
			in:   "> one\n> two\n>\n> three",
			want: []string{"Blockquote", `  Paragraph "one two"`, `  Paragraph "three"`},
		},
		{
			name: "blockquote lazy line",
			in:   "> a\nb",
			want: []string{"Blockquote", `  Paragraph "a b"`},
		},
		{
			name: "blockquote continues after blank",
			in:   "> a\n\n> b",
			want: []string{"Blockquote", `  Paragraph "a"`, `  Paragraph "b"`},
		},
		{
			name: "nested quote marker is literal",
			in:   ">> deep",
			want: []string{"Blockquote", `  Paragraph "> deep"`},
		},
		{
			name: "quote inside list item",
			in:   "- a\n  > q",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, "    Blockquote", `      Paragraph "q"`},
		},
		{
			name: "fenced code",
			in:   "```go\nx := 1\n\n  y := 2\n```",
			want: []string{`CodeBlock(go) "x := 1\n\n  y := 2"`},
		},
		{
			name: "fenced code inside list item",
			in:   "- a\n  ```\n  x\n  ```",
			want: []string{"List", "  ListItem", `    Paragraph "a"`, `    CodeBlock() "x"`},
		},
		{
			name: "unterminated fence runs to end of input",
			in:   "```\nline one\n# not heading",
			want: []string{`CodeBlock() "line one\n# not heading"`},
		},
		{
			name: "table",
			in:   "| a | b |\n|---|---|\n| 1 | 2 |",
			want: []string{
				"Table",
				"  TableRow(header)",
				`    TableCell "a"`,
				`    TableCell "b"`,
				"  TableRow",
				`    TableCell "1"`,
				`    TableCell "2"`,
			},
		},
		{
			name: "ragged table rows",
			in:   "| a | b |\n|---|---|\n| 1 |\n| 1 | 2 | 3 |",
			want: []string{
				"Table",
				"  TableRow(header)",
				`    TableCell "a"`,
				`    TableCell "b"`,
				"  TableRow",
				`    TableCell "1"`,
				`    TableCell ""`,
				"  TableRow",
				`    TableCell "1"`,
				`    TableCell "2"`,
			},
		},
		{
			name: "thematic break",
			in:   "a\n\n---\n\nb",
			want: []string{`Paragraph "a"`, "ThematicBreak", `Paragraph "b"`},
		},
		{
			name: "setext heading",
			in:   "Title\n---\ntext",
			want: []string{`Heading(2) "Title"`, `Paragraph "text"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outline(mustParse(t, tt.in)))
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	doc := mustParse(t, "")
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, NodeRoot, doc.Node(doc.Root()).Kind)
	assert.Empty(t, doc.Children(doc.Root()))
}

func TestParseMatchesParseString(t *testing.T) {
	text := "# a\n\n- b\n  - c\n\n> d\n\n```\ne\n```\n| f |\n|---|\n| g |"
	fromTokens, err := Parse(Lex(text))
	require.NoError(t, err)
	assert.Equal(t, outline(mustParse(t, text)), outline(fromTokens))
}

func TestParseEveryNodeHasOneParent(t *testing.T) {
	doc := mustParse(t, "- a\n  - b\n    - c\n> q\n\n| x | y |\n|---|---|\n| 1 | 2 |")
	parents := make(map[NodeID]int)
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			parents[child]++
		}
	}
	for id := range doc.Nodes {
		if NodeID(id) == doc.Root() {
			assert.Zero(t, parents[NodeID(id)])
			continue
		}
		assert.Equal(t, 1, parents[NodeID(id)], "node %d", id)
	}
}

func TestParseNestingLimitFlattens(t *testing.T) {
	var b strings.Builder
	for i := 0; i < NestingLimit+10; i++ {
		fmt.Fprintf(&b, "%s- level %d\n", strings.Repeat("  ", i), i)
	}
	doc := mustParse(t, b.String())

	var deepest func(id NodeID) int
	deepest = func(id NodeID) int {
		best := 0
		for _, child := range doc.Children(id) {
			if d := deepest(child); d > best {
				best = d
			}
		}
		if doc.Node(id).Kind == NodeList {
			best++
		}
		return best
	}
	assert.Equal(t, NestingLimit, deepest(doc.Root()))

	items := 0
	for _, n := range doc.Nodes {
		if n.Kind == NodeListItem {
			items++
		}
	}
	assert.Equal(t, NestingLimit+10, items)
}

func TestBlockParserPopRootUnderflows(t *testing.T) {
	p := newBlockParser()
	assert.ErrorIs(t, p.pop(), ErrStackUnderflow)
}

func TestParseOnlyTextNodesCarryText(t *testing.T) {
	doc := mustParse(t, "# h\n\n- a\n\n> q\n\n```\nc\n```\n\n| x |\n|---|\n| y |\n\n---")
	for _, n := range doc.Nodes {
		switch n.Kind {
		case NodeHeading, NodeParagraph, NodeTableCell, NodeCodeBlock:
			assert.True(t, n.HasText, n.Kind.String())
		default:
			assert.False(t, n.HasText, n.Kind.String())
			assert.Empty(t, n.Text, n.Kind.String())
		}
	}
}
