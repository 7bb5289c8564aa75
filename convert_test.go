package mdblocks

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kk-code-lab/mdblocks/markdown"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func plain(text string) []RichText {
	return []RichText{{Text: text}}
}

func mustConvert(t *testing.T, text string, opts ...Option) []Block {
	t.Helper()
	blocks, err := Convert(text, opts...)
	require.NoError(t, err)
	return blocks
}

func TestConvertHeadingAndParagraph(t *testing.T) {
	blocks := mustConvert(t, "# Title\n\nSome **bold** and *italic* text.")
	assert.Equal(t, []Block{
		{Type: BlockHeading1, RichText: plain("Title")},
		{Type: BlockParagraph, RichText: []RichText{
			{Text: "Some "},
			{Text: "bold", Bold: true},
			{Text: " and "},
			{Text: "italic", Italic: true},
			{Text: " text."},
		}},
	}, blocks)
}

func TestConvertTable(t *testing.T) {
	blocks := mustConvert(t, "| A | B |\n|---|---|\n| 1 | 2 |")
	assert.Equal(t, []Block{{
		Type:            BlockTable,
		TableWidth:      2,
		HasColumnHeader: true,
		Children: []Block{
			{Type: BlockTableRow, Header: true, Cells: [][]RichText{plain("A"), plain("B")}},
			{Type: BlockTableRow, Cells: [][]RichText{plain("1"), plain("2")}},
		},
	}}, blocks)
}

func TestConvertTableColumnAlignment(t *testing.T) {
	blocks := mustConvert(t, "| A | B | C | D |\n|:---|:---:|---:|---|\n| 1 | 2 | 3 | 4 |")
	require.Len(t, blocks, 1)
	assert.Equal(t, []Alignment{AlignLeft, AlignCenter, AlignRight, AlignNone}, blocks[0].ColumnAlign)
}

func TestConvertRaggedTableIsPadded(t *testing.T) {
	blocks := mustConvert(t, "| A | B | C |\n|---|---|---|\n| 1 |")
	require.Len(t, blocks, 1)
	rows := blocks[0].Children
	require.Len(t, rows, 2)
	assert.Equal(t, [][]RichText{plain("1"), nil, nil}, rows[1].Cells)
}

func TestConvertNestedList(t *testing.T) {
	blocks := mustConvert(t, "- a\n  - b\n- c")
	assert.Equal(t, []Block{
		{Type: BlockBulletedListItem, RichText: plain("a"), Children: []Block{
			{Type: BlockBulletedListItem, RichText: plain("b")},
		}},
		{Type: BlockBulletedListItem, RichText: plain("c")},
	}, blocks)
}

func TestConvertNestingDepthIsPreserved(t *testing.T) {
	blocks := mustConvert(t, "- a\n  - b\n    - c")
	require.Len(t, blocks, 1)
	require.Len(t, blocks[0].Children, 1)
	require.Len(t, blocks[0].Children[0].Children, 1)
	innermost := blocks[0].Children[0].Children[0]
	assert.Equal(t, "c", innermost.PlainText())
	assert.Empty(t, innermost.Children)
}

func TestConvertOrderedList(t *testing.T) {
	blocks := mustConvert(t, "1. one\n2. two\n   - inner")
	assert.Equal(t, []Block{
		{Type: BlockNumberedListItem, RichText: plain("one")},
		{Type: BlockNumberedListItem, RichText: plain("two"), Children: []Block{
			{Type: BlockBulletedListItem, RichText: plain("inner")},
		}},
	}, blocks)
}

func TestConvertQuote(t *testing.T) {
	blocks := mustConvert(t, "> **Note**\n> more\n>\n> second")
	assert.Equal(t, []Block{{
		Type:     BlockQuote,
		RichText: []RichText{{Text: "Note", Bold: true}, {Text: " more"}},
		Children: []Block{{Type: BlockParagraph, RichText: plain("second")}},
	}}, blocks)
}

func TestConvertPlainTextYieldsOneParagraph(t *testing.T) {
	for _, text := range []string{
		"hello world",
		"just some words 123",
		"Ünïcödé text, with punctuation; and more.",
		"a.b,c;d?e",
	} {
		t.Run(text, func(t *testing.T) {
			blocks := mustConvert(t, text)
			assert.Equal(t, []Block{{Type: BlockParagraph, RichText: plain(text)}}, blocks)
		})
	}
}

func TestConvertLongStrikethroughCloser(t *testing.T) {
	blocks := mustConvert(t, "Release notes: ~~old ~~draft~~~ text")
	assert.Equal(t, []Block{{Type: BlockParagraph, RichText: []RichText{
		{Text: "Release notes: ~~old "},
		{Text: "draft", Strikethrough: true},
		{Text: "~ text"},
	}}}, blocks)
}

func TestConvertUnterminatedFence(t *testing.T) {
	blocks := mustConvert(t, "```python\nprint(1)\n\n# comment")
	assert.Equal(t, []Block{{
		Type:     BlockCode,
		Language: "python",
		RichText: plain("print(1)\n\n# comment"),
	}}, blocks)
}

func TestConvertHeadingLevels(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts []Option
		want BlockType
	}{
		{name: "h2", in: "## x", want: BlockHeading2},
		{name: "deep heading clamps to h3", in: "#### x", want: BlockHeading3},
		{name: "custom max", in: "### x", opts: []Option{WithMaxHeadingLevel(2)}, want: BlockHeading2},
		{name: "max is clamped to three", in: "###### x", opts: []Option{WithMaxHeadingLevel(9)}, want: BlockHeading3},
		{name: "setext", in: "x\n===", want: BlockHeading1},
		{name: "setext dashes", in: "x\n---", want: BlockHeading2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := mustConvert(t, tt.in, tt.opts...)
			require.Len(t, blocks, 1)
			assert.Equal(t, tt.want, blocks[0].Type)
			assert.Equal(t, "x", blocks[0].PlainText())
		})
	}
}

func TestConvertCodeLanguages(t *testing.T) {
	tests := []struct {
		name string
		in   string
		opts []Option
		want string
	}{
		{name: "default", in: "```\nx\n```", want: "plain text"},
		{name: "custom default", in: "```\nx\n```", opts: []Option{WithCodeBlockDefaultLanguage("go")}, want: "go"},
		{name: "verbatim tag", in: "```Python3 title\nx\n```", want: "Python3"},
		{name: "alias", in: "```py\nx\n```", opts: []Option{WithNormalizedLanguages(true)}, want: "python"},
		{name: "known name", in: "```Go\nx\n```", opts: []Option{WithNormalizedLanguages(true)}, want: "go"},
		{name: "unknown falls back", in: "```unknown\nx\n```", opts: []Option{WithNormalizedLanguages(true)}, want: "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := mustConvert(t, tt.in, tt.opts...)
			require.Len(t, blocks, 1)
			assert.Equal(t, BlockCode, blocks[0].Type)
			assert.Equal(t, tt.want, blocks[0].Language)
			assert.Equal(t, plain("x"), blocks[0].RichText)
		})
	}
}

func TestConvertEmptyParagraphs(t *testing.T) {
	assert.Empty(t, mustConvert(t, "<br>"))

	blocks := mustConvert(t, "<br>", WithPreserveEmptyParagraphs(true))
	assert.Equal(t, []Block{{Type: BlockParagraph, RichText: plain("\n")}}, blocks)
}

func TestConvertDividerAndImage(t *testing.T) {
	blocks := mustConvert(t, "a\n\n---\n\n![Logo](https://example.com/logo.png)")
	assert.Equal(t, []Block{
		{Type: BlockParagraph, RichText: plain("a")},
		{Type: BlockDivider},
		{Type: BlockImage, URL: "https://example.com/logo.png", RichText: plain("Logo")},
	}, blocks)
}

func TestConvertSplitsLongRichText(t *testing.T) {
	blocks := mustConvert(t, "**abcdefghijkl**", WithMaxRichTextLength(5))
	require.Len(t, blocks, 1)
	assert.Equal(t, []RichText{
		{Text: "abcde", Bold: true},
		{Text: "fghij", Bold: true},
		{Text: "kl", Bold: true},
	}, blocks[0].RichText)
}

func TestConvertResourceLimit(t *testing.T) {
	_, err := Convert(strings.Repeat("a", 11), WithMaxInputBytes(10))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceLimitExceeded)

	var limitErr *ResourceLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 11, limitErr.Size)
	assert.Equal(t, 10, limitErr.Limit)

	_, err = Convert(strings.Repeat("a", 11), WithMaxInputBytes(0))
	assert.NoError(t, err)

	_, err = ConvertBytes(bytes.Repeat([]byte("a"), 11), WithMaxInputBytes(10))
	assert.ErrorIs(t, err, ErrResourceLimitExceeded)
}

func TestConvertBytesDecodesInput(t *testing.T) {
	utf16 := []byte{0xFF, 0xFE, '#', 0x00, ' ', 0x00, 'A', 0x00}
	blocks, err := ConvertBytes(utf16)
	require.NoError(t, err)
	assert.Equal(t, []Block{{Type: BlockHeading1, RichText: plain("A")}}, blocks)

	blocks, err = ConvertBytes([]byte("\xEF\xBB\xBFCafé"))
	require.NoError(t, err)
	assert.Equal(t, []Block{{Type: BlockParagraph, RichText: plain("Café")}}, blocks)

	_, err = ConvertBytes([]byte{'a', 0xFF})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResourceLimitExceeded)
}

func TestConvertOverrides(t *testing.T) {
	mermaid := func(doc *markdown.Document, id markdown.NodeID) ([]Block, bool) {
		n := doc.Node(id)
		if n.Language != "mermaid" {
			return nil, false
		}
		return []Block{{Type: BlockParagraph, RichText: plain("diagram: " + n.Text)}}, true
	}
	blocks := mustConvert(t, "```mermaid\ngraph\n```\n\n```go\nx\n```", WithOverride(markdown.NodeCodeBlock, mermaid))
	assert.Equal(t, []Block{
		{Type: BlockParagraph, RichText: plain("diagram: graph")},
		{Type: BlockCode, Language: "go", RichText: plain("x")},
	}, blocks)
}

func TestWithOverrideCopiesMap(t *testing.T) {
	base := DefaultOptions()
	noop := func(*markdown.Document, markdown.NodeID) ([]Block, bool) { return nil, false }
	WithOverride(markdown.NodeHeading, noop)(&base)
	shared := base
	WithOverride(markdown.NodeParagraph, noop)(&shared)
	assert.Len(t, base.Overrides, 1)
	assert.Len(t, shared.Overrides, 2)
}

func TestMapIsIdempotent(t *testing.T) {
	doc, err := markdown.ParseString("# a\n\n- b\n  - c\n\n> d\n\n| e |\n|---|\n| f |")
	require.NoError(t, err)
	opts := DefaultOptions()
	assert.Equal(t, Map(doc, opts), Map(doc, opts))
}

func TestMapZeroOptionsUseDefaults(t *testing.T) {
	doc, err := markdown.ParseString("#### deep\n\n```\nx\n```")
	require.NoError(t, err)
	blocks := Map(doc, Options{})
	require.Len(t, blocks, 2)
	assert.Equal(t, BlockHeading3, blocks[0].Type)
	assert.Equal(t, DefaultCodeBlockLanguage, blocks[1].Language)
}

func TestConvertLogsAtDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	mustConvert(t, "#### deep", WithLogger(logger))
	assert.Contains(t, buf.String(), "clamping heading level")
	assert.Contains(t, buf.String(), "converted markdown")
}

func TestConvertIsSafeForConcurrentUse(t *testing.T) {
	const text = "# T\n\n- a\n  - b\n\n> q\n\n```go\nx\n```\n\n| a | b |\n|---|---|\n| 1 | 2 |"
	want := mustConvert(t, text)

	results := make([][]Block, 32)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			blocks, err := Convert(text)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			results[i] = blocks
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i, got := range results {
		assert.Equal(t, want, got, "worker %d", i)
	}
}

func FuzzConvert(f *testing.F) {
	for _, seed := range []string{
		"Release notes: ~~old ~~draft~~~ text",
		"# ~~~\n\n- ***a**\n  - ___b_\n\n> [[x](y)](z)",
		"| ~~a~~~ |\n|---|\n| *b |",
		"```go\n~~~\n```",
		"x\n---\n***\n___",
		strings.Repeat("> ", 80) + "deep",
		strings.Repeat("- ", 80) + "deep",
		"<br>\n\n![a](b)",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		blocks, err := Convert(in, WithMaxInputBytes(0))
		if err != nil {
			t.Fatalf("Convert(%q): %v", in, err)
		}
		var buf bytes.Buffer
		if err := EncodeJSON(&buf, blocks, ""); err != nil {
			t.Fatalf("EncodeJSON(%q): %v", in, err)
		}
	})
}
