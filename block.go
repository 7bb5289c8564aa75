// Package mdblocks converts Markdown text into Notion-style blocks.
//
// The pipeline lexes the input into line tokens, builds a block tree with an
// explicit container stack, resolves inline formatting per text run and maps
// the tree onto a closed set of block types. Every call is hermetic and safe
// for concurrent use.
package mdblocks

// BlockType is the tag of an emitted block.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockQuote            BlockType = "quote"
	BlockCode             BlockType = "code"
	BlockTable            BlockType = "table"
	BlockTableRow         BlockType = "table_row"
	BlockDivider          BlockType = "divider"
	BlockImage            BlockType = "image"
)

// HeadingType returns the heading block type for level, clamped to 1..3.
func HeadingType(level int) BlockType {
	switch {
	case level <= 1:
		return BlockHeading1
	case level == 2:
		return BlockHeading2
	default:
		return BlockHeading3
	}
}

// Alignment is the declared alignment of a table column. The zero value
// leaves the column unaligned.
type Alignment string

const (
	AlignNone   Alignment = ""
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// RichText is one formatted text run.
type RichText struct {
	Text          string
	Bold          bool
	Italic        bool
	Strikethrough bool
	Code          bool
	Link          string
}

// Block is one emitted unit. Only the fields relevant to Type are set.
type Block struct {
	Type     BlockType
	RichText []RichText
	Children []Block

	// Language is set on code blocks.
	Language string
	// URL is the external source of an image block; RichText holds its caption.
	URL string

	// Table fields. ColumnAlign is nil unless the separator line aligns at
	// least one column.
	TableWidth      int
	HasColumnHeader bool
	ColumnAlign     []Alignment

	// Table row fields.
	Cells  [][]RichText
	Header bool
}

// PlainText concatenates the text of all rich text runs.
func (b Block) PlainText() string {
	return plainText(b.RichText)
}

func plainText(runs []RichText) string {
	switch len(runs) {
	case 0:
		return ""
	case 1:
		return runs[0].Text
	}
	size := 0
	for _, r := range runs {
		size += len(r.Text)
	}
	buf := make([]byte, 0, size)
	for _, r := range runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}
