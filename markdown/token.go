package markdown

// TokenKind classifies one lexed line.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenBlankLine
	TokenHeadingMarker
	TokenListMarker
	TokenBlockquoteMarker
	TokenFenceDelimiter
	TokenTableRow
	TokenThematicBreak
)

var tokenKindNames = [...]string{
	TokenText:             "Text",
	TokenBlankLine:        "BlankLine",
	TokenHeadingMarker:    "HeadingMarker",
	TokenListMarker:       "ListMarker",
	TokenBlockquoteMarker: "BlockquoteMarker",
	TokenFenceDelimiter:   "FenceDelimiter",
	TokenTableRow:         "TableRow",
	TokenThematicBreak:    "ThematicBreak",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "Unknown"
}

// Alignment is the column alignment declared by a table separator line.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Token is a single source line as seen by the lexer.
type Token struct {
	Kind TokenKind
	// Line is the 1-based source line number.
	Line int
	// Raw is the untouched source line (without the line terminator).
	Raw string
	// Content is the text after the block marker, leading whitespace removed.
	Content string
	// Indent is the leading whitespace width (tabs advance to the next multiple of 4).
	Indent int

	// Level is the heading level (1-6) of a HeadingMarker.
	Level int

	// List marker fields.
	Ordered       bool
	Number        int
	ContentIndent int

	// Fence fields. Info is only set on an opening fence.
	Fence    rune
	FenceLen int
	Info     string

	// Table fields.
	Cells  []string
	Header bool
	Align  []Alignment
}
