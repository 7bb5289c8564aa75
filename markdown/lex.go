package markdown

import (
	"iter"
	"slices"
	"strings"
)

// Tokenize scans text into a lazy sequence of line tokens. Every line maps to
// exactly one token; malformed constructs degrade to TokenText. The returned
// sequence can be ranged over any number of times, each pass starting fresh.
func Tokenize(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		lx := &lexer{lines: splitLines(text), prevKind: TokenBlankLine}
		for {
			tok, ok := lx.next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Lex collects Tokenize into a slice.
func Lex(text string) []Token {
	return slices.Collect(Tokenize(text))
}

type lexer struct {
	lines []string
	pos   int

	// open fence, if any; lines are passed through verbatim until it closes
	fence    fenceSpec
	inFence  bool
	inTable  bool
	prevKind TokenKind
}

func (lx *lexer) next() (Token, bool) {
	if lx.pos >= len(lx.lines) {
		return Token{}, false
	}
	line := lx.lines[lx.pos]
	tok := Token{Line: lx.pos + 1, Raw: line}
	lx.pos++

	lx.classify(&tok)
	lx.prevKind = tok.Kind
	return tok, true
}

func (lx *lexer) classify(tok *Token) {
	line := tok.Raw
	trimmed := strings.TrimLeft(line, " \t")
	tok.Indent = indentWidth(line)

	if lx.inFence {
		if closing, ok := detectFence(trimmed); ok && closing.info == "" &&
			closing.delimiter == lx.fence.delimiter && closing.length >= lx.fence.length {
			lx.inFence = false
			tok.Kind = TokenFenceDelimiter
			tok.Fence = closing.delimiter
			tok.FenceLen = closing.length
			return
		}
		tok.Kind = TokenText
		tok.Content = line
		return
	}

	if isBlankLine(line) {
		lx.inTable = false
		tok.Kind = TokenBlankLine
		return
	}

	if lx.inTable {
		if strings.Contains(trimmed, "|") {
			tok.Kind = TokenTableRow
			tok.Cells = splitTableRow(strings.TrimSpace(line))
			tok.Content = strings.TrimSpace(line)
			return
		}
		lx.inTable = false
	}

	if tok.Indent < 4 && lx.tableStartsAt(lx.pos-1) {
		header := strings.TrimSpace(line)
		separator := strings.TrimSpace(lx.lines[lx.pos])
		lx.pos++ // the separator line is consumed here
		lx.inTable = true
		tok.Kind = TokenTableRow
		tok.Header = true
		tok.Cells = splitTableRow(header)
		tok.Align = parseTableAlignment(splitTableRow(separator))
		tok.Content = header
		return
	}

	if fence, ok := detectFence(trimmed); ok && (fence.delimiter != '`' || !strings.ContainsRune(fence.info, '`')) {
		lx.inFence = true
		lx.fence = fence
		tok.Kind = TokenFenceDelimiter
		tok.Fence = fence.delimiter
		tok.FenceLen = fence.length
		tok.Info = fence.info
		return
	}

	if tok.Indent < 4 {
		if level, text, ok := parseHeading(trimmed); ok {
			tok.Kind = TokenHeadingMarker
			tok.Level = level
			tok.Content = text
			return
		}
	}

	if tok.Indent < 4 && startsParagraph(lx.prevKind) {
		if level, ok := lx.setextLevel(trimmed); ok {
			lx.pos++ // underline
			tok.Kind = TokenHeadingMarker
			tok.Level = level
			tok.Content = strings.TrimSpace(line)
			return
		}
	}

	if tok.Indent < 4 && strings.HasPrefix(trimmed, ">") {
		content := strings.TrimPrefix(trimmed, ">")
		if strings.HasPrefix(content, " ") || strings.HasPrefix(content, "\t") {
			content = content[1:]
		}
		tok.Kind = TokenBlockquoteMarker
		tok.Content = content
		return
	}

	if isHorizontalRule(trimmed) {
		tok.Kind = TokenThematicBreak
		return
	}

	if m, ok := parseListMarker(line); ok {
		tok.Kind = TokenListMarker
		tok.Ordered = m.ordered
		tok.Number = m.number
		tok.ContentIndent = m.indent + m.markerLen + 1
		tok.Content = m.content
		return
	}

	tok.Kind = TokenText
	tok.Content = trimmed
}

// tableStartsAt reports whether lines[index] is a table header followed by a
// matching separator line.
func (lx *lexer) tableStartsAt(index int) bool {
	if index+1 >= len(lx.lines) {
		return false
	}
	header := strings.TrimSpace(lx.lines[index])
	separator := strings.TrimSpace(lx.lines[index+1])
	if !strings.Contains(header, "|") || !strings.Contains(separator, "|") {
		return false
	}
	if !looksLikeTableSeparator(separator) {
		return false
	}
	headers := splitTableRow(header)
	separators := splitTableRow(separator)
	return len(headers) > 0 && len(headers) == len(separators)
}

// setextLevel looks one line ahead for a `===` or `---` underline. A paragraph
// continuation line never becomes a setext heading.
func (lx *lexer) setextLevel(trimmed string) (int, bool) {
	if lx.pos >= len(lx.lines) || trimmed == "" {
		return 0, false
	}
	if strings.HasPrefix(trimmed, ">") || isHorizontalRule(trimmed) {
		return 0, false
	}
	if _, ok := parseListMarker(trimmed); ok {
		return 0, false
	}
	underline := lx.lines[lx.pos]
	if indentWidth(underline) >= 4 {
		return 0, false
	}
	indicator := strings.TrimSpace(underline)
	switch {
	case allRunes(indicator, '='):
		return 1, true
	case allRunes(indicator, '-'):
		return 2, true
	}
	return 0, false
}

// startsParagraph reports whether a text line following prev begins a new
// paragraph rather than continuing one.
func startsParagraph(prev TokenKind) bool {
	switch prev {
	case TokenBlankLine, TokenHeadingMarker, TokenThematicBreak, TokenFenceDelimiter:
		return true
	}
	return false
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
