package markdown

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// NestingLimit caps list nesting. Markers that would open a deeper list join
// the innermost list allowed instead.
const NestingLimit = 64

// ErrStackUnderflow reports a parser bug: a container was closed that was
// never opened. Valid or invalid Markdown cannot trigger it.
var ErrStackUnderflow = errors.New("markdown: container stack underflow")

// Parse builds the document tree for a token slice.
func Parse(tokens []Token) (*Document, error) {
	return ParseSeq(slices.Values(tokens))
}

// ParseString tokenizes and parses text in one pass.
func ParseString(text string) (*Document, error) {
	return ParseSeq(Tokenize(text))
}

// ParseSeq consumes tokens in a single forward pass. It never rejects input;
// the only error is an internal consistency failure.
func ParseSeq(tokens iter.Seq[Token]) (*Document, error) {
	p := newBlockParser()
	for tok := range tokens {
		if err := p.feed(tok); err != nil {
			return nil, fmt.Errorf("line %d: %w", tok.Line, err)
		}
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type blockParser struct {
	doc *Document
	// open containers (NodeID values), innermost on top, root at the bottom
	stack     *arraystack.Stack
	listDepth int

	para      NodeID
	paraLines []string

	code       NodeID
	codeIndent int
	codeLines  []string

	table      NodeID
	tableWidth int
	tableAlign []Alignment
}

func newBlockParser() *blockParser {
	doc := &Document{}
	root := doc.add(NodeRoot, NoNode)
	stack := arraystack.New()
	stack.Push(root)
	return &blockParser{
		doc:   doc,
		stack: stack,
		para:  NoNode,
		code:  NoNode,
		table: NoNode,
	}
}

func (p *blockParser) feed(tok Token) error {
	if p.code != NoNode {
		if tok.Kind == TokenFenceDelimiter {
			p.closeCode()
			return nil
		}
		p.codeLines = append(p.codeLines, stripIndent(tok.Raw, p.codeIndent))
		return nil
	}

	switch tok.Kind {
	case TokenBlankLine:
		p.closeLeaves()
		return nil
	case TokenHeadingMarker:
		if err := p.closeAll(); err != nil {
			return err
		}
		id := p.doc.add(NodeHeading, p.doc.Root())
		n := p.doc.Node(id)
		n.Level = tok.Level
		n.Text = tok.Content
		n.HasText = true
		return nil
	case TokenThematicBreak:
		if err := p.closeAll(); err != nil {
			return err
		}
		p.doc.add(NodeThematicBreak, p.doc.Root())
		return nil
	case TokenFenceDelimiter:
		return p.openCode(tok)
	case TokenTableRow:
		return p.tableRow(tok)
	case TokenBlockquoteMarker:
		return p.quoteLine(tok)
	case TokenListMarker:
		return p.listItem(tok)
	default:
		return p.textLine(tok)
	}
}

func (p *blockParser) finish() error {
	if p.code != NoNode {
		p.closeCode()
	}
	if err := p.closeAll(); err != nil {
		return err
	}
	id, err := p.top()
	if err != nil {
		return err
	}
	if id != p.doc.Root() {
		return fmt.Errorf("%w: node %d left open", ErrStackUnderflow, id)
	}
	return nil
}

func (p *blockParser) textLine(tok Token) error {
	if p.para != NoNode {
		p.paraLines = append(p.paraLines, tok.Content)
		return nil
	}
	p.closeLeaves()
	parent, err := p.parentForIndent(tok.Indent)
	if err != nil {
		return err
	}
	p.openParagraph(parent, tok.Content)
	return nil
}

func (p *blockParser) quoteLine(tok Token) error {
	id, err := p.top()
	if err != nil {
		return err
	}
	quote := id
	if p.doc.Node(id).Kind != NodeBlockquote {
		p.closeLeaves()
		parent, err := p.parentForIndent(tok.Indent)
		if err != nil {
			return err
		}
		quote = p.doc.add(NodeBlockquote, parent)
		p.push(quote)
	}

	if isBlankLine(tok.Content) {
		p.closeParagraph()
		return nil
	}
	if p.para != NoNode {
		p.paraLines = append(p.paraLines, tok.Content)
		return nil
	}
	p.openParagraph(quote, tok.Content)
	return nil
}

func (p *blockParser) listItem(tok Token) error {
	p.closeLeaves()
	list, err := p.listFor(tok)
	if err != nil {
		return err
	}
	item := p.doc.add(NodeListItem, list)
	n := p.doc.Node(item)
	n.markerIndent = tok.Indent
	n.contentIndent = tok.ContentIndent
	p.push(item)
	if !isBlankLine(tok.Content) {
		p.openParagraph(item, tok.Content)
	}
	return nil
}

// listFor pops containers until tok can join an open list or nest under an
// open item, opening a new list when needed.
func (p *blockParser) listFor(tok Token) (NodeID, error) {
	for {
		id, err := p.top()
		if err != nil {
			return NoNode, err
		}
		n := p.doc.Node(id)
		switch n.Kind {
		case NodeRoot:
			return p.openList(id, tok), nil
		case NodeListItem:
			if tok.Indent > n.markerIndent && p.listDepth < NestingLimit {
				return p.openList(id, tok), nil
			}
		case NodeList:
			if tok.Indent >= n.markerIndent {
				return id, nil
			}
		}
		if err := p.pop(); err != nil {
			return NoNode, err
		}
	}
}

func (p *blockParser) openList(parent NodeID, tok Token) NodeID {
	id := p.doc.add(NodeList, parent)
	n := p.doc.Node(id)
	n.Ordered = tok.Ordered
	n.Start = 1
	if tok.Ordered {
		n.Start = tok.Number
	}
	n.markerIndent = tok.Indent
	p.push(id)
	p.listDepth++
	return id
}

func (p *blockParser) openCode(tok Token) error {
	p.closeLeaves()
	parent, err := p.parentForIndent(tok.Indent)
	if err != nil {
		return err
	}
	id := p.doc.add(NodeCodeBlock, parent)
	n := p.doc.Node(id)
	n.Info = tok.Info
	if fields := strings.Fields(tok.Info); len(fields) > 0 {
		n.Language = fields[0]
	}
	p.code = id
	p.codeIndent = tok.Indent
	p.codeLines = nil
	return nil
}

func (p *blockParser) closeCode() {
	n := p.doc.Node(p.code)
	n.Text = strings.Join(p.codeLines, "\n")
	n.HasText = true
	p.code = NoNode
	p.codeLines = nil
}

func (p *blockParser) tableRow(tok Token) error {
	if tok.Header || p.table == NoNode {
		if !tok.Header {
			return p.textLine(tok)
		}
		p.closeLeaves()
		parent, err := p.parentForIndent(tok.Indent)
		if err != nil {
			return err
		}
		p.table = p.doc.add(NodeTable, parent)
		p.tableWidth = len(tok.Cells)
		p.tableAlign = tok.Align
	}

	row := p.doc.add(NodeTableRow, p.table)
	p.doc.Node(row).Header = tok.Header
	// ragged rows are padded with empty cells; surplus cells are dropped
	for i := 0; i < p.tableWidth; i++ {
		cell := p.doc.add(NodeTableCell, row)
		n := p.doc.Node(cell)
		n.HasText = true
		if i < len(tok.Cells) {
			n.Text = tok.Cells[i]
		}
		if i < len(p.tableAlign) {
			n.Align = p.tableAlign[i]
		}
	}
	return nil
}

// parentForIndent closes containers that cannot hold a new block starting at
// indent and returns the innermost remaining one.
func (p *blockParser) parentForIndent(indent int) (NodeID, error) {
	for {
		id, err := p.top()
		if err != nil {
			return NoNode, err
		}
		n := p.doc.Node(id)
		switch n.Kind {
		case NodeRoot:
			return id, nil
		case NodeListItem:
			if indent >= n.contentIndent {
				return id, nil
			}
		}
		if err := p.pop(); err != nil {
			return NoNode, err
		}
	}
}

func (p *blockParser) openParagraph(parent NodeID, first string) {
	p.para = p.doc.add(NodeParagraph, parent)
	p.paraLines = append(p.paraLines[:0], first)
}

func (p *blockParser) closeParagraph() {
	if p.para == NoNode {
		return
	}
	n := p.doc.Node(p.para)
	n.Text = joinParagraphLines(p.paraLines)
	n.HasText = true
	p.para = NoNode
	p.paraLines = p.paraLines[:0]
}

func (p *blockParser) closeLeaves() {
	p.closeParagraph()
	p.table = NoNode
	p.tableWidth = 0
	p.tableAlign = nil
}

func (p *blockParser) closeAll() error {
	p.closeLeaves()
	for p.stack.Size() > 1 {
		if err := p.pop(); err != nil {
			return err
		}
	}
	return nil
}

func (p *blockParser) top() (NodeID, error) {
	v, ok := p.stack.Peek()
	if !ok {
		return NoNode, ErrStackUnderflow
	}
	return v.(NodeID), nil
}

func (p *blockParser) push(id NodeID) {
	p.stack.Push(id)
}

func (p *blockParser) pop() error {
	if p.stack.Size() <= 1 {
		return fmt.Errorf("%w: the document root cannot be closed", ErrStackUnderflow)
	}
	v, _ := p.stack.Pop()
	if p.doc.Node(v.(NodeID)).Kind == NodeList {
		p.listDepth--
	}
	return nil
}

// joinParagraphLines joins lines with a single space. A line ending in two
// or more spaces or an odd number of backslashes forces a hard break instead.
func joinParagraphLines(lines []string) string {
	var b strings.Builder
	for idx, line := range lines {
		last := idx == len(lines)-1
		content, hard := normalizeParagraphLine(line, last)
		b.WriteString(content)
		if last {
			break
		}
		if hard {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func normalizeParagraphLine(line string, last bool) (string, bool) {
	raw := strings.TrimRight(line, "\t")
	trimmed := strings.TrimRight(raw, " ")
	if last {
		return trimmed, false
	}
	hard := len(raw)-len(trimmed) >= 2
	if strings.HasSuffix(trimmed, "\\") && trailingBackslashes(trimmed)%2 == 1 {
		hard = true
		trimmed = strings.TrimRight(trimmed[:len(trimmed)-1], " ")
	}
	return trimmed, hard
}

func trailingBackslashes(s string) int {
	count := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		count++
	}
	return count
}
