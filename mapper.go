package mdblocks

import (
	"strings"

	"github.com/kk-code-lab/mdblocks/markdown"
	"github.com/rs/zerolog"
)

// Map turns a parsed document into blocks. It is a pure function of doc and
// opts: mapping the same document twice yields equal results.
func Map(doc *markdown.Document, opts Options) []Block {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil
	}
	opts = opts.normalized()
	m := &mapper{doc: doc, opts: opts, log: opts.logger()}
	return m.children(doc.Root())
}

type mapper struct {
	doc  *markdown.Document
	opts Options
	log  *zerolog.Logger
}

func (m *mapper) children(id markdown.NodeID) []Block {
	var out []Block
	for _, child := range m.doc.Children(id) {
		out = append(out, m.node(child)...)
	}
	return out
}

func (m *mapper) override(id markdown.NodeID) ([]Block, bool) {
	conv, ok := m.opts.Overrides[m.doc.Node(id).Kind]
	if !ok || conv == nil {
		return nil, false
	}
	return conv(m.doc, id)
}

func (m *mapper) node(id markdown.NodeID) []Block {
	if blocks, ok := m.override(id); ok {
		return blocks
	}
	n := m.doc.Node(id)
	switch n.Kind {
	case markdown.NodeRoot:
		return m.children(id)
	case markdown.NodeHeading:
		return []Block{m.heading(n)}
	case markdown.NodeParagraph:
		return m.paragraph(n)
	case markdown.NodeList:
		return m.list(id, n)
	case markdown.NodeListItem:
		return []Block{m.container(id, BlockBulletedListItem)}
	case markdown.NodeBlockquote:
		return []Block{m.container(id, BlockQuote)}
	case markdown.NodeCodeBlock:
		return []Block{m.code(n)}
	case markdown.NodeTable:
		return []Block{m.table(id)}
	case markdown.NodeTableRow:
		return []Block{m.tableRow(id)}
	case markdown.NodeTableCell:
		return []Block{{Type: BlockParagraph, RichText: m.richText(n.Text)}}
	case markdown.NodeThematicBreak:
		return []Block{{Type: BlockDivider}}
	}
	m.log.Debug().Stringer("kind", n.Kind).Msg("skipping unsupported node")
	return nil
}

func (m *mapper) heading(n *markdown.Node) Block {
	level := n.Level
	if level > m.opts.MaxHeadingLevel {
		m.log.Debug().Int("level", level).Int("max", m.opts.MaxHeadingLevel).Msg("clamping heading level")
		level = m.opts.MaxHeadingLevel
	}
	return Block{Type: HeadingType(level), RichText: m.richText(n.Text)}
}

func (m *mapper) paragraph(n *markdown.Node) []Block {
	if alt, src, ok := markdown.ParseImage(n.Text); ok {
		img := Block{Type: BlockImage, URL: src}
		if alt != "" {
			img.RichText = m.richText(alt)
		}
		return []Block{img}
	}
	rich := m.richText(n.Text)
	if isBlank(rich) && !m.opts.PreserveEmptyParagraphs {
		m.log.Debug().Msg("dropping empty paragraph")
		return nil
	}
	return []Block{{Type: BlockParagraph, RichText: rich}}
}

// list splices the items of a list into the parent sequence; the list
// itself has no block of its own.
func (m *mapper) list(id markdown.NodeID, n *markdown.Node) []Block {
	itemType := BlockBulletedListItem
	if n.Ordered {
		itemType = BlockNumberedListItem
	}
	var out []Block
	for _, item := range m.doc.Children(id) {
		if blocks, ok := m.override(item); ok {
			out = append(out, blocks...)
			continue
		}
		out = append(out, m.container(item, itemType))
	}
	return out
}

// container maps list items and quotes: a leading paragraph becomes the
// block's own rich text and every other child is nested below it.
func (m *mapper) container(id markdown.NodeID, typ BlockType) Block {
	block := Block{Type: typ}
	kids := m.doc.Children(id)
	if len(kids) > 0 {
		first := m.doc.Node(kids[0])
		if first.Kind == markdown.NodeParagraph && m.opts.Overrides[markdown.NodeParagraph] == nil {
			block.RichText = m.richText(first.Text)
			kids = kids[1:]
		}
	}
	for _, child := range kids {
		block.Children = append(block.Children, m.node(child)...)
	}
	return block
}

func (m *mapper) code(n *markdown.Node) Block {
	block := Block{Type: BlockCode, Language: m.codeLanguage(n.Language)}
	if n.Text != "" {
		block.RichText = splitLongRuns([]RichText{{Text: n.Text}}, m.opts.MaxRichTextLength)
	}
	return block
}

func (m *mapper) codeLanguage(tag string) string {
	if tag == "" {
		return m.opts.CodeBlockDefaultLanguage
	}
	if !m.opts.NormalizeLanguages {
		return tag
	}
	if lang, ok := NormalizeLanguage(tag); ok {
		return lang
	}
	m.log.Debug().Str("language", tag).Msg("unknown code language, using default")
	return m.opts.CodeBlockDefaultLanguage
}

func (m *mapper) table(id markdown.NodeID) Block {
	block := Block{Type: BlockTable, TableWidth: 1}
	rows := m.doc.Children(id)
	if len(rows) > 0 {
		header := m.doc.Node(rows[0])
		block.TableWidth = max(len(header.Children), 1)
		block.HasColumnHeader = header.Header
		block.ColumnAlign = m.columnAlign(header)
	}
	for _, row := range rows {
		if blocks, ok := m.override(row); ok {
			block.Children = append(block.Children, blocks...)
			continue
		}
		block.Children = append(block.Children, m.tableRow(row))
	}
	return block
}

func (m *mapper) columnAlign(header *markdown.Node) []Alignment {
	align := make([]Alignment, len(header.Children))
	aligned := false
	for i, cell := range header.Children {
		switch m.doc.Node(cell).Align {
		case markdown.AlignLeft:
			align[i] = AlignLeft
		case markdown.AlignCenter:
			align[i] = AlignCenter
		case markdown.AlignRight:
			align[i] = AlignRight
		default:
			continue
		}
		aligned = true
	}
	if !aligned {
		return nil
	}
	return align
}

func (m *mapper) tableRow(id markdown.NodeID) Block {
	row := m.doc.Node(id)
	block := Block{Type: BlockTableRow, Header: row.Header}
	block.Cells = make([][]RichText, 0, len(row.Children))
	for _, cell := range row.Children {
		block.Cells = append(block.Cells, m.richText(m.doc.Node(cell).Text))
	}
	return block
}

func (m *mapper) richText(text string) []RichText {
	spans := markdown.Resolve(text)
	if len(spans) == 0 {
		return nil
	}
	runs := make([]RichText, len(spans))
	for i, span := range spans {
		runs[i] = RichText{
			Text:          span.Text,
			Bold:          span.Bold,
			Italic:        span.Italic,
			Strikethrough: span.Strikethrough,
			Code:          span.Code,
			Link:          span.Link,
		}
	}
	return splitLongRuns(runs, m.opts.MaxRichTextLength)
}

func isBlank(runs []RichText) bool {
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			return false
		}
	}
	return true
}
