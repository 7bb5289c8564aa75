// Package preview renders converted blocks as a terminal outline.
package preview

import (
	"strconv"
	"strings"

	"github.com/kk-code-lab/mdblocks"
	"github.com/kk-code-lab/mdblocks/internal/textutil"
)

const (
	indentWidth  = 2
	ellipsis     = "…"
	minRuleWidth = 3
	maxRuleWidth = 40
)

// LineKind selects the style a line is drawn with.
type LineKind int

const (
	LineText LineKind = iota
	LineHeading
	LineCode
	LineQuote
	LineTable
	LineDivider
	LineImage
)

// Line is one row of the outline.
type Line struct {
	Kind  LineKind
	Depth int
	Text  string
}

// Outline flattens blocks into display lines. Text is sanitized for the
// terminal and truncated to width columns; width <= 0 disables truncation.
func Outline(blocks []mdblocks.Block, width int) []Line {
	o := outliner{width: width}
	o.blocks(blocks, 0)
	return o.lines
}

type outliner struct {
	width int
	lines []Line
}

func (o *outliner) blocks(blocks []mdblocks.Block, depth int) {
	number := 0
	for _, b := range blocks {
		if b.Type == mdblocks.BlockNumberedListItem {
			number++
		} else {
			number = 0
		}
		o.block(b, depth, number)
	}
}

func (o *outliner) block(b mdblocks.Block, depth, number int) {
	switch b.Type {
	case mdblocks.BlockHeading1:
		o.text(LineHeading, depth, "H1 ", b.PlainText())
	case mdblocks.BlockHeading2:
		o.text(LineHeading, depth, "H2 ", b.PlainText())
	case mdblocks.BlockHeading3:
		o.text(LineHeading, depth, "H3 ", b.PlainText())
	case mdblocks.BlockBulletedListItem:
		o.text(LineText, depth, "• ", b.PlainText())
	case mdblocks.BlockNumberedListItem:
		o.text(LineText, depth, strconv.Itoa(number)+". ", b.PlainText())
	case mdblocks.BlockQuote:
		o.text(LineQuote, depth, "│ ", b.PlainText())
	case mdblocks.BlockCode:
		o.code(b, depth)
		return
	case mdblocks.BlockTable:
		o.table(b, depth)
		return
	case mdblocks.BlockDivider:
		o.add(LineDivider, depth, strings.Repeat("─", o.ruleWidth(depth)))
		return
	case mdblocks.BlockImage:
		text := "🖼 " + b.URL
		if alt := b.PlainText(); alt != "" {
			text += " (" + alt + ")"
		}
		o.add(LineImage, depth, text)
		return
	default:
		o.text(LineText, depth, "¶ ", b.PlainText())
	}
	o.blocks(b.Children, depth+1)
}

// text adds a prefixed block, continuing hard breaks under the prefix.
func (o *outliner) text(kind LineKind, depth int, prefix, text string) {
	pad := strings.Repeat(" ", textutil.DisplayWidth(prefix))
	for i, part := range strings.Split(text, "\n") {
		if i == 0 {
			o.add(kind, depth, prefix+part)
			continue
		}
		o.add(kind, depth, pad+part)
	}
}

func (o *outliner) code(b mdblocks.Block, depth int) {
	o.add(LineCode, depth, "code ("+b.Language+")")
	for _, line := range strings.Split(b.PlainText(), "\n") {
		o.add(LineCode, depth, "  "+line)
	}
}

func (o *outliner) table(b mdblocks.Block, depth int) {
	cols := b.TableWidth
	rows := make([][]string, 0, len(b.Children))
	for _, row := range b.Children {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = textutil.SanitizeTerminalText(cellText(cell))
		}
		cols = max(cols, len(cells))
		rows = append(rows, cells)
	}
	if cols == 0 {
		return
	}

	widths := make([]int, cols)
	for _, cells := range rows {
		for i, cell := range cells {
			widths[i] = max(widths[i], textutil.DisplayWidth(cell))
		}
	}

	for r, cells := range rows {
		var line strings.Builder
		line.WriteString("│")
		for i := range cols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			line.WriteString(" ")
			line.WriteString(alignCell(cell, widths[i], columnAlign(b, i)))
			line.WriteString(" │")
		}
		o.add(LineTable, depth, line.String())
		if r == 0 && b.HasColumnHeader && len(rows) > 1 {
			o.add(LineTable, depth, separator(widths))
		}
	}
}

func columnAlign(b mdblocks.Block, col int) mdblocks.Alignment {
	if col < len(b.ColumnAlign) {
		return b.ColumnAlign[col]
	}
	return mdblocks.AlignNone
}

// alignCell pads cell to width columns.
func alignCell(cell string, width int, align mdblocks.Alignment) string {
	gap := max(width-textutil.DisplayWidth(cell), 0)
	switch align {
	case mdblocks.AlignRight:
		return strings.Repeat(" ", gap) + cell
	case mdblocks.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func separator(widths []int) string {
	var line strings.Builder
	line.WriteString("├")
	for i, w := range widths {
		if i > 0 {
			line.WriteString("┼")
		}
		line.WriteString(strings.Repeat("─", w+2))
	}
	line.WriteString("┤")
	return line.String()
}

func cellText(cell []mdblocks.RichText) string {
	var b strings.Builder
	for _, r := range cell {
		b.WriteString(r.Text)
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}

func (o *outliner) ruleWidth(depth int) int {
	if o.width <= 0 {
		return maxRuleWidth
	}
	return min(max(o.width-depth*indentWidth, minRuleWidth), maxRuleWidth)
}

func (o *outliner) add(kind LineKind, depth int, text string) {
	text = textutil.ExpandTabs(text, textutil.DefaultTabWidth)
	text = strings.Repeat(" ", depth*indentWidth) + textutil.SanitizeTerminalText(text)
	if o.width > 0 {
		text = textutil.TruncateToWidth(text, o.width, ellipsis)
	}
	o.lines = append(o.lines, Line{Kind: kind, Depth: depth, Text: text})
}
