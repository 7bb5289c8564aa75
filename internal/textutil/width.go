package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const DefaultTabWidth = 4

// ExpandTabs replaces tab characters with spaces up to the next tab stop.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text
	}

	var builder strings.Builder
	column := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		if cluster == "\t" {
			spaces := tabWidth - (column % tabWidth)
			builder.WriteString(strings.Repeat(" ", spaces))
			column += spaces
			continue
		}
		builder.WriteString(cluster)
		column += clusterWidth(cluster)
	}
	return builder.String()
}

// DisplayWidth reports the terminal column width of text. Each grapheme
// cluster counts as one or two columns.
func DisplayWidth(text string) int {
	width := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		width += clusterWidth(g.Str())
	}
	return width
}

// TruncateToWidth cuts text so that it fits into width columns, appending
// tail when anything was removed. Clusters are never split.
func TruncateToWidth(text string, width int, tail string) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(text) <= width {
		return text
	}
	tailWidth := DisplayWidth(tail)
	if tailWidth >= width {
		tail, tailWidth = "", 0
	}

	var builder strings.Builder
	used := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		w := clusterWidth(cluster)
		if used+w > width-tailWidth {
			break
		}
		builder.WriteString(cluster)
		used += w
	}
	builder.WriteString(tail)
	return builder.String()
}

func clusterWidth(cluster string) int {
	w := runewidth.StringWidth(cluster)
	switch {
	case w <= 0:
		return 1
	case w > 2:
		return 2
	}
	// emoji presentation selector widens text-default symbols
	if w == 1 && strings.ContainsRune(cluster, 0xFE0F) {
		return 2
	}
	return w
}
