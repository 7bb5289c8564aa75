package mdblocks

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// splitLongRuns breaks runs longer than limit runes into consecutive runs
// with the same formatting. Cuts fall on grapheme cluster boundaries, so a
// single cluster longer than limit stays whole.
func splitLongRuns(runs []RichText, limit int) []RichText {
	if limit <= 0 {
		return runs
	}
	var out []RichText
	for _, run := range runs {
		if utf8.RuneCountInString(run.Text) <= limit {
			out = append(out, run)
			continue
		}
		var b strings.Builder
		count := 0
		g := uniseg.NewGraphemes(run.Text)
		for g.Next() {
			cluster := g.Str()
			size := utf8.RuneCountInString(cluster)
			if count > 0 && count+size > limit {
				piece := run
				piece.Text = b.String()
				out = append(out, piece)
				b.Reset()
				count = 0
			}
			b.WriteString(cluster)
			count += size
		}
		if b.Len() > 0 {
			piece := run
			piece.Text = b.String()
			out = append(out, piece)
		}
	}
	return out
}
