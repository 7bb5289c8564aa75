package markdown

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const tabWidth = 4

type fenceSpec struct {
	delimiter rune
	length    int
	info      string
}

func detectFence(trimmed string) (fenceSpec, bool) {
	if trimmed == "" {
		return fenceSpec{}, false
	}
	first, size := utf8.DecodeRuneInString(trimmed)
	if size == 0 {
		return fenceSpec{}, false
	}
	if first != '`' && first != '~' {
		return fenceSpec{}, false
	}

	count := countRepeatRune(trimmed, first)
	if count < 3 {
		return fenceSpec{}, false
	}
	info := strings.TrimSpace(trimmed[count:])
	return fenceSpec{delimiter: first, length: count, info: info}, true
}

type listMarker struct {
	ordered   bool
	number    int
	markerLen int
	indent    int
	content   string
}

func parseListMarker(line string) (listMarker, bool) {
	if isBlankLine(line) {
		return listMarker{}, false
	}
	indent := indentWidth(line)
	trimmed := strings.TrimLeft(line, " \t")

	if isBullet(trimmed[0]) {
		if len(trimmed) < 2 || !isSpaceOrTab(rune(trimmed[1])) {
			return listMarker{}, false
		}
		return listMarker{
			markerLen: 1,
			indent:    indent,
			content:   strings.TrimLeft(trimmed[2:], " \t"),
		}, true
	}

	j := 0
	for j < len(trimmed) && j < 9 && trimmed[j] >= '0' && trimmed[j] <= '9' {
		j++
	}
	if j == 0 || j+1 >= len(trimmed) {
		return listMarker{}, false
	}
	if trimmed[j] != '.' && trimmed[j] != ')' {
		return listMarker{}, false
	}
	if !isSpaceOrTab(rune(trimmed[j+1])) {
		return listMarker{}, false
	}
	num, _ := strconv.Atoi(trimmed[:j])
	return listMarker{
		ordered:   true,
		number:    num,
		markerLen: j + 1,
		indent:    indent,
		content:   strings.TrimLeft(trimmed[j+2:], " \t"),
	}, true
}

// parseHeading recognizes an ATX heading: one to six '#' followed by
// whitespace or the end of the line. A closing run of '#' is stripped.
func parseHeading(trimmed string) (int, string, bool) {
	level := countRepeatRune(trimmed, '#')
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && !isSpaceOrTab(rune(rest[0])) {
		return 0, "", false
	}
	content := strings.TrimSpace(rest)
	if stripped := strings.TrimRight(content, "#"); stripped != content {
		if stripped == "" {
			content = ""
		} else if last := stripped[len(stripped)-1]; last == ' ' || last == '\t' {
			content = strings.TrimSpace(stripped)
		}
	}
	return level, content, true
}

func isHorizontalRule(trimmed string) bool {
	if len(trimmed) < 3 {
		return false
	}
	clean := strings.ReplaceAll(trimmed, " ", "")
	clean = strings.ReplaceAll(clean, "\t", "")
	if len(clean) < 3 {
		return false
	}
	return allRunes(clean, '-') || allRunes(clean, '*') || allRunes(clean, '_')
}

func looksLikeTableSeparator(line string) bool {
	parts := splitTableRow(line)
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		if part == "" || !strings.Contains(part, "-") {
			return false
		}
		if strings.IndexFunc(part, func(r rune) bool { return r != '-' && r != ':' }) != -1 {
			return false
		}
	}
	return true
}

func parseTableAlignment(parts []string) []Alignment {
	align := make([]Alignment, len(parts))
	for i, part := range parts {
		left := strings.HasPrefix(part, ":")
		right := strings.HasSuffix(part, ":")
		switch {
		case left && right:
			align[i] = AlignCenter
		case right:
			align[i] = AlignRight
		case left:
			align[i] = AlignLeft
		default:
			align[i] = AlignDefault
		}
	}
	return align
}

// splitTableRow splits a trimmed row on unescaped pipes outside code spans.
// Escaped pipes keep their backslash so the inline resolver can unescape them.
func splitTableRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, "\\|") {
		line = strings.TrimSuffix(line, "|")
	}
	parts := splitPipes(line)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func splitPipes(line string) []string {
	var parts []string
	var buf []rune
	inCode := false
	backticks := 0
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				buf = append(buf, r, runes[i+1])
				i++
				continue
			}
		case '`':
			n := countRepeat(runes[i:], '`')
			if !inCode {
				backticks = n
				inCode = true
			} else if n == backticks {
				inCode = false
				backticks = 0
			}
			buf = append(buf, runes[i:i+n]...)
			i += n - 1
			continue
		case '|':
			if !inCode {
				parts = append(parts, string(buf))
				buf = buf[:0]
				continue
			}
		}
		buf = append(buf, r)
	}
	parts = append(parts, string(buf))
	return parts
}

// indentWidth measures leading whitespace, expanding tabs to tab stops.
func indentWidth(line string) int {
	width := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			width++
		case '\t':
			width += tabWidth - width%tabWidth
		default:
			return width
		}
	}
	return width
}

// stripIndent removes up to n columns of leading whitespace.
func stripIndent(line string, n int) string {
	width := 0
	for i, ch := range line {
		if width >= n {
			return line[i:]
		}
		switch ch {
		case ' ':
			width++
		case '\t':
			next := width + tabWidth - width%tabWidth
			if next > n {
				return strings.Repeat(" ", next-n) + line[i+1:]
			}
			width = next
		default:
			return line[i:]
		}
	}
	return ""
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isBullet(ch byte) bool {
	return ch == '-' || ch == '+' || ch == '*'
}

func isSpaceOrTab(r rune) bool {
	return r == ' ' || r == '\t'
}

func allRunes(s string, target rune) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != target {
			return false
		}
	}
	return true
}

func countRepeatRune(text string, target rune) int {
	n := 0
	for _, r := range text {
		if r != target {
			break
		}
		n++
	}
	return n
}

func countRepeat(runes []rune, target rune) int {
	n := 0
	for n < len(runes) && runes[n] == target {
		n++
	}
	return n
}

func isAlnum(runes []rune, idx int) bool {
	if idx < 0 || idx >= len(runes) {
		return false
	}
	return unicode.IsLetter(runes[idx]) || unicode.IsDigit(runes[idx])
}

func isSpaceAt(runes []rune, idx int) bool {
	if idx < 0 || idx >= len(runes) {
		return true
	}
	return unicode.IsSpace(runes[idx])
}
