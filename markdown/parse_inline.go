package markdown

import "strings"

// Span is a contiguous run of text sharing one formatting state.
type Span struct {
	Text          string
	Bold          bool
	Italic        bool
	Strikethrough bool
	Code          bool
	// Link is the destination URL, empty when the span is not a link.
	Link string
}

// SameFormat reports whether s and o differ only in their text.
func (s Span) SameFormat(o Span) bool {
	return s.Bold == o.Bold && s.Italic == o.Italic && s.Strikethrough == o.Strikethrough &&
		s.Code == o.Code && s.Link == o.Link
}

const inlineRecursionLimit = 32

const escapableASCII = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

type inlineStyle uint8

const (
	styleBold inlineStyle = 1 << iota
	styleItalic
	styleStrike
	styleCode
)

// inlineItem is either literal text (delim == 0) or a run of emphasis
// delimiters whose unmatched remainder (count) is emitted literally.
type inlineItem struct {
	text  string
	style inlineStyle
	link  string

	delim    rune
	count    int
	canOpen  bool
	canClose bool
}

// Resolve splits a text run into rich text spans. It never fails: markers
// without a partner are kept as literal text. Concatenating the span texts
// yields the run with all consumed markers removed.
func Resolve(run string) []Span {
	return resolveDepth(run, 0, true)
}

func resolveDepth(run string, depth int, allowLinks bool) []Span {
	if run == "" {
		return nil
	}
	if depth >= inlineRecursionLimit {
		return []Span{{Text: run}}
	}
	items := scanInline([]rune(run), depth, allowLinks)
	matchDelimiters(items)
	return flattenItems(items)
}

// scanInline performs the left-to-right pass. Code spans are cut out first
// and never looked into again; links are consumed as a unit with their label
// resolved recursively.
func scanInline(runes []rune, depth int, allowLinks bool) []inlineItem {
	var items []inlineItem
	var buf []rune

	flushText := func() {
		if len(buf) == 0 {
			return
		}
		items = append(items, inlineItem{text: string(buf)})
		buf = buf[:0]
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) && strings.ContainsRune(escapableASCII, runes[i+1]) {
				buf = append(buf, runes[i+1])
				i += 2
				continue
			}
			buf = append(buf, r)
			i++
		case '`':
			count := countRepeat(runes[i:], '`')
			end := findClosingBackticks(runes[i+count:], count)
			if end == -1 {
				buf = append(buf, runes[i:i+count]...)
				i += count
				continue
			}
			flushText()
			items = append(items, inlineItem{
				text:  codeSpanText(runes[i+count : i+count+end]),
				style: styleCode,
			})
			i += count + end + count
		case '!':
			if i+1 < len(runes) && runes[i+1] == '[' {
				if img, ok := parseLinkAt(runes[i+1:]); ok {
					// inline images degrade to their alt text
					buf = append(buf, img.label...)
					i += 1 + img.consumed
					continue
				}
			}
			buf = append(buf, r)
			i++
		case '[':
			if allowLinks {
				if lnk, ok := parseLinkAt(runes[i:]); ok {
					flushText()
					items = append(items, linkItems(lnk, depth)...)
					i += lnk.consumed
					continue
				}
			}
			buf = append(buf, r)
			i++
		case '<':
			if n := detectBreakTag(runes[i:]); n > 0 {
				buf = append(buf, '\n')
				i += n
				continue
			}
			if allowLinks {
				if item, n, ok := parseAutolink(runes[i:]); ok {
					flushText()
					items = append(items, item)
					i += n
					continue
				}
			}
			buf = append(buf, r)
			i++
		case '*', '_', '~':
			run := countRepeat(runes[i:], r)
			if r == '~' && run < 2 {
				buf = append(buf, r)
				i++
				continue
			}
			flushText()
			items = append(items, delimiterItem(runes, i, run, r))
			i += run
		default:
			buf = append(buf, r)
			i++
		}
	}
	flushText()
	return items
}

func delimiterItem(runes []rune, pos, run int, delim rune) inlineItem {
	before, after := pos-1, pos+run
	item := inlineItem{
		delim:    delim,
		count:    run,
		canOpen:  !isSpaceAt(runes, after),
		canClose: !isSpaceAt(runes, before),
	}
	if delim == '_' {
		// no intraword emphasis with underscores (snake_case stays literal)
		item.canOpen = item.canOpen && !isAlnum(runes, before)
		item.canClose = item.canClose && !isAlnum(runes, after)
	}
	return item
}

// matchDelimiters pairs each closing run with the innermost open run of the
// same character. Two delimiters are consumed when both sides have two
// (bold), otherwise one (italic); `~~` always consumes two. Openers left
// inside a matched pair can no longer match and stay literal.
func matchDelimiters(items []inlineItem) {
	var openers []int
	for c := range items {
		if items[c].delim == 0 {
			continue
		}
		delim := items[c].delim
		if items[c].canClose {
			for items[c].count > 0 {
				if delim == '~' && items[c].count < 2 {
					break
				}
				o := lastOpener(items, openers, delim)
				if o < 0 {
					break
				}
				opener := &items[openers[o]]
				closer := &items[c]
				use, flag := 1, styleItalic
				switch {
				case delim == '~':
					use, flag = 2, styleStrike
				case opener.count >= 2 && closer.count >= 2:
					use, flag = 2, styleBold
				}
				for k := openers[o] + 1; k < c; k++ {
					items[k].style |= flag
				}
				opener.count -= use
				closer.count = max(closer.count-use, 0)
				openers = openers[:o+1]
				if opener.count <= 0 {
					opener.count = 0
					openers = openers[:o]
				}
			}
		}
		if items[c].count > 0 && items[c].canOpen {
			openers = append(openers, c)
		}
	}
}

func lastOpener(items []inlineItem, openers []int, delim rune) int {
	for o := len(openers) - 1; o >= 0; o-- {
		item := items[openers[o]]
		if item.delim != delim || item.count == 0 {
			continue
		}
		if delim == '~' && item.count < 2 {
			continue
		}
		return o
	}
	return -1
}

func flattenItems(items []inlineItem) []Span {
	var spans []Span
	for _, item := range items {
		text := item.text
		if item.delim != 0 {
			text = strings.Repeat(string(item.delim), max(item.count, 0))
		}
		if text == "" {
			continue
		}
		span := Span{
			Text:          text,
			Bold:          item.style&styleBold != 0,
			Italic:        item.style&styleItalic != 0,
			Strikethrough: item.style&styleStrike != 0,
			Code:          item.style&styleCode != 0,
			Link:          item.link,
		}
		if n := len(spans); n > 0 && spans[n-1].SameFormat(span) {
			spans[n-1].Text += text
			continue
		}
		spans = append(spans, span)
	}
	return spans
}

func linkItems(lnk linkParts, depth int) []inlineItem {
	dest, safe := sanitizeLinkDestination(lnk.dest)
	label := string(lnk.label)
	if strings.TrimSpace(label) == "" {
		label = lnk.dest
	}
	var items []inlineItem
	for _, span := range resolveDepth(label, depth+1, false) {
		item := inlineItem{text: span.Text}
		if span.Bold {
			item.style |= styleBold
		}
		if span.Italic {
			item.style |= styleItalic
		}
		if span.Strikethrough {
			item.style |= styleStrike
		}
		if span.Code {
			item.style |= styleCode
		}
		if safe {
			item.link = dest
		}
		items = append(items, item)
	}
	return items
}

func parseAutolink(runes []rune) (inlineItem, int, bool) {
	end := findAutolinkEnd(runes[1:])
	if end < 0 {
		return inlineItem{}, 0, false
	}
	candidate := string(runes[1 : 1+end])
	if !isAutolink(candidate) {
		return inlineItem{}, 0, false
	}
	display := strings.TrimPrefix(candidate, "mailto:")
	dest := candidate
	if !strings.Contains(candidate, "://") && !strings.HasPrefix(candidate, "mailto:") {
		dest = "mailto:" + candidate
	}
	item := inlineItem{text: display}
	if safe, ok := sanitizeLinkDestination(dest); ok {
		item.link = safe
	}
	return item, end + 2, true
}

// codeSpanText strips one leading and trailing space when both are present,
// and folds line breaks into spaces.
func codeSpanText(runes []rune) string {
	text := strings.ReplaceAll(string(runes), "\n", " ")
	if len(text) >= 2 && text[0] == ' ' && text[len(text)-1] == ' ' && strings.TrimSpace(text) != "" {
		text = text[1 : len(text)-1]
	}
	return text
}

func findClosingBackticks(runes []rune, count int) int {
	for i := 0; i < len(runes); {
		if runes[i] != '`' {
			i++
			continue
		}
		n := countRepeat(runes[i:], '`')
		if n == count {
			return i
		}
		i += n
	}
	return -1
}

func findAutolinkEnd(runes []rune) int {
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '>':
			return i
		case ' ', '\t', '<':
			return -1
		}
	}
	return -1
}

func isAutolink(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "mailto:") {
		return true
	}
	at := strings.IndexByte(s, '@')
	return at > 0 && strings.Contains(s[at:], ".")
}

func detectBreakTag(runes []rune) int {
	if len(runes) > 6 {
		runes = runes[:6]
	}
	lower := strings.ToLower(string(runes))
	for _, tag := range []string{"<br />", "<br/>", "<br>"} {
		if strings.HasPrefix(lower, tag) {
			return len(tag)
		}
	}
	return 0
}
