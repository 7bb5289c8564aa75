package markdown

import (
	"strings"
	"unicode"
)

type linkParts struct {
	label    []rune
	dest     string
	consumed int
}

// parseLinkAt parses `[label](destination "title")` starting at runes[0] == '['.
// The title, when present, is dropped.
func parseLinkAt(runes []rune) (linkParts, bool) {
	if len(runes) < 2 || runes[0] != '[' {
		return linkParts{}, false
	}
	endText := findMatchingBracket(runes[1:])
	if endText == -1 {
		return linkParts{}, false
	}
	open := 1 + endText + 1
	if open >= len(runes) || runes[open] != '(' {
		return linkParts{}, false
	}
	closeParen := findMatchingParen(runes[open+1:])
	if closeParen == -1 {
		return linkParts{}, false
	}
	dest := parseDestination(string(runes[open+1 : open+1+closeParen]))
	if dest == "" {
		return linkParts{}, false
	}
	return linkParts{
		label:    runes[1 : 1+endText],
		dest:     dest,
		consumed: open + 1 + closeParen + 1,
	}, true
}

func findMatchingBracket(runes []rune) int {
	depth := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '`':
			n := countRepeat(runes[i:], '`')
			if end := findClosingBackticks(runes[i+n:], n); end != -1 {
				i += n + end + n - 1
			} else {
				i += n - 1
			}
		case '[':
			depth++
		case ']':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func findMatchingParen(runes []rune) int {
	depth := 0
	inAngle := false
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case '<':
			if i == 0 {
				inAngle = true
			}
		case '>':
			inAngle = false
		case '(':
			if !inAngle {
				depth++
			}
		case ')':
			if inAngle {
				continue
			}
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}

func parseDestination(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "<") {
		if end := strings.IndexByte(raw, '>'); end > 0 {
			return raw[1:end]
		}
	}
	if fields := strings.Fields(raw); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

var blockedSchemes = map[string]bool{
	"javascript": true,
	"vbscript":   true,
	"data":       true,
	"file":       true,
}

// sanitizeLinkDestination rejects destinations that should never become
// clickable: script-capable or local schemes, protocol-relative URLs and
// anything carrying control or invisible formatting characters.
func sanitizeLinkDestination(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "//") {
		return "", false
	}
	for _, r := range dest {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return "", false
		}
	}
	if scheme := linkScheme(dest); scheme != "" && blockedSchemes[strings.ToLower(scheme)] {
		return "", false
	}
	return dest, true
}

func linkScheme(dest string) string {
	colon := strings.IndexByte(dest, ':')
	if colon <= 0 {
		return ""
	}
	if strings.ContainsAny(dest[:colon], "/?#") {
		return ""
	}
	return dest[:colon]
}

// ParseImage reports whether text consists of exactly one image reference
// `![alt](src)` and returns its parts. Unsafe sources are rejected.
func ParseImage(text string) (alt, src string, ok bool) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) < 2 || runes[0] != '!' || runes[1] != '[' {
		return "", "", false
	}
	img, found := parseLinkAt(runes[1:])
	if !found || 1+img.consumed != len(runes) {
		return "", "", false
	}
	src, safe := sanitizeLinkDestination(img.dest)
	if !safe {
		return "", "", false
	}
	return string(img.label), src, true
}
