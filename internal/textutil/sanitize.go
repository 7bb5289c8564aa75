package textutil

import "strings"

var formattingRuneLabels = map[rune]string{
	0x061C: "⟪ALM⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x00AD: "⟪SHY⟫",
	0x180E: "⟪MVS⟫",
	0x2060: "⟪WJ⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0x206A: "⟪ISS⟫",
	0x206B: "⟪ASS⟫",
	0x206C: "⟪IAFS⟫",
	0x206D: "⟪AAFS⟫",
	0x206E: "⟪NADS⟫",
	0x206F: "⟪NODS⟫",
	0xFEFF: "⟪BOM⟫",
}

// SanitizeTerminalText makes converted block text safe to draw: control
// characters cannot start escape sequences and invisible formatting runes
// are shown as labels.
func SanitizeTerminalText(text string) string {
	if strings.IndexFunc(text, needsSanitizing) == -1 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if label, ok := formattingRuneLabels[r]; ok {
			b.WriteString(label)
			continue
		}
		switch {
		case r == '\n', r == '\r', r == '\t':
			b.WriteByte(' ')
		case isControl(r):
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsSanitizing(r rune) bool {
	if r == '\t' {
		return false
	}
	_, formatting := formattingRuneLabels[r]
	return formatting || isControl(r)
}

// isControl covers C0, DEL and the C1 range, which some terminals treat as
// 8-bit escape introducers.
func isControl(r rune) bool {
	return (r >= 0 && r < 0x20) || (r >= 0x7f && r <= 0x9f)
}
