package preview

import "github.com/gdamore/tcell/v2"

// Theme holds the styles used per line kind.
type Theme struct {
	Text    tcell.Style
	Heading tcell.Style
	Code    tcell.Style
	Quote   tcell.Style
	Table   tcell.Style
	Divider tcell.Style
	Image   tcell.Style
	Status  tcell.Style
}

// DefaultTheme returns the default color scheme.
func DefaultTheme() Theme {
	base := tcell.StyleDefault
	return Theme{
		Text:    base,
		Heading: base.Foreground(tcell.Color33).Bold(true),
		Code:    base.Foreground(tcell.Color252).Background(tcell.Color234),
		Quote:   base.Foreground(tcell.ColorLightSlateGray).Italic(true),
		Table:   base.Foreground(tcell.Color44),
		Divider: base.Foreground(tcell.ColorLightSlateGray),
		Image:   base.Foreground(tcell.Color51),
		Status:  base.Reverse(true),
	}
}

func (t Theme) style(kind LineKind) tcell.Style {
	switch kind {
	case LineHeading:
		return t.Heading
	case LineCode:
		return t.Code
	case LineQuote:
		return t.Quote
	case LineTable:
		return t.Table
	case LineDivider:
		return t.Divider
	case LineImage:
		return t.Image
	default:
		return t.Text
	}
}
