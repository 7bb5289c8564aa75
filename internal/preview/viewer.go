package preview

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/mdblocks"
	"github.com/kk-code-lab/mdblocks/internal/textutil"
	"github.com/rivo/uniseg"
)

// Viewer is a scrollable outline of blocks drawn on a tcell screen.
type Viewer struct {
	screen tcell.Screen
	title  string
	blocks []mdblocks.Block
	theme  Theme

	lines  []Line
	width  int
	height int
	offset int
}

// NewViewer prepares a viewer on an initialized screen. The caller owns the
// screen and finalizes it.
func NewViewer(screen tcell.Screen, title string, blocks []mdblocks.Block) *Viewer {
	v := &Viewer{
		screen: screen,
		title:  title,
		blocks: blocks,
		theme:  DefaultTheme(),
	}
	v.layout()
	return v
}

// SetTheme replaces the styles.
func (v *Viewer) SetTheme(theme Theme) {
	v.theme = theme
}

// Offset is the index of the first visible line.
func (v *Viewer) Offset() int {
	return v.offset
}

// Lines returns the current outline.
func (v *Viewer) Lines() []Line {
	return v.lines
}

// Run draws and handles events until the user quits.
func (v *Viewer) Run() error {
	for {
		v.Draw()
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if !v.HandleEvent(ev) {
			return nil
		}
	}
}

// HandleEvent applies one event and reports whether the viewer keeps running.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.layout()
		v.screen.Sync()
	case *tcell.EventKey:
		return v.handleKey(ev)
	}
	return true
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	page := v.contentRows()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.offset--
	case tcell.KeyDown, tcell.KeyEnter:
		v.offset++
	case tcell.KeyPgUp:
		v.offset -= page
	case tcell.KeyPgDn:
		v.offset += page
	case tcell.KeyHome:
		v.offset = 0
	case tcell.KeyEnd:
		v.offset = len(v.lines)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'k':
			v.offset--
		case 'j':
			v.offset++
		case ' ':
			v.offset += page
		case 'b':
			v.offset -= page
		case 'g':
			v.offset = 0
		case 'G':
			v.offset = len(v.lines)
		}
	}
	v.clampScroll()
	return true
}

func (v *Viewer) layout() {
	v.width, v.height = v.screen.Size()
	v.lines = Outline(v.blocks, v.width)
	v.clampScroll()
}

// contentRows leaves the last row for the status line.
func (v *Viewer) contentRows() int {
	return max(v.height-1, 1)
}

func (v *Viewer) clampScroll() {
	maxOffset := max(len(v.lines)-v.contentRows(), 0)
	v.offset = min(max(v.offset, 0), maxOffset)
}

// Draw renders the visible lines and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()
	rows := v.contentRows()
	end := min(v.offset+rows, len(v.lines))
	for y, line := range v.lines[v.offset:end] {
		v.drawText(0, y, line.Text, v.theme.style(line.Kind))
	}
	if v.height > 1 {
		v.drawStatus(v.height-1, end)
	}
	v.screen.Show()
}

func (v *Viewer) drawStatus(y, end int) {
	start := 0
	if len(v.lines) > 0 {
		start = v.offset + 1
	}
	status := fmt.Sprintf(" %s  %d-%d/%d  j/k/PgUp/PgDn scroll  g/G top/bottom  q/Esc quit",
		textutil.SanitizeTerminalText(v.title), start, end, len(v.lines))
	status = textutil.TruncateToWidth(status, v.width, ellipsis)
	x := v.drawText(0, y, status, v.theme.Status)
	for ; x < v.width; x++ {
		v.screen.SetContent(x, y, ' ', nil, v.theme.Status)
	}
}

func (v *Viewer) drawText(x, y int, text string, style tcell.Style) int {
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if x >= v.width {
			break
		}
		runes := g.Runes()
		v.screen.SetContent(x, y, runes[0], runes[1:], style)
		x += textutil.DisplayWidth(g.Str())
	}
	return x
}
