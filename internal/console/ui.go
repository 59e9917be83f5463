package console

import "github.com/gdamore/tcell/v2"

const commandPaneHeight = 3

var (
	borderStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	titleStyle  = tcell.StyleDefault.Bold(true)
	hintStyle   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	textStyle   = tcell.StyleDefault
)

// draw renders the command pane above the log pane, in the same layout
// every iteration. Rendering happens only here, on the foreground
// context; nothing else touches the terminal.
func (a *App) draw() {
	a.screen.Clear()
	w, h := a.screen.Size()
	if w < 4 || h < commandPaneHeight+2 {
		a.screen.Show()
		return
	}

	a.drawCommandPane(w)
	a.drawLogPane(w, h)

	if a.mode == ModeInsert {
		cx := 1 + len(a.input)
		if cx > w-2 {
			cx = w - 2
		}
		a.screen.ShowCursor(cx, 1)
	} else {
		a.screen.HideCursor()
	}
	a.screen.Show()
}

func (a *App) drawCommandPane(w int) {
	drawBox(a.screen, 0, 0, w, commandPaneHeight, borderStyle)

	title := " Press I to enter commands "
	if a.mode == ModeInsert {
		title = " Enter commands "
	}
	drawTextCentered(a.screen, 0, 0, w, titleStyle, title)
	drawTextCentered(a.screen, 0, commandPaneHeight-1, w, hintStyle, " Q quit  I insert  ESC normal mode ")

	// Keep the tail of the input visible when it outgrows the pane.
	line := a.input
	if max := w - 2; len(line) > max {
		line = line[len(line)-max:]
	}
	drawText(a.screen, 1, 1, w-2, textStyle, string(line))
}

func (a *App) drawLogPane(w, h int) {
	top := commandPaneHeight
	drawBox(a.screen, 0, top, w, h-top, borderStyle)
	drawText(a.screen, 2, top, w-4, titleStyle, " Server Logs ")

	rows := h - top - 2
	if rows <= 0 {
		return
	}
	total := a.lines.Length()
	first := total - rows
	if first < 0 {
		first = 0
	}
	y := top + 1
	for i := first; i < total; i++ {
		line, _ := a.lines.Get(i).(string)
		drawText(a.screen, 1, y, w-2, textStyle, line)
		y++
	}
}

func drawBox(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for cx := x + 1; cx < x+w-1; cx++ {
		s.SetContent(cx, y, tcell.RuneHLine, nil, style)
		s.SetContent(cx, y+h-1, tcell.RuneHLine, nil, style)
	}
	for cy := y + 1; cy < y+h-1; cy++ {
		s.SetContent(x, cy, tcell.RuneVLine, nil, style)
		s.SetContent(x+w-1, cy, tcell.RuneVLine, nil, style)
	}
	s.SetContent(x, y, tcell.RuneULCorner, nil, style)
	s.SetContent(x+w-1, y, tcell.RuneURCorner, nil, style)
	s.SetContent(x, y+h-1, tcell.RuneLLCorner, nil, style)
	s.SetContent(x+w-1, y+h-1, tcell.RuneLRCorner, nil, style)
}

func drawText(s tcell.Screen, x, y, maxW int, style tcell.Style, text string) {
	cx := x
	for _, r := range text {
		if cx >= x+maxW {
			return
		}
		s.SetContent(cx, y, r, nil, style)
		cx++
	}
}

func drawTextCentered(s tcell.Screen, x, y, w int, style tcell.Style, text string) {
	start := x + (w-len(text))/2
	if start < x+1 {
		start = x + 1
	}
	drawText(s, start, y, w-2, style, text)
}
