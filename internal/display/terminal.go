package display

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
)

const (
	termLeftMargin = 3
	termMinWidth   = 20
	termMinHeight  = 8

	runeCurrent = '*'
	runeGhost   = '.'
	runeGrid    = '·'
)

var (
	styleCurrent = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleGhost   = tcell.StyleDefault.Foreground(tcell.ColorDarkRed)
	styleGrid    = tcell.StyleDefault.Foreground(tcell.Color237)
	styleText    = tcell.StyleDefault
)

// TerminalRenderer plots frames on a full-screen terminal.
type TerminalRenderer struct {
	screen tcell.Screen
}

// NewTerminalRenderer takes over the controlling terminal.
func NewTerminalRenderer() (*TerminalRenderer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return NewTerminalRendererOn(screen)
}

// NewTerminalRendererOn initialises screen and draws on it.
func NewTerminalRendererOn(screen tcell.Screen) (*TerminalRenderer, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	screen.Clear()
	return &TerminalRenderer{screen: screen}, nil
}

// Watch polls key events until the screen is closed. Esc, q and Ctrl-C call
// cancel: in raw mode the terminal no longer turns Ctrl-C into SIGINT.
func (r *TerminalRenderer) Watch(cancel context.CancelFunc) {
	go func() {
		for {
			switch ev := r.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if isQuitKey(ev) {
					cancel()
					return
				}
			case *tcell.EventResize:
				r.screen.Sync()
			}
		}
	}()
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

// Render draws f over the whole screen.
func (r *TerminalRenderer) Render(f Frame) error {
	s := r.screen
	s.Clear()
	w, h := s.Size()
	if w < termMinWidth || h < termMinHeight {
		drawText(s, 0, 0, "terminal too small", styleText)
		s.Show()
		return nil
	}

	title := fmt.Sprintf("ArduinoSA sweep %d", f.Seq)
	if f.Summary.Count > 0 {
		title += "  " + f.Summary.String()
	}
	drawText(s, 0, 0, title+"  (q to quit)", styleText)

	_, xMax := f.FreqRange()
	_, bottom := plotRows(h)
	for level := YMin; level <= YMax; level += 5 {
		_, y := termCell(arduinosa.SweepStartMHz, float64(level), xMax, w, h)
		drawText(s, 0, y, fmt.Sprintf("%2d", level), styleText)
		for x := termLeftMargin; x < w; x += 2 {
			s.SetContent(x, y, runeGrid, nil, styleGrid)
		}
	}
	for _, c := range arduinosa.WiFiChannels {
		if c.Number != 1 && c.Number != 6 && c.Number != 11 && c.Number != 14 {
			continue
		}
		x, _ := termCell(float64(c.CenterMHz), YMin, xMax, w, h)
		label := strconv.Itoa(c.CenterMHz)
		drawText(s, x-len(label)/2, bottom+1, label, styleText)
	}

	if f.Ghost != nil {
		drawTrace(s, *f.Ghost, runeGhost, styleGhost, xMax, w, h)
	}
	drawTrace(s, f.Current, runeCurrent, styleCurrent, xMax, w, h)

	s.Show()
	return nil
}

// Close restores the terminal and ends Watch.
func (r *TerminalRenderer) Close() error {
	r.screen.Fini()
	return nil
}

func drawTrace(s tcell.Screen, t Trace, ch rune, style tcell.Style, xMax float64, w, h int) {
	for i := 0; i < t.Len(); i++ {
		freq, level := t.XY(i)
		x, y := termCell(freq, level, xMax, w, h)
		s.SetContent(x, y, ch, nil, style)
	}
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, style)
	}
}

// plotRows returns the first and last screen rows of the plot area; the
// row below bottom carries the frequency labels.
func plotRows(h int) (top, bottom int) {
	return 1, h - 2
}

// termCell maps a frequency and level onto the screen, with the frequency
// axis running from SweepStartMHz to xMax. Values outside the axes are
// clamped to the plot edge.
func termCell(freq, level, xMax float64, w, h int) (x, y int) {
	top, bottom := plotRows(h)
	plotW := w - termLeftMargin
	plotH := bottom - top + 1

	fx := (freq - arduinosa.SweepStartMHz) / (xMax - arduinosa.SweepStartMHz)
	fy := (level - YMin) / (YMax - YMin)
	fx = math.Max(0, math.Min(1, fx))
	fy = math.Max(0, math.Min(1, fy))

	x = termLeftMargin + int(math.Round(fx*float64(plotW-1)))
	y = bottom - int(math.Round(fy*float64(plotH-1)))
	return x, y
}
