package workspace

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var (
	styleHeader   = tcell.StyleDefault.Bold(true).Reverse(true)
	styleDir      = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	styleFile     = tcell.StyleDefault
	styleAdded    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleModified = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkBlue)
)

// sizeColumnWidth is reserved at the right edge for the size column
const sizeColumnWidth = 10

// Draw paints the header, visible entries and status line
func (a *App) Draw(screen tcell.Screen) error {
	screen.Clear()

	w, h := screen.Size()
	a.height = h
	a.clampSelection()

	fillRow(screen, 0, w, styleHeader)
	drawText(screen, 0, 0, w, styleHeader, " "+a.cfg.Root)

	rows := h - headerRows - footerRows
	for i := 0; i < rows && a.offset+i < len(a.entries); i++ {
		idx := a.offset + i
		a.drawEntry(screen, headerRows+i, w, a.entries[idx], idx == a.selected)
	}

	if h > headerRows {
		fillRow(screen, h-1, w, styleStatus)
		drawText(screen, 0, h-1, w, styleStatus, a.statusLine())
	}
	return nil
}

func (a *App) drawEntry(screen tcell.Screen, y, w int, e Entry, selected bool) {
	style := styleFile
	if e.IsDir() {
		style = styleDir
	}

	marker := "  "
	switch a.marks[e.Name] {
	case MarkAdded:
		marker = "+ "
		style = styleAdded
	case MarkModified:
		marker = "~ "
		style = styleModified
	}

	if selected {
		style = style.Reverse(true)
		fillRow(screen, y, w, style)
	}

	name := e.Name
	if e.IsDir() {
		name += "/"
	}

	nameWidth := w - sizeColumnWidth
	if nameWidth < 1 {
		nameWidth = w
	}
	x := drawText(screen, 0, y, nameWidth, style, marker+name)

	if !e.IsDir() && nameWidth < w {
		size := formatSize(e.Size)
		sx := w - runewidth.StringWidth(size) - 1
		if sx > x {
			drawText(screen, sx, y, w-sx, style, size)
		}
	}
}

func (a *App) statusLine() string {
	d := a.lastDiff
	return fmt.Sprintf(" %d entries  +%d ~%d -%d  refreshes %d  [q]uit [r]escan",
		len(a.entries), len(d.Added), len(d.Modified), len(d.Removed), a.refreshes)
}

// drawText writes text at x,y clipped to maxWidth display cells, returns the next free column
func drawText(screen tcell.Screen, x, y, maxWidth int, style tcell.Style, text string) int {
	if maxWidth <= 0 {
		return x
	}
	text = runewidth.Truncate(text, maxWidth, "…")

	col := x
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		screen.SetContent(col, y, r, nil, style)
		col += rw
	}
	return col
}

func fillRow(screen tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
