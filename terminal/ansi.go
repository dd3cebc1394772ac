package terminal

// Raw sequences for EmergencyReset, written without terminfo
var (
	csiRIS  = []byte("\x1bc") // Reset to Initial State
	csiSGR0 = []byte("\x1b[0m")

	csiCursorShow    = []byte("\x1b[?25h")
	csiAltScreenExit = []byte("\x1b[?1049l")
	csiAutoWrapOn    = []byte("\x1b[?7h")

	csiMouseClickOff  = []byte("\x1b[?1000l")
	csiMouseDragOff   = []byte("\x1b[?1002l")
	csiMouseMotionOff = []byte("\x1b[?1003l")
	csiMouseSGROff    = []byte("\x1b[?1006l")
)
