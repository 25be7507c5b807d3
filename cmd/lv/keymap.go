package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/shirk33y/lv/internal/nav"
)

// tcellToNavKey translates a tcell key event into the input-layer-agnostic
// shape internal/nav's key-binding table consumes. The bool result is
// false for every non-rune key other than Escape and the arrow keys;
// every rune key is passed through, bound or not.
func tcellToNavKey(ev *tcell.EventKey) (nav.KeyEvent, bool) {
	switch ev.Key() {
	case tcell.KeyEscape:
		return nav.KeyEvent{Special: nav.SpecialEscape}, true
	case tcell.KeyLeft:
		return nav.KeyEvent{Special: nav.SpecialLeft}, true
	case tcell.KeyRight:
		return nav.KeyEvent{Special: nav.SpecialRight}, true
	case tcell.KeyUp:
		return nav.KeyEvent{Special: nav.SpecialUp}, true
	case tcell.KeyDown:
		return nav.KeyEvent{Special: nav.SpecialDown}, true
	case tcell.KeyRune:
		r := ev.Rune()
		if r == ' ' {
			return nav.KeyEvent{Special: nav.SpecialSpace}, true
		}
		if ev.Modifiers()&tcell.ModCtrl != 0 && r >= '0' && r <= '9' {
			return nav.KeyEvent{Rune: r, Ctrl: true}, true
		}
		return nav.KeyEvent{Rune: r}, true
	default:
		return nav.KeyEvent{}, false
	}
}
