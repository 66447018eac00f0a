//----------------------------------------------------------------------
// This file is part of msgpad.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// msgpad is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// msgpad is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package msgpad

import (
	"strings"
	"unicode"
)

// KeySet selects the label table of the keyboard.
type KeySet int

// Keyboard label tables
const (
	SetAlpha KeySet = iota
	SetSymbol
)

// InputMode holds the modifier state of the keyboard.
type InputMode struct {
	Caps  bool   // sticky, toggled by the Caps key
	Shift bool   // one-shot, consumed by the next character key
	Set   KeySet // active label table
}

// Apply a command key to the mode. Returns true if the keyboard glyphs
// changed and the keyboard needs a redraw.
func (m *InputMode) Apply(cmd Command) bool {
	switch cmd {
	case CmdShift:
		if m.Shift {
			return false
		}
		m.Shift = true
	case CmdCaps:
		m.Caps = !m.Caps
	case CmdToggle:
		if m.Set == SetAlpha {
			m.Set = SetSymbol
		} else {
			m.Set = SetAlpha
		}
	default:
		return false
	}
	return true
}

// Glyph returns the text shown on (and produced by) a character key with
// the given base label in the current mode.
func (m InputMode) Glyph(base string) string {
	if m.Set != SetAlpha {
		return base
	}
	if m.Caps {
		base = swapCase(base)
	}
	if m.Shift {
		base = swapCase(base)
	}
	return base
}

// Consume produces the character for a key press and clears a pending
// shift. Returns the character and true if the shift state changed.
func (m *InputMode) Consume(base string) (string, bool) {
	s := m.Glyph(base)
	if !m.Shift {
		return s, false
	}
	m.Shift = false
	return s, true
}

// swapCase inverts the case of all letters.
func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}
