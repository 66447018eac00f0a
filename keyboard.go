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

// Command bound to a key of the first keyboard row.
type Command int

// Keyboard commands
const (
	CmdNone   Command = iota // character key
	CmdOK                    // commit field / connect
	CmdClear                 // clear selected field
	CmdDel                   // delete last character
	CmdShift                 // one-shot shift
	CmdCaps                  // caps lock
	CmdToggle                // switch alphanumeric/symbol table
)

// Keyboard dimensions
const (
	NumKeys     = 42
	NumCommands = 6
)

// Keyboard geometry (key centers, sizes and pitch)
const (
	kbdStartX   = 40
	kbdStartY   = 180
	kbdWrapX    = 60
	kbdRowPitch = 30
	kbdKeyH     = 25
	kbdCmdW     = 40
	kbdCmdPitch = 45
	kbdChrW     = 35
	kbdChrPitch = 40
)

// alphanumeric label table
var alphaLabels = [NumKeys]string{
	"OK", "Clear", "Del", "Shift", "Caps", "Sym",
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
	"q", "w", "e", "r", "t", "y", "u", "i", "o", "p",
	"a", "s", "d", "f", "g", "h", "j", "k", "l",
	"z", "x", "c", "v", "b", "n", "m",
}

// symbol label table (the last two slots are unused)
var symbolLabels = [NumKeys]string{
	"OK", "Clear", "Del", "Shift", "Caps", "txt",
	"`", "¬", "!", "\"", "£", "$", "%", "^", "&", "*",
	"(", ")", "_", "-", "+", "=", "{", "[", "}", "]",
	";", ":", "'", "@", "#", "~", ",", "<", ".",
	">", "/", "?", "|", "\\", "", "",
}

// Label returns the base label of a key in the given table. Out-of-range
// indices have an empty label.
func Label(set KeySet, idx int) string {
	if idx < 0 || idx >= NumKeys {
		return ""
	}
	if set == SetSymbol {
		return symbolLabels[idx]
	}
	return alphaLabels[idx]
}

// KeyCommand returns the command bound to a key index.
func KeyCommand(idx int) Command {
	if idx < 0 || idx >= NumCommands {
		return CmdNone
	}
	return Command(idx + 1)
}

// rowBreak returns true if a new row starts after the key index.
func rowBreak(idx int) bool {
	switch idx {
	case 5, 15, 25, 34:
		return true
	}
	return false
}

// Layout returns the rectangles of all keys.
func Layout() (rects [NumKeys]Rect) {
	x, y := kbdStartX, kbdStartY
	for i := range NumKeys {
		w, pitch := kbdChrW, kbdChrPitch
		if i < NumCommands {
			w, pitch = kbdCmdW, kbdCmdPitch
		}
		rects[i] = Rect{
			X: int16(x - w/2),
			Y: int16(y - kbdKeyH/2),
			W: int16(w),
			H: kbdKeyH,
		}
		x += pitch
		if rowBreak(i) {
			x = kbdWrapX
			y += kbdRowPitch
		}
	}
	return
}

// Key colors
var (
	cmdKeyColors = KeyColors{Outline: White, Fill: Blue, Text: White}
	chrKeyColors = KeyColors{Outline: White, Fill: LightGrey, Text: Black}
)

// KeyEvent is a key that was just pressed.
type KeyEvent struct {
	Index int     // key index
	Cmd   Command // command (or CmdNone for character keys)
	Base  string  // base label from the active table
}

// Keyboard is the on-screen keyboard.
type Keyboard struct {
	keys [NumKeys]VirtualKey
}

// Key returns the virtual key at index.
func (kb *Keyboard) Key(idx int) *VirtualKey {
	return &kb.keys[idx]
}

// Build lays out all keys with glyphs for the input mode and draws them.
func (kb *Keyboard) Build(s Surface, mode InputMode) {
	rects := Layout()
	for i := range kb.keys {
		label, colors := Label(mode.Set, i), chrKeyColors
		if i < NumCommands {
			colors = cmdKeyColors
		} else {
			label = mode.Glyph(label)
		}
		kb.keys[i].Init(rects[i], colors, label, 1)
		kb.keys[i].Draw(s, false)
	}
}

// Reset the pressed state of all keys.
func (kb *Keyboard) Reset() {
	for i := range kb.keys {
		kb.keys[i].Reset()
	}
}

// Scan runs edge detection for all keys on the touch sample. Released keys
// are redrawn normally, pressed keys in the pressed style. Returns the keys
// pressed in this frame.
func (kb *Keyboard) Scan(smp Sample, s Surface, set KeySet) (events []KeyEvent) {
	for i := range kb.keys {
		k := &kb.keys[i]
		k.Press(smp.Touched && k.Contains(int(smp.X), int(smp.Y)))
	}
	for i := range kb.keys {
		k := &kb.keys[i]
		if k.JustReleased() {
			k.Draw(s, false)
		}
		if k.JustPressed() {
			k.Draw(s, true)
			events = append(events, KeyEvent{
				Index: i,
				Cmd:   KeyCommand(i),
				Base:  Label(set, i),
			})
		}
	}
	return
}
