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

import "image/color"

// edge keeps the sampled pressed state of the last two frames.
type edge struct {
	last bool
	curr bool
}

// Press records the sample for the current frame. Must be called exactly
// once per frame.
func (e *edge) Press(down bool) {
	e.last = e.curr
	e.curr = down
}

// IsPressed returns the state of the current frame.
func (e *edge) IsPressed() bool { return e.curr }

// JustPressed is true on the frame the press started.
func (e *edge) JustPressed() bool { return e.curr && !e.last }

// JustReleased is true on the frame the press ended.
func (e *edge) JustReleased() bool { return !e.curr && e.last }

//----------------------------------------------------------------------

// KeyColors for a virtual key
type KeyColors struct {
	Outline color.RGBA
	Fill    color.RGBA
	Text    color.RGBA
}

// VirtualKey is a touchable rectangle bound to a character or command.
type VirtualKey struct {
	edge

	rect     Rect
	colors   KeyColors
	label    string
	textSize uint8
}

// Init configures geometry and appearance of the key. The pressed state
// is kept so a rebuild while a key is held does not produce a new press.
func (k *VirtualKey) Init(r Rect, colors KeyColors, label string, textSize uint8) {
	k.rect = r
	k.colors = colors
	k.label = label
	k.textSize = textSize
}

// Reset the pressed state.
func (k *VirtualKey) Reset() {
	k.edge = edge{}
}

// Rect returns the key area.
func (k *VirtualKey) Rect() Rect { return k.rect }

// Label returns the glyph currently shown on the key.
func (k *VirtualKey) Label() string { return k.label }

// Contains tests if a point is on the key.
func (k *VirtualKey) Contains(px, py int) bool {
	return k.rect.Contains(px, py)
}

// Draw the key on the surface. The pressed visual swaps fill and text color.
func (k *VirtualKey) Draw(s Surface, pressed bool) {
	fill, text := k.colors.Fill, k.colors.Text
	if pressed {
		fill, text = text, fill
	}
	s.FillRect(k.rect, fill)
	s.DrawRect(k.rect, k.colors.Outline)
	cx, cy := k.rect.Center()
	s.DrawCentered(k.label, cx, cy, k.textSize, text, fill)
}
