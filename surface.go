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

// Named colors used by the screens.
var (
	Black     = color.RGBA{0x00, 0x00, 0x00, 0xff}
	White     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Blue      = color.RGBA{0x00, 0x00, 0xff, 0xff}
	LightGrey = color.RGBA{0xd3, 0xd3, 0xd3, 0xff}
	Green     = color.RGBA{0x00, 0xff, 0x00, 0xff}
	Red       = color.RGBA{0xff, 0x00, 0x00, 0xff}
	Magenta   = color.RGBA{0xff, 0x00, 0xff, 0xff}
	Yellow    = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

// Rect is a screen rectangle (top-left corner and size).
type Rect struct {
	X, Y, W, H int16
}

// Contains returns true if the point is inside the rectangle.
// Bounds are half-open: [X, X+W) x [Y, Y+H).
func (r Rect) Contains(px, py int) bool {
	return px >= int(r.X) && px < int(r.X)+int(r.W) &&
		py >= int(r.Y) && py < int(r.Y)+int(r.H)
}

// Center of the rectangle
func (r Rect) Center() (int16, int16) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Surface is the render target of the screens. Implementations are
// provided by the platform (TFT display on the device, an image canvas
// on the host).
type Surface interface {
	// Size of the surface in pixels
	Size() (w, h int16)

	// FillScreen clears the whole surface
	FillScreen(c color.RGBA)

	// FillRect fills a rectangle
	FillRect(r Rect, c color.RGBA)

	// DrawRect draws the outline of a rectangle
	DrawRect(r Rect, c color.RGBA)

	// DrawCentered draws text centered around the reference point (cx,cy).
	DrawCentered(text string, cx, cy int16, size uint8, fg, bg color.RGBA)

	// Print text at a cursor position (top-left of the text).
	Print(text string, x, y int16, size uint8, fg, bg color.RGBA)

	// Flush pending drawing operations to the display (if buffered).
	Flush() error
}

//----------------------------------------------------------------------

// Sample is a single reading of the touch controller.
type Sample struct {
	Touched bool
	X, Y    uint16
}

// TouchSource yields one touch sample per frame.
type TouchSource interface {
	Touch() Sample
}

// TouchFunc adapts a function to the TouchSource interface.
type TouchFunc func() Sample

// Touch returns the next sample.
func (f TouchFunc) Touch() Sample {
	return f()
}
