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

package sim

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync"

	"github.com/bfix/msgpad"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// font sizes (points) by text size
var fontSizes = []float64{11, 16}

// Canvas is an in-memory render surface. Frames can be exported as PNG
// images.
type Canvas struct {
	mu    sync.Mutex
	dc    *gg.Context
	faces []font.Face
	w, h  int16
	texts []string // text drawn since the last FillScreen
}

// NewCanvas creates a canvas of the given size.
func NewCanvas(w, h int16) (*Canvas, error) {
	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	c := &Canvas{
		dc: gg.NewContext(int(w), int(h)),
		w:  w,
		h:  h,
	}
	for _, size := range fontSizes {
		c.faces = append(c.faces, truetype.NewFace(ttfFont, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}))
	}
	c.dc.SetColor(color.Black)
	c.dc.Clear()
	return c, nil
}

// Size of the canvas
func (c *Canvas) Size() (int16, int16) {
	return c.w, c.h
}

// FillScreen clears the canvas.
func (c *Canvas) FillScreen(col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.SetColor(col)
	c.dc.Clear()
	c.texts = c.texts[:0]
}

// FillRect fills a rectangle.
func (c *Canvas) FillRect(r msgpad.Rect, col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fill(float64(r.X), float64(r.Y), float64(r.W), float64(r.H), col)
}

// fill (locked)
func (c *Canvas) fill(x, y, w, h float64, col color.RGBA) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

// DrawRect draws the outline of a rectangle.
func (c *Canvas) DrawRect(r msgpad.Rect, col color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.SetColor(col)
	c.dc.SetLineWidth(1.0)
	c.dc.DrawRectangle(float64(r.X)+0.5, float64(r.Y)+0.5, float64(r.W)-1, float64(r.H)-1)
	c.dc.Stroke()
}

// DrawCentered draws text centered around (cx,cy).
func (c *Canvas) DrawCentered(text string, cx, cy int16, size uint8, fg, bg color.RGBA) {
	c.text(text, float64(cx), float64(cy), 0.5, size, fg, bg)
}

// Print draws text with its top-left corner at (x,y).
func (c *Canvas) Print(text string, x, y int16, size uint8, fg, bg color.RGBA) {
	c.text(text, float64(x), float64(y), 0, size, fg, bg)
}

// text draws a string anchored at (x,y); a is the anchor on both axes.
func (c *Canvas) text(s string, x, y, a float64, size uint8, fg, bg color.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, s)
	if len(s) == 0 {
		return
	}
	c.dc.SetFontFace(c.face(size))
	w, h := c.dc.MeasureString(s)
	c.fill(x-a*w, y-a*h, w, h, bg)
	c.dc.SetColor(fg)
	c.dc.DrawStringAnchored(s, x, y, a, 1-a)
}

// face for a text size
func (c *Canvas) face(size uint8) font.Face {
	i := max(int(size), 1) - 1
	return c.faces[min(i, len(c.faces)-1)]
}

// Flush is a no-op (drawing is immediate).
func (c *Canvas) Flush() error {
	return nil
}

// Texts returns the strings drawn since the screen was last cleared.
func (c *Canvas) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

// At returns the color of a pixel.
func (c *Canvas) At(x, y int) color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Image().At(x, y)
}

// Image returns a copy of the current canvas.
func (c *Canvas) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	src := c.dc.Image()
	img := image.NewRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	return img
}

// SavePNG writes the canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.SavePNG(path)
}

// EncodePNG writes the canvas as PNG to a writer.
func (c *Canvas) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.EncodePNG(w)
}
