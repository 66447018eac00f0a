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
	"math/rand/v2"
	"testing"
)

func TestEdge(t *testing.T) {
	var e edge
	var last bool
	for range 1000 {
		down := rand.IntN(2) == 1
		e.Press(down)
		if e.IsPressed() != down {
			t.Fatal("pressed state not current")
		}
		if e.JustPressed() != (down && !last) {
			t.Fatalf("just pressed: down=%v last=%v", down, last)
		}
		if e.JustReleased() != (!down && last) {
			t.Fatalf("just released: down=%v last=%v", down, last)
		}
		if e.JustPressed() && e.JustReleased() {
			t.Fatal("pressed and released in one frame")
		}
		last = down
	}
}

func TestVirtualKey(t *testing.T) {
	s := new(fakeSurface)
	var k VirtualKey
	r := Rect{X: 10, Y: 10, W: 30, H: 20}
	k.Init(r, chrKeyColors, "a", 1)
	if !k.Contains(10, 10) || !k.Contains(39, 29) || k.Contains(40, 10) || k.Contains(10, 30) {
		t.Fatal("containment not half-open")
	}

	// held key survives a rebuild
	k.Press(true)
	k.Init(r, chrKeyColors, "A", 1)
	k.Press(true)
	if k.JustPressed() || !k.IsPressed() {
		t.Fatal("rebuild produced a new press")
	}
	if k.Label() != "A" {
		t.Fatalf("label %q", k.Label())
	}
	k.Reset()
	if k.IsPressed() {
		t.Fatal("reset kept pressed state")
	}

	// pressed visual swaps fill and text colors
	k.Draw(s, true)
	if s.ops[0].kind != "fill" || s.ops[0].fg != chrKeyColors.Text {
		t.Fatalf("pressed fill: %+v", s.ops[0])
	}
	if op := s.ops[2]; op.kind != "center" || op.fg != chrKeyColors.Fill || op.text != "A" {
		t.Fatalf("pressed text: %+v", op)
	}
	s.reset()
	k.Draw(s, false)
	if s.ops[0].fg != chrKeyColors.Fill || s.ops[2].fg != chrKeyColors.Text {
		t.Fatal("normal visual")
	}
}
