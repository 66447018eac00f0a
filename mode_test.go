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

import "testing"

func TestModeApply(t *testing.T) {
	tests := []struct {
		from    InputMode
		cmd     Command
		to      InputMode
		changed bool
	}{
		{InputMode{}, CmdShift, InputMode{Shift: true}, true},
		{InputMode{Shift: true}, CmdShift, InputMode{Shift: true}, false},
		{InputMode{}, CmdCaps, InputMode{Caps: true}, true},
		{InputMode{Caps: true}, CmdCaps, InputMode{}, true},
		{InputMode{}, CmdToggle, InputMode{Set: SetSymbol}, true},
		{InputMode{Set: SetSymbol, Caps: true}, CmdToggle, InputMode{Caps: true}, true},
		{InputMode{Caps: true}, CmdOK, InputMode{Caps: true}, false},
		{InputMode{}, CmdDel, InputMode{}, false},
		{InputMode{}, CmdNone, InputMode{}, false},
	}
	for i, tc := range tests {
		m := tc.from
		if changed := m.Apply(tc.cmd); changed != tc.changed || m != tc.to {
			t.Errorf("%d: got %+v (%v), want %+v (%v)", i, m, changed, tc.to, tc.changed)
		}
	}
}

func TestModeConsume(t *testing.T) {
	m := InputMode{}
	if s, changed := m.Consume("q"); s != "q" || changed {
		t.Fatalf("plain: %q %v", s, changed)
	}
	m.Apply(CmdShift)
	if s, changed := m.Consume("q"); s != "Q" || !changed || m.Shift {
		t.Fatalf("shifted: %q %v %+v", s, changed, m)
	}
	m = InputMode{Caps: true, Shift: true}
	if s, _ := m.Consume("q"); s != "q" {
		t.Fatalf("caps and shift: %q", s)
	}
	if s, _ := m.Consume("q"); s != "Q" {
		t.Fatalf("caps: %q", s)
	}

	// shift is consumed by symbols too
	m = InputMode{Set: SetSymbol, Shift: true}
	if s, changed := m.Consume("@"); s != "@" || !changed || m.Shift {
		t.Fatalf("symbol: %q %v", s, changed)
	}
}
