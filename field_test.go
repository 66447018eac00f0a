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

func newFields() (*FieldSet, *SelectableField, *SelectableField) {
	ssid, passwd := new(SelectableField), new(SelectableField)
	ssid.Init(FieldSSID, ssidRect, fieldColors, 1)
	passwd.Init(FieldPassword, passwdRect, fieldColors, 1)
	return NewFieldSet(ssid, passwd), ssid, passwd
}

func TestFieldSelect(t *testing.T) {
	s := new(fakeSurface)
	creds := &Credentials{SSID: "home", Password: "secret"}
	fs, ssid, passwd := newFields()
	if fs.Selected() != nil {
		t.Fatal("selection after init")
	}
	fs.Select(FieldSSID, s, creds)
	if fs.Selected() != ssid || passwd.IsSelected() {
		t.Fatal("select ssid")
	}
	fs.Select(FieldPassword, s, creds)
	if fs.Selected() != passwd || ssid.IsSelected() {
		t.Fatal("select password")
	}
	fs.Toggle(passwd, s, creds)
	if fs.Selected() != nil {
		t.Fatal("toggle did not deselect")
	}
	fs.Toggle(ssid, s, creds)
	if fs.Selected() != ssid {
		t.Fatal("toggle did not select")
	}
	if !s.printed("home") || !s.printed("secret") {
		t.Fatal("field values not drawn")
	}
	var green bool
	for _, op := range s.ops {
		if op.kind == "outline" && op.rect == ssidRect && op.fg == fieldColors.Select {
			green = true
		}
	}
	if !green {
		t.Fatal("selected outline not drawn")
	}
}

func TestFieldScan(t *testing.T) {
	s := new(fakeSurface)
	creds := new(Credentials)
	fs, ssid, passwd := newFields()
	tap := func(f *SelectableField) *SelectableField {
		cx, cy := f.Rect().Center()
		hit := fs.Scan(Sample{Touched: true, X: uint16(cx), Y: uint16(cy)}, s, creds)
		fs.Scan(Sample{}, s, creds)
		return hit
	}
	if tap(ssid) != ssid || fs.Selected() != ssid {
		t.Fatal("tap ssid")
	}
	if tap(passwd) != passwd || fs.Selected() != passwd {
		t.Fatal("tap password")
	}
	if tap(passwd) != passwd || fs.Selected() != nil {
		t.Fatal("tap selected field")
	}

	// at most one field is selected at any time
	for range 200 {
		f := ssid
		if rand.IntN(2) == 1 {
			f = passwd
		}
		tap(f)
		if ssid.IsSelected() && passwd.IsSelected() {
			t.Fatal("two fields selected")
		}
	}

	// holding a field toggles once
	cx, cy := ssid.Rect().Center()
	before := ssid.IsSelected()
	for range 5 {
		fs.Scan(Sample{Touched: true, X: uint16(cx), Y: uint16(cy)}, s, creds)
	}
	if ssid.IsSelected() == before {
		t.Fatal("held tap not applied")
	}
	fs.Scan(Sample{}, s, creds)
	if ssid.IsSelected() == before {
		t.Fatal("release toggled again")
	}
}
