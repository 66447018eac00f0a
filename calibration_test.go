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
	"errors"
	"math/rand/v2"
	"testing"
)

func TestCalibrationRecord(t *testing.T) {
	cal := Calibration{XMin: 300, XMax: 3800, YMin: 250, YMax: 3700, Flags: CalSwapXY | CalInvertY, Width: 480, Height: 320}
	data, err := cal.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != CalibrationSize || data[0] != 0x2c || data[1] != 0x01 {
		t.Fatalf("record: % x", data)
	}
	var got Calibration
	if err = got.UnmarshalBinary(data); err != nil || got != cal {
		t.Fatalf("decoded %+v, %v", got, err)
	}

	bad := []Calibration{
		{XMin: 10, XMax: 10, YMin: 0, YMax: 1, Width: 1, Height: 1},
		{XMin: 0, XMax: 1, YMin: 5, YMax: 4, Width: 1, Height: 1},
		{XMin: 0, XMax: 1, YMin: 0, YMax: 1, Width: 0, Height: 1},
	}
	for _, c := range bad {
		data, _ = c.MarshalBinary()
		if err = got.UnmarshalBinary(data); !errors.Is(err, ErrCalibration) {
			t.Errorf("%+v accepted", c)
		}
	}
	if err = got.UnmarshalBinary(data[:10]); !errors.Is(err, ErrCalibration) {
		t.Error("short record accepted")
	}
}

func TestCalibrationStorage(t *testing.T) {
	fs := NewMemStorage()
	if err := fs.Begin(); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCalibration(fs, "/TouchCalData"); !errors.Is(err, ErrNoFile) {
		t.Fatalf("missing record: %v", err)
	}
	cal := Identity(480, 320)
	if err := SaveCalibration(fs, "/TouchCalData", cal); err != nil {
		t.Fatal(err)
	}
	if got, err := LoadCalibration(fs, "/TouchCalData"); err != nil || got != cal {
		t.Fatalf("load: %+v %v", got, err)
	}
}

func TestCalibrationMap(t *testing.T) {
	cal := Identity(480, 320)
	for range 100 {
		x, y := uint16(rand.IntN(480)), uint16(rand.IntN(320))
		if mx, my := cal.Map(x, y); mx != x || my != y {
			t.Fatalf("identity (%d,%d) -> (%d,%d)", x, y, mx, my)
		}
	}
	cal = Calibration{XMin: 1000, XMax: 2000, YMin: 1000, YMax: 2000, Width: 100, Height: 100}
	tests := []struct {
		flags        uint16
		rx, ry       uint16
		wantX, wantY uint16
	}{
		{0, 0, 0, 0, 0},
		{0, 5000, 5000, 99, 99},
		{0, 1000, 2000, 0, 99},
		{CalInvertX, 1000, 1000, 99, 0},
		{CalInvertY, 1000, 1000, 0, 99},
		{CalSwapXY, 1000, 2000, 99, 0},
	}
	for _, tc := range tests {
		cal.Flags = tc.flags
		if x, y := cal.Map(tc.rx, tc.ry); x != tc.wantX || y != tc.wantY {
			t.Errorf("flags %d: (%d,%d) -> (%d,%d)", tc.flags, tc.rx, tc.ry, x, y)
		}
	}
}

// controller simulates raw readings of a touch panel
type controller struct {
	swap, invX, invY bool
}

func (c controller) read(x, y uint16) RawPoint {
	rx := 300 + 10*x
	ry := 200 + 12*y
	if c.invX {
		rx = 300 + 10*479 - 10*x
	}
	if c.invY {
		ry = 200 + 12*319 - 12*y
	}
	if c.swap {
		rx, ry = ry, rx
	}
	return RawPoint{rx, ry}
}

func TestCalibrationFromCorners(t *testing.T) {
	const w, h, m = 480, 320, 20
	for _, ctrl := range []controller{
		{},
		{swap: true},
		{invX: true},
		{invY: true},
		{swap: true, invX: true, invY: true},
	} {
		cal, err := CalibrationFromCorners(w, h, m,
			ctrl.read(m, m), ctrl.read(w-1-m, m), ctrl.read(m, h-1-m))
		if err != nil {
			t.Fatalf("%+v: %v", ctrl, err)
		}
		if (cal.Flags&CalSwapXY != 0) != ctrl.swap ||
			(cal.Flags&CalInvertX != 0) != ctrl.invX ||
			(cal.Flags&CalInvertY != 0) != ctrl.invY {
			t.Fatalf("%+v: flags %03b", ctrl, cal.Flags)
		}
		for range 200 {
			x, y := uint16(rand.IntN(w)), uint16(rand.IntN(h))
			raw := ctrl.read(x, y)
			mx, my := cal.Map(raw.X, raw.Y)
			if absDiff(mx, x) > 1 || absDiff(my, y) > 1 {
				t.Fatalf("%+v: (%d,%d) mapped to (%d,%d)", ctrl, x, y, mx, my)
			}
		}
	}

	// degenerate readings
	p := RawPoint{1000, 1000}
	if _, err := CalibrationFromCorners(w, h, m, p, p, p); !errors.Is(err, ErrCalibration) {
		t.Fatalf("identical points: %v", err)
	}
	if _, err := CalibrationFromCorners(30, 30, m, p, p, p); !errors.Is(err, ErrCalibration) {
		t.Fatalf("small screen: %v", err)
	}
}
