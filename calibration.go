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
	"encoding/binary"
	"errors"
)

// CalibrationSize is the size of a stored calibration record.
const CalibrationSize = 14

// Calibration flags
const (
	CalSwapXY  = 1 << iota // raw X is screen Y
	CalInvertX             // screen X runs right to left
	CalInvertY             // screen Y runs bottom to top
)

// Error messages
var (
	ErrCalibration = errors.New("invalid calibration record")
)

// Calibration maps raw touch controller readings to screen coordinates.
type Calibration struct {
	XMin, XMax uint16 // raw range along screen X
	YMin, YMax uint16 // raw range along screen Y
	Flags      uint16
	Width      uint16 // screen size
	Height     uint16
}

// MarshalBinary returns the 14-byte record.
func (c Calibration) MarshalBinary() ([]byte, error) {
	buf := make([]byte, CalibrationSize)
	for i, v := range []uint16{c.XMin, c.XMax, c.YMin, c.YMax, c.Flags, c.Width, c.Height} {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return buf, nil
}

// UnmarshalBinary decodes a 14-byte record.
func (c *Calibration) UnmarshalBinary(data []byte) error {
	if len(data) != CalibrationSize {
		return ErrCalibration
	}
	v := func(i int) uint16 { return binary.LittleEndian.Uint16(data[2*i:]) }
	cal := Calibration{
		XMin: v(0), XMax: v(1),
		YMin: v(2), YMax: v(3),
		Flags: v(4),
		Width: v(5), Height: v(6),
	}
	if cal.XMin >= cal.XMax || cal.YMin >= cal.YMax || cal.Width == 0 || cal.Height == 0 {
		return ErrCalibration
	}
	*c = cal
	return nil
}

// Map a raw reading to screen coordinates (clamped to the screen).
func (c Calibration) Map(rx, ry uint16) (x, y uint16) {
	if c.Flags&CalSwapXY != 0 {
		rx, ry = ry, rx
	}
	x = scale(rx, c.XMin, c.XMax, c.Width)
	y = scale(ry, c.YMin, c.YMax, c.Height)
	if c.Flags&CalInvertX != 0 {
		x = c.Width - 1 - x
	}
	if c.Flags&CalInvertY != 0 {
		y = c.Height - 1 - y
	}
	return
}

// scale a raw value from [lo,hi] to [0,size).
func scale(v, lo, hi, size uint16) uint16 {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return size - 1
	}
	return uint16(uint32(v-lo) * uint32(size-1) / uint32(hi-lo))
}

// Identity returns a calibration for controllers that already report
// screen coordinates.
func Identity(w, h uint16) Calibration {
	return Calibration{
		XMin: 0, XMax: w - 1,
		YMin: 0, YMax: h - 1,
		Width: w, Height: h,
	}
}

// RawPoint is an uncalibrated touch controller reading.
type RawPoint struct {
	X, Y uint16
}

// CalibrationFromCorners computes a calibration from readings taken at
// three reference points inset by margin pixels from the top-left,
// top-right and bottom-left screen corners.
func CalibrationFromCorners(w, h, margin uint16, tl, tr, bl RawPoint) (cal Calibration, err error) {
	if w <= 2*margin+1 || h <= 2*margin+1 {
		return cal, ErrCalibration
	}
	cal.Width, cal.Height = w, h
	if absDiff(tr.Y, tl.Y) > absDiff(tr.X, tl.X) {
		cal.Flags |= CalSwapXY
		tl = RawPoint{tl.Y, tl.X}
		tr = RawPoint{tr.Y, tr.X}
		bl = RawPoint{bl.Y, bl.X}
	}
	var inv bool
	if cal.XMin, cal.XMax, inv, err = axisRange(tl.X, tr.X, w, margin); err != nil {
		return
	}
	if inv {
		cal.Flags |= CalInvertX
	}
	if cal.YMin, cal.YMax, inv, err = axisRange(tl.Y, bl.Y, h, margin); err != nil {
		return
	}
	if inv {
		cal.Flags |= CalInvertY
	}
	return
}

// axisRange extrapolates the raw range of one axis from readings at the
// screen positions margin and size-1-margin.
func axisRange(near, far, size, margin uint16) (lo, hi uint16, inverted bool, err error) {
	a, b := int(near), int(far)
	if a > b {
		a, b = b, a
		inverted = true
	}
	if a == b {
		return 0, 0, false, ErrCalibration
	}
	ext := (b - a) * int(margin) / (int(size) - 1 - 2*int(margin))
	return uint16(max(a-ext, 0)), uint16(min(b+ext, 0xffff)), inverted, nil
}

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}

// Calibrator runs an interactive calibration on the device.
type Calibrator interface {
	Calibrate(s Surface) (Calibration, error)
}

// LoadCalibration reads the calibration record from storage.
func LoadCalibration(fs Storage, path string) (cal Calibration, err error) {
	if fs == nil || !fs.Exists(path) {
		return cal, ErrNoFile
	}
	var data []byte
	if data, err = fs.ReadFile(path); err != nil {
		return
	}
	err = cal.UnmarshalBinary(data)
	return
}

// SaveCalibration writes the calibration record to storage.
func SaveCalibration(fs Storage, path string, cal Calibration) error {
	data, _ := cal.MarshalBinary()
	return fs.WriteFile(path, data)
}
