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

// Device is a hardware abstraction
type Device interface {
	// LED on or off (if applicable)
	LED(on bool)
}

// Platform bundles the collaborators the application runs on.
type Platform struct {
	Surface    Surface     // display
	Touch      TouchSource // touch controller
	Storage    Storage     // flash file system
	Radio      Radio       // Wi-Fi link
	Messenger  Messenger   // message box (optional)
	Calibrator Calibrator  // touch calibration (optional)
}

// Calibratable touch sources accept a calibration record.
type Calibratable interface {
	SetCalibration(cal Calibration)
}
