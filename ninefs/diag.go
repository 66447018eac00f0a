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

package ninefs

import (
	"strconv"

	"github.com/bfix/msgpad"
)

// AddDiagnostics adds read-only device files to the namespace:
// /device (identifier), /screen, /ssid, /link and /message. Values are
// read from the application snapshot, so the namespace can be served from
// another goroutine.
func AddDiagnostics(ns *Namespace, cfg msgpad.Config, app *msgpad.App, radio msgpad.Radio) error {
	files := []struct {
		path string
		impl File
	}{
		{"/device", NewTextFile(cfg.DeviceID + "\n")},
		{"/screen", StringFunc(func() string { return app.Snapshot().Screen.String() })},
		{"/ssid", StringFunc(func() string { return app.Snapshot().SSID })},
		{"/link", StringFunc(func() string {
			st := radio.Status()
			return strconv.Itoa(int(st)) + " " + st.String()
		})},
		{"/message", StringFunc(func() string {
			msg, _ := app.Inbox().Latest()
			return msg
		})},
	}
	for _, f := range files {
		if err := ns.NewFile(f.path, 0444, f.impl); err != nil {
			return err
		}
	}
	return nil
}
