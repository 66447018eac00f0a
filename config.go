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
	"io"
	"log/slog"
	"time"
)

// Config of the device
type Config struct {
	DeviceID          string        `yaml:"device_id" env:"DEVICE_ID"`
	Hostname          string        `yaml:"hostname" env:"HOSTNAME"`
	CalibrationFile   string        `yaml:"calibration_file" env:"CALIBRATION_FILE"`
	WifiFile          string        `yaml:"wifi_file" env:"WIFI_FILE"`
	RepeatCalibration bool          `yaml:"repeat_calibration" env:"REPEAT_CAL"`
	MaxRetries        int           `yaml:"max_retries" env:"MAX_RETRIES"`
	RetryDelay        time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	FrameDelay        time.Duration `yaml:"frame_delay" env:"FRAME_DELAY"`
	Port              uint16        `yaml:"port" env:"PORT"`
}

// DefaultConfig returns the settings of a factory-fresh device.
func DefaultConfig() Config {
	return Config{
		DeviceID:        "c2fbca29-ddf3-4e86-bfac-f366bbeb3eb1",
		Hostname:        "msgpad",
		CalibrationFile: "/TouchCalData",
		WifiFile:        "/WifiData",
		MaxRetries:      15,
		RetryDelay:      500 * time.Millisecond,
		FrameDelay:      25 * time.Millisecond,
		Port:            564,
	}
}

// orDiscard returns a logger that drops all records if none is given.
func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	return logger
}
