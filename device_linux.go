//go:build !rp2350

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
	"context"
	"fmt"
	"log/slog"
	"net"
)

// LinuxDevice (for testing purposes)
type LinuxDevice struct {
	logger *slog.Logger
}

// LED on or off (logged at debug level)
func (dev *LinuxDevice) LED(on bool) {
	if dev.logger != nil {
		dev.logger.Debug("LED", slog.Bool("on", on))
	}
}

// InitDevice returns the host device. The logger may be nil.
func InitDevice(logger *slog.Logger) (dev *LinuxDevice) {
	return &LinuxDevice{logger: logger}
}

// SetupListener returns a TCP listener on the given port. The network
// link of the host is assumed to be up.
func (dev *LinuxDevice) SetupListener(ctx context.Context, port uint16) (lst net.Listener, state int) {
	cfg := new(net.ListenConfig)
	lis, err := cfg.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		if dev.logger != nil {
			dev.logger.Error("listen failed", slog.String("err", err.Error()))
		}
		return nil, StatLISTEN1
	}
	return lis, StatOK
}
