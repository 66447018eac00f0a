//go:build rp2350

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

package main

import (
	"context"
	"log/slog"
	"machine"
	"strconv"
	"time"

	"github.com/bfix/msgpad"
	"github.com/bfix/msgpad/ninefs"
)

// Device settings (set with -ldflags "-X main.<name>=<value>")
var (
	DeviceID  string
	Host      string
	IP        string
	Port      string
	RepeatCal string
)

// config of the device from the link-time settings
func config() (cfg msgpad.Config, state int) {
	cfg = msgpad.DefaultConfig()
	state = msgpad.StatOK
	if len(DeviceID) > 0 {
		cfg.DeviceID = DeviceID
	}
	if len(Host) > 0 {
		cfg.Hostname = Host
	}
	if len(Port) > 0 {
		port, err := strconv.ParseUint(Port, 10, 16)
		if err != nil {
			state = msgpad.StatPORT
		} else {
			cfg.Port = uint16(port)
		}
	}
	cfg.RepeatCalibration, _ = strconv.ParseBool(RepeatCal)
	return
}

// run the message pad
func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	time.Sleep(2 * time.Second)

	// access device
	dev := msgpad.InitDevice(logger)
	state := msgpad.NewStatus(dev)
	defer state.Trap(30 * time.Second)

	cfg, stat := config()
	if stat != msgpad.StatOK {
		state.Set(stat, 3)
	}
	dev.Hostname = cfg.Hostname
	dev.RequestedIP = IP

	plat, stat := dev.Platform()
	if stat != msgpad.StatOK {
		state.Set(stat, 0)
		return
	}

	// message box namespace
	ns := ninefs.NewNamespace("sys", "sys", 0777)
	broker, err := ninefs.NewBroker(ns, logger)
	if err != nil {
		state.Set(msgpad.StatNS, 0)
		return
	}
	plat.Messenger = broker
	app := msgpad.NewApp(cfg, plat, state, logger)
	if err = ninefs.AddDiagnostics(ns, cfg, app, dev); err != nil {
		state.Set(msgpad.StatNS, 3)
	}

	// serve the namespace via 9p once the network is up
	ctx := context.Background()
	go func() {
		lst, stat := dev.SetupListener(ctx, cfg.Port)
		if stat != msgpad.StatOK {
			state.Set(stat, 3)
			return
		}
		for {
			c, err := lst.Accept()
			if err != nil {
				state.Set(msgpad.StatSRV, 3)
				continue
			}
			go ns.ServeConn(c)
		}
	}()

	if err = app.Run(ctx); err != nil {
		logger.Error("frame loop stopped", slog.String("err", err.Error()))
	}

	// srv tcp!<host>!9fs pad
	// mount /srv/pad /n/pad
	// cat /n/pad/ConnectedClients
	// cat /n/pad/message
	// unmount /n/pad
	// rm /srv/pad
}
