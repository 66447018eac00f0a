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
	"fmt"
	"sync/atomic"
	"time"
)

// status codes (number of LED blinks)
const (
	StatUNK     = iota // unknown status (init)
	StatOK             // processing active
	StatDEV            // device failure
	StatSTORE          // file system unavailable
	StatCAL            // touch calibration failed
	StatWIFI           // can't connect to AP
	StatWPA2           // WPA2 failed
	StatDHCP1          // DHCP request failed
	StatDHCP2          // no DHCP reply
	StatIP             // invalid IP address
	StatNS             // message box namespace failed
	StatSRV            // can't serve namespace
	StatLISTEN1        // failed to create listener
	StatLISTEN2        // failed to initialize listener
	StatPORT           // invalid port specified
	StatEXCP           // exception (panic) occured
)

// StatusText returns a short description of a status code.
func StatusText(code int) string {
	switch code {
	case StatUNK:
		return "unknown"
	case StatOK:
		return "ok"
	case StatDEV:
		return "device failure"
	case StatSTORE:
		return "storage unavailable"
	case StatCAL:
		return "calibration failed"
	case StatWIFI:
		return "no connection to AP"
	case StatWPA2:
		return "WPA2 failed"
	case StatDHCP1:
		return "DHCP request failed"
	case StatDHCP2:
		return "no DHCP reply"
	case StatIP:
		return "invalid IP address"
	case StatNS:
		return "namespace failed"
	case StatSRV:
		return "can't serve namespace"
	case StatLISTEN1, StatLISTEN2:
		return "listener failed"
	case StatPORT:
		return "invalid port"
	case StatEXCP:
		return "exception"
	}
	return fmt.Sprintf("status %d", code)
}

// Status handler.
// Show current status by blinking the LED of the device.
type Status struct {
	dev    Device       // reference to device
	curr   atomic.Int32 // current state
	repeat atomic.Int32 // current repeat counter
}

// NewStatus creates a new status display
func NewStatus(dev Device) (state *Status) {
	state = new(Status)
	state.dev = dev
	state.curr.Store(StatOK)
	go func() {
		// blink LED <state>; <repeat> times
		for {
			time.Sleep(5 * time.Second)
			state.blink()
		}
	}()
	return
}

// blink the current state once.
func (state *Status) blink() {
	num := state.curr.Load()
	for num > 5 {
		state.dev.LED(true)
		time.Sleep(1000 * time.Millisecond)
		state.dev.LED(false)
		time.Sleep(300 * time.Millisecond)
		num -= 5
	}
	for range num {
		state.dev.LED(true)
		time.Sleep(150 * time.Millisecond)
		state.dev.LED(false)
		time.Sleep(150 * time.Millisecond)
	}
	if state.repeat.Add(-1) == 0 {
		state.curr.Store(StatOK)
	}
}

// Set status and repeat <num> times.
func (state *Status) Set(flag, num int) {
	if state != nil {
		state.curr.Store(int32(flag))
		state.repeat.Store(int32(num))
	}
}

// Get current state and repeat counter
func (state *Status) Get() (int, int) {
	if state == nil {
		return StatUNK, 0
	}
	return int(state.curr.Load()), int(state.repeat.Load())
}

// Trap critical failures (panic)
func (state *Status) Trap(t time.Duration) {
	s, _ := state.Get()
	if r := recover(); r != nil {
		fmt.Printf("EXCP: %v\n", r)
		if s == StatOK {
			state.Set(StatEXCP, 0)
		}
	} else if s == StatOK {
		state.Set(StatUNK, 0)
	}
	time.Sleep(t)
}
