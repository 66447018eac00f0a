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

package sim

import (
	"log/slog"
	"sync"

	"github.com/bfix/msgpad"
)

// Radio simulates a Wi-Fi link. A join completes after a number of status
// polls; the outcome depends on the table of known networks.
type Radio struct {
	mu       sync.Mutex
	networks map[string]string // SSID -> password
	latency  int               // polls until a join completes
	pending  int
	result   msgpad.LinkStatus
	status   msgpad.LinkStatus
	joins    int
	logger   *slog.Logger
}

// NewRadio creates a radio that can join the given networks.
func NewRadio(networks map[string]string, latency int, logger *slog.Logger) *Radio {
	if logger == nil {
		logger = slog.Default()
	}
	nets := make(map[string]string, len(networks))
	for ssid, pw := range networks {
		nets[ssid] = pw
	}
	return &Radio{
		networks: nets,
		latency:  max(latency, 0),
		status:   msgpad.LinkIdle,
		logger:   logger,
	}
}

// Join requests a connection to a network.
func (r *Radio) Join(ssid, passwd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins++
	pw, ok := r.networks[ssid]
	switch {
	case !ok:
		r.result = msgpad.LinkNoSSID
	case pw != passwd:
		r.result = msgpad.LinkWrongPassword
	default:
		r.result = msgpad.LinkConnected
	}
	r.pending = r.latency
	r.status = msgpad.LinkIdle
	r.logger.Debug("join", slog.String("ssid", ssid), slog.String("result", r.result.String()))
	return nil
}

// Status of the link. Each poll advances a pending join.
func (r *Radio) Status() msgpad.LinkStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending > 0 {
		r.pending--
		return r.status
	}
	if r.result != msgpad.LinkIdle {
		r.status = r.result
		r.result = msgpad.LinkIdle
	}
	return r.status
}

// Up forces the link into the connected state (e.g. a link that is
// already up at power-on).
func (r *Radio) Up() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = 0
	r.result = msgpad.LinkIdle
	r.status = msgpad.LinkConnected
}

// Drop the connection.
func (r *Radio) Drop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = 0
	r.result = msgpad.LinkIdle
	r.status = msgpad.LinkConnectionLost
	r.logger.Debug("link dropped")
}

// Joins returns the number of join requests.
func (r *Radio) Joins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joins
}
