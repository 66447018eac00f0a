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
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// LinkStatus of the Wi-Fi radio
type LinkStatus int

// Link status codes
const (
	LinkIdle LinkStatus = iota
	LinkNoSSID
	LinkScanCompleted
	LinkConnected
	LinkConnectFailed
	LinkConnectionLost
	LinkWrongPassword
	LinkDisconnected
)

// String returns a human-readable link status.
func (ls LinkStatus) String() string {
	switch ls {
	case LinkIdle:
		return "idle"
	case LinkNoSSID:
		return "no SSID available"
	case LinkScanCompleted:
		return "scan completed"
	case LinkConnected:
		return "connected"
	case LinkConnectFailed:
		return "connect failed"
	case LinkConnectionLost:
		return "connection lost"
	case LinkWrongPassword:
		return "wrong password"
	case LinkDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("status %d", int(ls))
}

// Radio is the network status collaborator.
type Radio interface {
	// Join requests a connection to a network. The request completes
	// asynchronously; progress is observed with Status.
	Join(ssid, passwd string) error

	// Status of the link
	Status() LinkStatus
}

//----------------------------------------------------------------------

// Origin of credentials used in a connection attempt
type Origin int

// Credential origins
const (
	OriginStore Origin = iota // loaded from storage
	OriginEntry               // entered on the keyboard
)

// SessionState of the session controller
type SessionState int

// Session states
const (
	SessionIdle SessionState = iota
	SessionConnecting
	SessionConnected
	SessionFailed
)

// Error messages
var (
	ErrBusy = errors.New("connection attempt in progress")
)

// Session connects to a network with bounded retries. It is a state
// machine advanced by Tick; no call blocks.
type Session struct {
	radio      Radio
	store      *CredentialStore
	logger     *slog.Logger
	maxRetries int
	delay      time.Duration

	// Progress is called with the attempt count each time the link
	// status is polled.
	Progress func(attempt, max int)

	state    SessionState
	creds    Credentials
	origin   Origin
	attempts int
	last     LinkStatus
	next     time.Time
}

// NewSession creates a session controller.
func NewSession(radio Radio, store *CredentialStore, maxRetries int, delay time.Duration, logger *slog.Logger) *Session {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Session{
		radio:      radio,
		store:      store,
		logger:     orDiscard(logger),
		maxRetries: maxRetries,
		delay:      delay,
	}
}

// State of the session
func (s *Session) State() SessionState { return s.state }

// Attempts returns the number of status polls in the current attempt.
func (s *Session) Attempts() int { return s.attempts }

// LastStatus returns the last polled link status.
func (s *Session) LastStatus() LinkStatus { return s.last }

// Credentials used in the current (or last) attempt
func (s *Session) Credentials() Credentials { return s.creds }

// Origin of the credentials used in the current (or last) attempt
func (s *Session) Origin() Origin { return s.origin }

// Begin a connection attempt. The first status poll happens one retry
// interval after now.
func (s *Session) Begin(now time.Time, c Credentials, origin Origin) error {
	if s.state == SessionConnecting {
		return ErrBusy
	}
	s.creds = c
	s.origin = origin
	s.attempts = 0
	s.last = LinkIdle
	if len(c.Password) == 0 {
		s.logger.Info("joining open network", slog.String("ssid", c.SSID))
	} else {
		s.logger.Info("joining WPA secure network", slog.String("ssid", c.SSID), slog.Int("passlen", len(c.Password)))
	}
	if err := s.radio.Join(c.SSID, c.Password); err != nil {
		s.logger.Error("wifi join failed", slog.String("err", err.Error()))
		s.last = LinkConnectFailed
		s.state = SessionFailed
		return nil
	}
	s.state = SessionConnecting
	s.next = now.Add(s.delay)
	return nil
}

// Tick advances the state machine. The link status is polled if the
// retry interval has passed.
func (s *Session) Tick(now time.Time) SessionState {
	if s.state != SessionConnecting || now.Before(s.next) {
		return s.state
	}
	s.attempts++
	s.last = s.radio.Status()
	if s.Progress != nil {
		s.Progress(s.attempts, s.maxRetries)
	}
	switch {
	case s.last == LinkConnected:
		s.state = SessionConnected
		s.logger.Info("wifi join success!", slog.String("ssid", s.creds.SSID), slog.Int("attempts", s.attempts))
		if s.origin == OriginEntry {
			if err := s.store.Save(s.creds); err != nil {
				s.logger.Error("can't save credentials", slog.String("err", err.Error()))
			}
		}
	case s.attempts >= s.maxRetries:
		s.state = SessionFailed
		s.logger.Warn("wifi join timed out", slog.String("ssid", s.creds.SSID), slog.String("status", s.last.String()))
	default:
		s.next = now.Add(s.delay)
	}
	return s.state
}

// Connect runs a complete connection attempt, waiting one retry interval
// between polls. The attempt is aborted if the context is done.
func (s *Session) Connect(ctx context.Context, c Credentials, origin Origin) (SessionState, error) {
	now := time.Now()
	if err := s.Begin(now, c, origin); err != nil {
		return s.state, err
	}
	for s.state == SessionConnecting {
		select {
		case <-ctx.Done():
			s.state = SessionFailed
			return s.state, ctx.Err()
		case <-time.After(time.Until(s.next)):
		}
		s.Tick(s.next)
	}
	return s.state, nil
}

// Reset the session to idle (does not touch the radio).
func (s *Session) Reset() {
	s.state = SessionIdle
}
