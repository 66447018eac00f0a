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
	"log/slog"
	"strings"
	"sync"
)

// Message box topics
const (
	TopicAnnounce = "ConnectedClients"
	TopicInbox    = "MessageBox"
)

// InboxTopic returns the topic a device receives messages on.
func InboxTopic(deviceID string) string {
	return TopicInbox + "/" + deviceID
}

// Handler receives messages published on a topic.
type Handler func(topic string, payload []byte)

// Messenger is the publish/subscribe collaborator.
type Messenger interface {
	// Announce publishes a payload on a topic
	Announce(topic string, payload []byte) error

	// Subscribe to a topic
	Subscribe(topic string, h Handler) error
}

//----------------------------------------------------------------------

// Inbox keeps the latest message for a device. Deliveries can come from
// a network task, so access is synchronized.
type Inbox struct {
	mu     sync.Mutex
	topic  string
	msg    string
	count  int
	dirty  bool
	logger *slog.Logger
}

// NewInbox creates an inbox for the device.
func NewInbox(deviceID string, logger *slog.Logger) *Inbox {
	return &Inbox{
		topic:  InboxTopic(deviceID),
		logger: orDiscard(logger),
	}
}

// Topic returns the subscribed topic.
func (ib *Inbox) Topic() string {
	return ib.topic
}

// Deliver a message. Messages on other topics are ignored; invalid UTF-8
// is replaced.
func (ib *Inbox) Deliver(topic string, payload []byte) {
	if topic != ib.topic {
		ib.logger.Debug("ignored message", slog.String("topic", topic))
		return
	}
	msg := strings.ToValidUTF8(string(payload), "�")
	ib.mu.Lock()
	ib.msg = msg
	ib.count++
	ib.dirty = true
	ib.mu.Unlock()
	ib.logger.Info("message received", slog.String("topic", topic), slog.Int("size", len(payload)))
}

// Latest returns the last message and the number of messages received.
func (ib *Inbox) Latest() (string, int) {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	return ib.msg, ib.count
}

// TakeDirty returns true (once) if a message arrived since the last call.
func (ib *Inbox) TakeDirty() bool {
	ib.mu.Lock()
	defer ib.mu.Unlock()
	d := ib.dirty
	ib.dirty = false
	return d
}

// MarkDirty forces a redraw of the message area.
func (ib *Inbox) MarkDirty() {
	ib.mu.Lock()
	ib.dirty = true
	ib.mu.Unlock()
}
