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
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bfix/msgpad"
)

// Error messages
var (
	ErrTopic = errors.New("invalid topic")
)

// Broker is a local message box: topics are files in a namespace.
// Reading "/ConnectedClients" lists the announced devices; writing to
// "/MessageBox/<id>" delivers a message to the subscribers of that topic.
type Broker struct {
	mu      sync.Mutex
	ns      *Namespace
	clients []string
	subs    map[string][]msgpad.Handler
	logger  *slog.Logger
}

// NewBroker creates the topic files in the namespace.
func NewBroker(ns *Namespace, logger *slog.Logger) (b *Broker, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	b = &Broker{
		ns:     ns,
		subs:   make(map[string][]msgpad.Handler),
		logger: logger,
	}
	if err = ns.NewFile("/"+msgpad.TopicAnnounce, 0444, NewFuncFile(b.listClients)); err != nil {
		return nil, err
	}
	if err = ns.NewDir("/"+msgpad.TopicInbox, 0777); err != nil {
		return nil, err
	}
	return b, nil
}

// Namespace of the broker
func (b *Broker) Namespace() *Namespace {
	return b.ns
}

// Clients returns the announced device identifiers.
func (b *Broker) Clients() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clients...)
}

// listClients returns the content of the announce file.
func (b *Broker) listClients() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var buf strings.Builder
	for _, c := range b.clients {
		buf.WriteString(c)
		buf.WriteByte('\n')
	}
	return []byte(buf.String()), nil
}

// Announce publishes a payload. On the announce topic the payload is a
// device identifier; its message box file is created.
func (b *Broker) Announce(topic string, payload []byte) error {
	if topic != msgpad.TopicAnnounce {
		return b.Publish(topic, payload)
	}
	id := strings.TrimSpace(string(payload))
	if len(id) == 0 || strings.Contains(id, "/") {
		return ErrTopic
	}
	b.mu.Lock()
	known := false
	for _, c := range b.clients {
		if c == id {
			known = true
			break
		}
	}
	if !known {
		b.clients = append(b.clients, id)
	}
	b.mu.Unlock()
	if known {
		return nil
	}
	b.logger.Info("client announced", slog.String("id", id))
	topicInbox := msgpad.InboxTopic(id)
	err := b.ns.NewFile("/"+topicInbox, 0622, NewHandlerFile(func(data []byte) error {
		return b.Publish(topicInbox, data)
	}))
	if errors.Is(err, ErrExists) {
		err = nil
	}
	return err
}

// Subscribe a handler to a topic.
func (b *Broker) Subscribe(topic string, h msgpad.Handler) error {
	if len(topic) == 0 || h == nil {
		return ErrTopic
	}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], h)
	b.mu.Unlock()
	return nil
}

// Publish a message to all subscribers of a topic.
func (b *Broker) Publish(topic string, payload []byte) error {
	b.mu.Lock()
	hdlrs := append([]msgpad.Handler(nil), b.subs[topic]...)
	b.mu.Unlock()
	if len(hdlrs) == 0 {
		b.logger.Debug("no subscribers", slog.String("topic", topic))
	}
	for _, h := range hdlrs {
		h(topic, payload)
	}
	return nil
}

// Post writes a message to a topic file in the namespace, the same way
// a remote client would deliver it.
func (b *Broker) Post(topic string, payload []byte) error {
	e, err := b.ns.Get("/" + topic)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return ErrTopic
	}
	return e.File().Write(payload)
}
