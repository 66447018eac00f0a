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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Error messages
var (
	ErrNotFound = errors.New("no stored credentials")
	ErrStorage  = errors.New("storage unavailable")
)

// FieldID identifies an editable credential value.
type FieldID int

// Editable credential values
const (
	FieldSSID FieldID = iota
	FieldPassword
)

// String returns the field name
func (id FieldID) String() string {
	switch id {
	case FieldSSID:
		return "SSID"
	case FieldPassword:
		return "Password"
	}
	return fmt.Sprintf("field(%d)", int(id))
}

// Credentials of a Wi-Fi network
type Credentials struct {
	SSID     string
	Password string
}

// Value returns a reference to the value of the given field (or nil if the
// field is unknown).
func (c *Credentials) Value(id FieldID) *string {
	switch id {
	case FieldSSID:
		return &c.SSID
	case FieldPassword:
		return &c.Password
	}
	return nil
}

// Get value of field
func (c *Credentials) Get(id FieldID) string {
	if v := c.Value(id); v != nil {
		return *v
	}
	return ""
}

// Append text to a field
func (c *Credentials) Append(id FieldID, s string) {
	if v := c.Value(id); v != nil {
		*v += s
	}
}

// Backspace removes the last character of a field.
func (c *Credentials) Backspace(id FieldID) {
	if v := c.Value(id); v != nil && len(*v) > 0 {
		_, n := utf8.DecodeLastRuneInString(*v)
		*v = (*v)[:len(*v)-n]
	}
}

// Clear a field
func (c *Credentials) Clear(id FieldID) {
	if v := c.Value(id); v != nil {
		*v = ""
	}
}

// Marshal credentials to their stored form. Newlines in the values are
// not escaped: an SSID containing a newline does not survive a round trip.
func (c Credentials) Marshal() []byte {
	return []byte(c.SSID + "\n" + c.Password)
}

// UnmarshalCredentials parses the stored form. The SSID may be empty.
func UnmarshalCredentials(data []byte) (c Credentials, err error) {
	ssid, passwd, ok := strings.Cut(string(data), "\n")
	if !ok {
		err = ErrNotFound
		return
	}
	c.SSID = ssid
	c.Password = passwd
	return
}

//----------------------------------------------------------------------

// CredentialStore persists Wi-Fi credentials to a file.
type CredentialStore struct {
	fs     Storage
	path   string
	logger *slog.Logger
}

// NewCredentialStore creates a store for the given file.
func NewCredentialStore(fs Storage, path string, logger *slog.Logger) *CredentialStore {
	return &CredentialStore{
		fs:     fs,
		path:   path,
		logger: orDiscard(logger),
	}
}

// Load stored credentials. Any failure to read usable credentials is
// reported as ErrNotFound.
func (cs *CredentialStore) Load() (c Credentials, err error) {
	if cs == nil || cs.fs == nil || !cs.fs.Exists(cs.path) {
		return c, ErrNotFound
	}
	var data []byte
	if data, err = cs.fs.ReadFile(cs.path); err != nil {
		cs.logger.Warn("can't read credentials", slog.String("file", cs.path), slog.String("err", err.Error()))
		return c, ErrNotFound
	}
	if c, err = UnmarshalCredentials(data); err != nil {
		cs.logger.Warn("malformed credentials", slog.String("file", cs.path), slog.Int("size", len(data)))
	}
	return
}

// Save credentials (replacing an existing copy).
func (cs *CredentialStore) Save(c Credentials) error {
	if cs == nil || cs.fs == nil {
		return ErrStorage
	}
	if cs.fs.Exists(cs.path) {
		if err := cs.fs.Remove(cs.path); err != nil {
			return fmt.Errorf("remove %s: %w", cs.path, err)
		}
	}
	if err := cs.fs.WriteFile(cs.path, c.Marshal()); err != nil {
		return fmt.Errorf("write %s: %w", cs.path, err)
	}
	cs.logger.Info("credentials saved", slog.String("ssid", c.SSID), slog.Int("passlen", len(c.Password)))
	return nil
}
