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
	"math/rand/v2"
	"strings"
	"testing"
)

// random printable text without newlines
func randText(n int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 !$%&*@#~äöü£"
	runes := []rune(chars)
	var sb strings.Builder
	for range n {
		sb.WriteRune(runes[rand.IntN(len(runes))])
	}
	return sb.String()
}

func TestCredentialsEdit(t *testing.T) {
	var c Credentials
	c.Append(FieldSSID, "ho")
	c.Append(FieldSSID, "me")
	c.Append(FieldPassword, "£ä")
	if c.SSID != "home" || c.Get(FieldPassword) != "£ä" {
		t.Fatalf("append: %+v", c)
	}
	c.Backspace(FieldPassword)
	if c.Password != "£" {
		t.Fatalf("backspace split a rune: %q", c.Password)
	}
	c.Backspace(FieldPassword)
	c.Backspace(FieldPassword)
	if c.Password != "" {
		t.Fatalf("backspace on empty: %q", c.Password)
	}
	c.Clear(FieldSSID)
	if c.SSID != "" {
		t.Fatal("clear")
	}
	if c.Value(FieldID(7)) != nil || c.Get(FieldID(7)) != "" {
		t.Fatal("unknown field")
	}
	c.Append(FieldID(7), "x")
	if c != (Credentials{}) {
		t.Fatal("unknown field modified credentials")
	}
}

func TestCredentialsMarshal(t *testing.T) {
	for range 50 {
		c := Credentials{SSID: randText(rand.IntN(32)), Password: randText(rand.IntN(63))}
		d, err := UnmarshalCredentials(c.Marshal())
		if err != nil {
			t.Fatal(err)
		}
		if d != c {
			t.Fatalf("got %+v, want %+v", d, c)
		}
	}
	if string(Credentials{SSID: "home", Password: "pw"}.Marshal()) != "home\npw" {
		t.Fatal("stored form")
	}
	for _, data := range []string{"", "home"} {
		if _, err := UnmarshalCredentials([]byte(data)); !errors.Is(err, ErrNotFound) {
			t.Errorf("%q: %v", data, err)
		}
	}
	if c, err := UnmarshalCredentials([]byte("\npassword")); err != nil || c.SSID != "" || c.Password != "password" {
		t.Fatalf("empty SSID: %+v %v", c, err)
	}
	// open network
	if c, err := UnmarshalCredentials([]byte("cafe\n")); err != nil || c.SSID != "cafe" || c.Password != "" {
		t.Fatalf("open network: %+v %v", c, err)
	}
}

func TestCredentialStore(t *testing.T) {
	fs := NewMemStorage()
	if err := fs.Begin(); err != nil {
		t.Fatal(err)
	}
	cs := NewCredentialStore(fs, "/WifiData", nil)
	if _, err := cs.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty store: %v", err)
	}
	c := Credentials{SSID: "home", Password: "secret"}
	if err := cs.Save(c); err != nil {
		t.Fatal(err)
	}
	if d, err := cs.Load(); err != nil || d != c {
		t.Fatalf("load: %+v %v", d, err)
	}
	c2 := Credentials{SSID: "office", Password: ""}
	if err := cs.Save(c2); err != nil {
		t.Fatal(err)
	}
	if d, err := cs.Load(); err != nil || d != c2 {
		t.Fatalf("replaced: %+v %v", d, err)
	}

	// empty SSID survives a round trip
	c3 := Credentials{SSID: "", Password: "pw"}
	if err := cs.Save(c3); err != nil {
		t.Fatal(err)
	}
	if d, err := cs.Load(); err != nil || d != c3 {
		t.Fatalf("empty SSID: %+v %v", d, err)
	}

	// malformed file
	if err := fs.WriteFile("/WifiData", []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if _, err := cs.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed: %v", err)
	}

	// unusable storage
	cs = NewCredentialStore(failStorage{}, "/WifiData", nil)
	if _, err := cs.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed storage load: %v", err)
	}
	if err := cs.Save(c); err == nil {
		t.Fatal("save on failed storage")
	}
	var nilStore *CredentialStore
	if err := nilStore.Save(c); !errors.Is(err, ErrStorage) {
		t.Fatalf("nil store: %v", err)
	}
}
