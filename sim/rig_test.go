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
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bfix/msgpad"
)

func testRig(t *testing.T) *Rig {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RetryDelay = 100 * time.Millisecond
	cfg.Networks = map[string]string{"home": "secret"}
	cfg.Snapshots = t.TempDir()
	r, err := NewRig(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRigSetup(t *testing.T) {
	r := testRig(t)
	s, err := ParseScript([]byte(`name: connect
steps:
  - text: home
  - key: OK
  - text: secret
  - key: OK
  - idle: 40
  - message: hello pad
  - idle: 2
`))
	if err != nil {
		t.Fatal(err)
	}
	if err = r.Play(s); err != nil {
		t.Fatal(err)
	}
	if r.App.Screen() != msgpad.ScreenConnected {
		t.Fatalf("screen %s", r.App.Screen())
	}
	if msg, n := r.App.Inbox().Latest(); n != 1 || msg != "hello pad" {
		t.Fatalf("inbox %q (%d)", msg, n)
	}
	var found bool
	for _, txt := range r.Canvas.Texts() {
		if strings.Contains(txt, "hello pad") {
			found = true
		}
	}
	if !found {
		t.Fatalf("message not drawn: %q", r.Canvas.Texts())
	}
	if clients := r.Broker.Clients(); len(clients) != 1 || clients[0] != r.Cfg.DeviceID {
		t.Fatalf("clients %v", clients)
	}

	// one snapshot per screen: wifi, connected
	shots := r.Snapshots()
	if len(shots) != 2 || !strings.HasSuffix(shots[0], "-wifi.png") || !strings.HasSuffix(shots[1], "-connected.png") {
		t.Fatalf("snapshots %v", shots)
	}
	for _, path := range shots {
		if _, err = os.Stat(path); err != nil {
			t.Fatal(err)
		}
	}
	data, err := r.Storage.ReadFile(r.Cfg.WifiFile)
	if err != nil || string(data) != "home\nsecret" {
		t.Fatalf("stored %q %v", data, err)
	}
}

func TestRigReconnect(t *testing.T) {
	r := testRig(t)
	r.Cfg.Snapshots = ""
	if err := r.Storage.Begin(); err != nil {
		t.Fatal(err)
	}
	cs := msgpad.NewCredentialStore(r.Storage, r.Cfg.WifiFile, nil)
	if err := cs.Save(msgpad.Credentials{SSID: "home", Password: "secret"}); err != nil {
		t.Fatal(err)
	}
	r.Frame(msgpad.Sample{})
	r.Settle()
	if r.App.Screen() != msgpad.ScreenConnected {
		t.Fatalf("screen %s", r.App.Screen())
	}
	s, _ := ParseScript([]byte("steps: [{drop: true}, {idle: 1}]"))
	if err := r.Play(s); err != nil {
		t.Fatal(err)
	}
	if r.App.Screen() != msgpad.ScreenConnected || r.Radio.Joins() != 2 {
		t.Fatalf("screen %s after %d joins", r.App.Screen(), r.Radio.Joins())
	}
	if len(r.Snapshots()) != 0 {
		t.Fatal("snapshots written")
	}
	if before := r.Frames(); before == 0 || r.Now().IsZero() {
		t.Fatal("clock")
	}
}

func TestRigFailedJoin(t *testing.T) {
	r := testRig(t)
	r.Cfg.Snapshots = ""
	s, _ := ParseScript([]byte(`steps:
  - text: home
  - key: OK
  - text: wrong
  - key: OK
`))
	if err := r.Play(s); err != nil {
		t.Fatal(err)
	}
	snap := r.App.Snapshot()
	if snap.Screen != msgpad.ScreenWifiSetup || !strings.Contains(snap.Status, "wrong password") {
		t.Fatalf("snapshot %+v", snap)
	}
}

func TestRigFirstTap(t *testing.T) {
	r := testRig(t)
	r.Cfg.Snapshots = ""
	s, _ := ParseScript([]byte("steps: [{text: home}]"))
	if err := r.Play(s); err != nil {
		t.Fatal(err)
	}
	if ssid := r.App.Credentials().SSID; ssid != "home" {
		t.Fatalf("ssid %q", ssid)
	}
}
