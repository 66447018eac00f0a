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
	"image/color"
	"strings"
	"sync"
	"time"
)

// drawOp is a recorded surface operation
type drawOp struct {
	kind string
	rect Rect
	text string
	fg   color.RGBA
	bg   color.RGBA
}

// fakeSurface records drawing operations.
type fakeSurface struct {
	ops    []drawOp
	clears int
}

func (s *fakeSurface) Size() (int16, int16) { return 480, 320 }

func (s *fakeSurface) FillScreen(c color.RGBA) {
	s.clears++
	s.ops = append(s.ops, drawOp{kind: "clear", fg: c})
}

func (s *fakeSurface) FillRect(r Rect, c color.RGBA) {
	s.ops = append(s.ops, drawOp{kind: "fill", rect: r, fg: c})
}

func (s *fakeSurface) DrawRect(r Rect, c color.RGBA) {
	s.ops = append(s.ops, drawOp{kind: "outline", rect: r, fg: c})
}

func (s *fakeSurface) DrawCentered(text string, cx, cy int16, size uint8, fg, bg color.RGBA) {
	s.ops = append(s.ops, drawOp{kind: "center", rect: Rect{X: cx, Y: cy}, text: text, fg: fg, bg: bg})
}

func (s *fakeSurface) Print(text string, x, y int16, size uint8, fg, bg color.RGBA) {
	s.ops = append(s.ops, drawOp{kind: "print", rect: Rect{X: x, Y: y}, text: text, fg: fg, bg: bg})
}

func (s *fakeSurface) Flush() error { return nil }

// reset the recorded operations
func (s *fakeSurface) reset() {
	s.ops = s.ops[:0]
	s.clears = 0
}

// printed returns true if a text containing sub was drawn.
func (s *fakeSurface) printed(sub string) bool {
	for _, op := range s.ops {
		if (op.kind == "print" || op.kind == "center") && strings.Contains(op.text, sub) {
			return true
		}
	}
	return false
}

//----------------------------------------------------------------------

// fakeRadio connects to known networks after a number of polls.
type fakeRadio struct {
	mu       sync.Mutex
	networks map[string]string
	latency  int
	pending  int
	result   LinkStatus
	status   LinkStatus
	joins    []Credentials
	joinErr  error
	polls    int
}

func newFakeRadio(latency int, nets ...string) *fakeRadio {
	r := &fakeRadio{networks: make(map[string]string), latency: latency}
	for i := 0; i+1 < len(nets); i += 2 {
		r.networks[nets[i]] = nets[i+1]
	}
	return r
}

func (r *fakeRadio) Join(ssid, passwd string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins = append(r.joins, Credentials{SSID: ssid, Password: passwd})
	if r.joinErr != nil {
		return r.joinErr
	}
	pw, ok := r.networks[ssid]
	switch {
	case !ok:
		r.result = LinkNoSSID
	case pw != passwd:
		r.result = LinkWrongPassword
	default:
		r.result = LinkConnected
	}
	r.pending = r.latency
	r.status = LinkIdle
	return nil
}

func (r *fakeRadio) Status() LinkStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
	if r.pending > 0 {
		r.pending--
		return r.status
	}
	if r.result != LinkIdle {
		r.status, r.result = r.result, LinkIdle
	}
	return r.status
}

func (r *fakeRadio) set(st LinkStatus) {
	r.mu.Lock()
	r.status, r.result, r.pending = st, LinkIdle, 0
	r.mu.Unlock()
}

func (r *fakeRadio) joinCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.joins)
}

//----------------------------------------------------------------------

// fakeMessenger records announcements and keeps subscriptions.
type fakeMessenger struct {
	announced []string
	subs      map[string]Handler
}

func (m *fakeMessenger) Announce(topic string, payload []byte) error {
	m.announced = append(m.announced, topic+":"+string(payload))
	return nil
}

func (m *fakeMessenger) Subscribe(topic string, h Handler) error {
	if m.subs == nil {
		m.subs = make(map[string]Handler)
	}
	m.subs[topic] = h
	return nil
}

func (m *fakeMessenger) publish(topic string, payload []byte) {
	if h, ok := m.subs[topic]; ok {
		h(topic, payload)
	}
}

//----------------------------------------------------------------------

// fakeCalibrator returns a fixed calibration.
type fakeCalibrator struct {
	cal   Calibration
	err   error
	calls int
}

func (c *fakeCalibrator) Calibrate(Surface) (Calibration, error) {
	c.calls++
	return c.cal, c.err
}

// calTouch is a calibratable touch source that is never touched.
type calTouch struct {
	cal *Calibration
}

func (t *calTouch) SetCalibration(cal Calibration) { t.cal = &cal }

func (t *calTouch) Touch() Sample { return Sample{} }

//----------------------------------------------------------------------

// failStorage fails every operation.
type failStorage struct{}

var errFlash = errors.New("flash failure")

func (failStorage) Begin() error { return errFlash }
func (failStorage) Format() error { return errFlash }
func (failStorage) Exists(string) bool { return false }
func (failStorage) ReadFile(string) ([]byte, error) { return nil, errFlash }
func (failStorage) WriteFile(string, []byte) error { return errFlash }
func (failStorage) Remove(string) error { return errFlash }

//----------------------------------------------------------------------

// testRig drives an App with a virtual clock.
type testRig struct {
	app   *App
	surf  *fakeSurface
	radio *fakeRadio
	fs    *MemStorage
	msg   *fakeMessenger
	now   time.Time
	cfg   Config
	plat  Platform
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryDelay = 100 * time.Millisecond
	return cfg
}

func newTestRig(radio *fakeRadio) *testRig {
	r := &testRig{
		surf:  new(fakeSurface),
		radio: radio,
		fs:    NewMemStorage(),
		msg:   new(fakeMessenger),
		now:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		cfg:   testConfig(),
	}
	r.plat = Platform{
		Surface:   r.surf,
		Touch:     TouchFunc(func() Sample { return Sample{} }),
		Storage:   r.fs,
		Radio:     r.radio,
		Messenger: r.msg,
	}
	return r
}

// start creates the application (after storage has been prepared).
func (r *testRig) start() *testRig {
	r.app = NewApp(r.cfg, r.plat, nil, nil)
	r.frame(Sample{})
	return r
}

// store credentials before start
func (r *testRig) store(ssid, pw string) {
	if err := r.fs.Begin(); err != nil {
		panic(err)
	}
	if err := NewCredentialStore(r.fs, r.cfg.WifiFile, nil).Save(Credentials{SSID: ssid, Password: pw}); err != nil {
		panic(err)
	}
}

func (r *testRig) frame(smp Sample) {
	r.app.Frame(r.now, smp)
	r.now = r.now.Add(r.cfg.FrameDelay)
}

func (r *testRig) idle(n int) {
	for range n {
		r.frame(Sample{})
	}
}

// tapRect presses the center of a rectangle for one frame and releases it.
func (r *testRig) tapRect(rect Rect) {
	cx, cy := rect.Center()
	r.frame(Sample{Touched: true, X: uint16(cx), Y: uint16(cy)})
	r.frame(Sample{})
}

// tapKey taps the key with the given alphanumeric label.
func (r *testRig) tapKey(label string) {
	rects := Layout()
	for i := range NumKeys {
		if Label(SetAlpha, i) == label {
			r.tapRect(rects[i])
			return
		}
	}
	panic("no key " + label)
}

func (r *testRig) typeText(s string) {
	for _, c := range s {
		r.tapKey(string(c))
	}
}

// settle runs frames until no connection attempt is pending.
func (r *testRig) settle() {
	for range 1000 {
		if r.app.Session().State() != SessionConnecting {
			return
		}
		r.frame(Sample{})
	}
	panic("session does not settle")
}
