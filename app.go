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
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ScreenState is the screen selected by the coordinator.
type ScreenState int

// Screens
const (
	ScreenNone ScreenState = iota
	ScreenCalibrate
	ScreenWifiSetup
	ScreenConnected
)

// String returns the screen name
func (s ScreenState) String() string {
	switch s {
	case ScreenNone:
		return "none"
	case ScreenCalibrate:
		return "calibrate"
	case ScreenWifiSetup:
		return "wifi"
	case ScreenConnected:
		return "connected"
	}
	return fmt.Sprintf("screen(%d)", int(s))
}

// view is the content currently drawn on the surface.
type view int

const (
	viewNone view = iota
	viewCalibrate
	viewProgress
	viewWifi
	viewConnected
)

// phase of the Wi-Fi setup screen
type wifiPhase int

const (
	phaseEntry      wifiPhase = iota // keyboard input
	phaseSilent                      // reconnect with stored credentials
	phaseConnecting                  // connect with entered credentials
)

// Screen layout (480x320 landscape)
var (
	ssidRect    = Rect{X: 40, Y: 20, W: 150, H: 20}
	passwdRect  = Rect{X: 281, Y: 20, W: 150, H: 20}
	statusRect  = Rect{X: 0, Y: 55, W: 480, H: 20}
	messageRect = Rect{X: 5, Y: 70, W: 470, H: 195}
	wifiKeyRect = Rect{X: 400, Y: 280, W: 70, H: 30}

	fieldColors = FieldColors{Outline: White, Fill: Black, Text: White, Select: Green}
)

// WifiKeyLabel is the label of the key leaving the connected screen.
const WifiKeyLabel = "WiFi"

// FieldRect returns the rectangle of a setup screen field.
func FieldRect(id FieldID) Rect {
	if id == FieldPassword {
		return passwdRect
	}
	return ssidRect
}

// WifiKeyRect returns the rectangle of the "WiFi" key.
func WifiKeyRect() Rect {
	return wifiKeyRect
}

// message area text grid
const (
	msgCols       = 56
	msgLineHeight = 16
)

//----------------------------------------------------------------------

// App is the application state. All fields are owned by the frame loop.
type App struct {
	cfg    Config
	plat   Platform
	status *Status
	logger *slog.Logger

	screen ScreenState
	drawn  view
	phase  wifiPhase

	creds   Credentials
	mode    InputMode
	kbd     Keyboard
	ssid    SelectableField
	passwd  SelectableField
	fields  *FieldSet
	wifiKey VirtualKey

	store      *CredentialStore
	session    *Session
	inbox      *Inbox
	statusLine string
	subscribed bool
	entryLink  LinkStatus // link status last seen on the entry screen

	mu   sync.Mutex // guards snap
	snap Snapshot
}

// Snapshot of the application state for readers outside the frame loop.
type Snapshot struct {
	Screen ScreenState
	SSID   string
	Status string
}

// NewApp creates the application for a platform. status may be nil.
func NewApp(cfg Config, plat Platform, status *Status, logger *slog.Logger) *App {
	logger = orDiscard(logger)
	a := &App{
		cfg:    cfg,
		plat:   plat,
		status: status,
		logger: logger,
		store:  NewCredentialStore(plat.Storage, cfg.WifiFile, logger),
		inbox:  NewInbox(cfg.DeviceID, logger),
	}
	a.fields = NewFieldSet(&a.ssid, &a.passwd)
	a.session = NewSession(plat.Radio, a.store, cfg.MaxRetries, cfg.RetryDelay, logger)
	a.session.Progress = a.drawProgress
	return a
}

// Screen returns the current screen state.
func (a *App) Screen() ScreenState { return a.screen }

// Credentials currently shown/edited
func (a *App) Credentials() Credentials { return a.creds }

// Mode returns the keyboard input mode.
func (a *App) Mode() InputMode { return a.mode }

// Fields of the Wi-Fi setup screen
func (a *App) Fields() *FieldSet { return a.fields }

// Keyboard of the Wi-Fi setup screen
func (a *App) Keyboard() *Keyboard { return &a.kbd }

// Session controller
func (a *App) Session() *Session { return a.session }

// Inbox of the device
func (a *App) Inbox() *Inbox { return a.inbox }

// StatusLine returns the status text shown on the setup screen.
func (a *App) StatusLine() string { return a.statusLine }

// Frame advances the application by one frame with the given touch sample.
func (a *App) Frame(now time.Time, smp Sample) {
	switch a.screen {
	case ScreenNone:
		// the sample of the start frame goes to the routed screen
		a.start(now)
		if a.screen != ScreenCalibrate {
			a.screenFrame(now, smp)
		}
	case ScreenCalibrate:
		a.calibrate()
		a.route(now)
	default:
		a.screenFrame(now, smp)
	}
	a.mu.Lock()
	a.snap = Snapshot{
		Screen: a.screen,
		SSID:   a.creds.SSID,
		Status: a.statusLine,
	}
	a.mu.Unlock()
}

// screenFrame runs the handler of the interactive screens.
func (a *App) screenFrame(now time.Time, smp Sample) {
	switch a.screen {
	case ScreenWifiSetup:
		a.wifiFrame(now, smp)
	case ScreenConnected:
		a.connectedFrame(now, smp)
	}
}

// Snapshot returns the application state as of the last frame. Safe to
// call from other goroutines.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

// Run the frame loop until the context is done.
func (a *App) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		a.Frame(time.Now(), a.plat.Touch.Touch())
		if err := a.plat.Surface.Flush(); err != nil {
			a.logger.Error("display flush failed", slog.String("err", err.Error()))
		}
		time.Sleep(a.cfg.FrameDelay)
	}
}

// setScreen changes the screen state.
func (a *App) setScreen(s ScreenState) {
	if s != a.screen {
		a.logger.Info("screen change", slog.String("from", a.screen.String()), slog.String("to", s.String()))
		a.screen = s
	}
}

// start mounts the storage and selects the first screen.
func (a *App) start(now time.Time) {
	if err := Mount(a.plat.Storage, a.logger); err != nil {
		a.logger.Error("no persistent storage", slog.String("err", err.Error()))
		a.status.Set(StatSTORE, 3)
	}
	cal, err := LoadCalibration(a.plat.Storage, a.cfg.CalibrationFile)
	if err == nil && !a.cfg.RepeatCalibration {
		a.applyCalibration(cal)
		a.route(now)
		return
	}
	if a.plat.Calibrator == nil {
		a.logger.Warn("no calibration available")
		a.route(now)
		return
	}
	a.setScreen(ScreenCalibrate)
}

// calibrate runs the calibrator and persists the result.
func (a *App) calibrate() {
	if a.drawn != viewCalibrate {
		a.drawn = viewCalibrate
		a.plat.Surface.FillScreen(Black)
		a.plat.Surface.Print("Touch corners as indicated", 20, 0, 1, White, Black)
	}
	cal, err := a.plat.Calibrator.Calibrate(a.plat.Surface)
	if err != nil {
		a.logger.Error("calibration failed", slog.String("err", err.Error()))
		a.status.Set(StatCAL, 3)
		return
	}
	a.applyCalibration(cal)
	if a.plat.Storage.Exists(a.cfg.CalibrationFile) {
		_ = a.plat.Storage.Remove(a.cfg.CalibrationFile)
	}
	if err = SaveCalibration(a.plat.Storage, a.cfg.CalibrationFile, cal); err != nil {
		a.logger.Warn("can't store calibration", slog.String("err", err.Error()))
	}
	a.plat.Surface.Print("Calibration complete!", 20, 20, 1, Green, Black)
}

// applyCalibration hands the calibration to the touch source.
func (a *App) applyCalibration(cal Calibration) {
	if t, ok := a.plat.Touch.(Calibratable); ok {
		t.SetCalibration(cal)
	}
}

// route selects the screen after start-up.
func (a *App) route(now time.Time) {
	if a.plat.Radio.Status() == LinkConnected {
		if c, err := a.store.Load(); err == nil {
			a.creds = c
		}
		a.enterConnected()
		return
	}
	a.enterWifiSetup(now, true)
}

//----------------------------------------------------------------------
// Wi-Fi setup screen
//----------------------------------------------------------------------

// enterWifiSetup switches to the setup screen. With reconnect set, stored
// credentials are tried first without showing the keyboard.
func (a *App) enterWifiSetup(now time.Time, reconnect bool) {
	a.setScreen(ScreenWifiSetup)
	a.statusLine = ""
	a.entryLink = LinkIdle
	if reconnect {
		c, err := a.store.Load()
		switch {
		case err == nil && len(c.SSID) == 0:
			// nothing to join: prefill the password only
			a.creds = c
		case err == nil:
			a.creds = c
			a.phase = phaseSilent
			a.drawReconnect()
			a.session.Reset()
			if err = a.session.Begin(now, c, OriginStore); err != nil {
				a.logger.Error("reconnect failed", slog.String("err", err.Error()))
			}
			return
		case !errors.Is(err, ErrNotFound):
			a.logger.Warn("can't load credentials", slog.String("err", err.Error()))
		}
	}
	a.phase = phaseEntry
	a.drawWifi()
}

// wifiFrame handles one frame on the setup screen.
func (a *App) wifiFrame(now time.Time, smp Sample) {
	switch a.phase {
	case phaseSilent, phaseConnecting:
		switch a.session.Tick(now) {
		case SessionConnected:
			a.enterConnected()
		case SessionFailed:
			a.connectFailed()
		}
	case phaseEntry:
		// a join that completed after the session gave up
		st := a.plat.Radio.Status()
		if st == LinkConnected && a.entryLink != LinkConnected {
			a.logger.Info("link came up", slog.String("ssid", a.creds.SSID))
			a.enterConnected()
			return
		}
		a.entryLink = st
		a.drawWifi()
		s := a.plat.Surface
		a.fields.Scan(smp, s, &a.creds)
		for _, ev := range a.kbd.Scan(smp, s, a.mode.Set) {
			if a.handleKey(now, ev) {
				break
			}
		}
	}
}

// handleKey processes a key press. Returns true if the keyboard is no
// longer accepting input in this frame.
func (a *App) handleKey(now time.Time, ev KeyEvent) bool {
	s := a.plat.Surface
	f := a.fields.Selected()
	switch ev.Cmd {
	case CmdOK:
		return a.commit(now)
	case CmdClear:
		if f != nil {
			a.creds.Clear(f.ID)
			f.Draw(s, &a.creds)
		}
	case CmdDel:
		if f != nil {
			a.creds.Backspace(f.ID)
			f.Draw(s, &a.creds)
		}
	case CmdShift, CmdCaps, CmdToggle:
		if a.mode.Apply(ev.Cmd) {
			a.rebuild(ev.Index)
		}
	default:
		if len(ev.Base) == 0 || f == nil {
			return false
		}
		ch, changed := a.mode.Consume(ev.Base)
		if changed {
			a.rebuild(ev.Index)
		}
		a.creds.Append(f.ID, ch)
		f.Draw(s, &a.creds)
	}
	return false
}

// rebuild the keyboard for the current mode; the key pressed in this
// frame keeps its pressed visual.
func (a *App) rebuild(pressed int) {
	s := a.plat.Surface
	a.kbd.Build(s, a.mode)
	a.kbd.Key(pressed).Draw(s, true)
}

// commit handles the OK key: on the SSID field focus moves to the
// password field, otherwise a connection attempt starts.
func (a *App) commit(now time.Time) bool {
	s := a.plat.Surface
	if f := a.fields.Selected(); f != nil && f.ID == FieldSSID {
		a.fields.Select(FieldPassword, s, &a.creds)
		return false
	}
	if len(a.creds.SSID) == 0 {
		a.showStatus("Enter an SSID first", Red)
		a.fields.Select(FieldSSID, s, &a.creds)
		return false
	}
	a.phase = phaseConnecting
	a.session.Reset()
	if err := a.session.Begin(now, a.creds, OriginEntry); err != nil {
		a.logger.Error("connect failed", slog.String("err", err.Error()))
	}
	return true
}

// connectFailed shows the failure and returns to keyboard entry.
func (a *App) connectFailed() {
	st := a.session.LastStatus()
	a.status.Set(StatWIFI, 3)
	a.session.Reset()
	a.phase = phaseEntry
	a.entryLink = st
	a.drawWifi()
	a.showStatus(fmt.Sprintf("Connection failed: %s (%d)", st, int(st)), Red)
}

// drawWifi draws the setup screen once per entry.
func (a *App) drawWifi() {
	if a.drawn == viewWifi {
		return
	}
	a.drawn = viewWifi
	s := a.plat.Surface
	s.FillScreen(Black)
	s.Print("SSID: ", 5, 22, 1, White, Black)
	s.Print("Password: ", 220, 22, 1, White, Black)

	a.ssid.Init(FieldSSID, ssidRect, fieldColors, 1)
	a.passwd.Init(FieldPassword, passwdRect, fieldColors, 1)
	a.fields.Draw(s, &a.creds)
	a.fields.Select(FieldSSID, s, &a.creds)

	a.mode = InputMode{}
	a.kbd.Reset()
	a.kbd.Build(s, a.mode)
	if len(a.statusLine) > 0 {
		s.Print(a.statusLine, 5, statusRect.Y+2, 1, Red, Black)
	}
}

// drawReconnect draws the screen shown during a silent reconnect.
func (a *App) drawReconnect() {
	a.drawn = viewProgress
	s := a.plat.Surface
	s.FillScreen(Black)
	s.Print("Reconnecting to "+a.creds.SSID, 5, 22, 1, White, Black)
}

// drawProgress shows the connection progress on the status line.
func (a *App) drawProgress(attempt, max int) {
	a.statusLine = fmt.Sprintf("Connecting to %s (%d/%d)", a.session.Credentials().SSID, attempt, max)
	s := a.plat.Surface
	s.FillRect(statusRect, Black)
	s.Print(a.statusLine, 5, statusRect.Y+2, 1, Yellow, Black)
}

// showStatus prints a message on the status line.
func (a *App) showStatus(msg string, c color.RGBA) {
	a.statusLine = msg
	s := a.plat.Surface
	s.FillRect(statusRect, Black)
	s.Print(msg, 5, statusRect.Y+2, 1, c, Black)
}

//----------------------------------------------------------------------
// Connected screen
//----------------------------------------------------------------------

// enterConnected switches to the message screen.
func (a *App) enterConnected() {
	a.setScreen(ScreenConnected)
	a.session.Reset()
	a.status.Set(StatOK, 0)
	a.drawConnected()
	a.subscribe()
}

// subscribe to the message box of the device.
func (a *App) subscribe() {
	m := a.plat.Messenger
	if m == nil {
		return
	}
	if err := m.Announce(TopicAnnounce, []byte(a.cfg.DeviceID)); err != nil {
		a.logger.Warn("announce failed", slog.String("err", err.Error()))
	}
	if a.subscribed {
		return
	}
	if err := m.Subscribe(a.inbox.Topic(), a.inbox.Deliver); err != nil {
		a.logger.Warn("subscribe failed", slog.String("err", err.Error()))
		return
	}
	a.subscribed = true
}

// connectedFrame handles one frame on the message screen.
func (a *App) connectedFrame(now time.Time, smp Sample) {
	if st := a.plat.Radio.Status(); st != LinkConnected {
		a.logger.Warn("connection lost", slog.String("status", st.String()))
		a.enterWifiSetup(now, true)
		return
	}
	s := a.plat.Surface
	k := &a.wifiKey
	k.Press(smp.Touched && k.Contains(int(smp.X), int(smp.Y)))
	if k.JustReleased() {
		k.Draw(s, false)
	}
	if k.JustPressed() {
		k.Draw(s, true)
		a.enterWifiSetup(now, false)
		a.entryLink = LinkConnected
		return
	}
	if a.inbox.TakeDirty() {
		a.drawMessage()
	}
}

// drawConnected draws the message screen once per entry.
func (a *App) drawConnected() {
	if a.drawn == viewConnected {
		return
	}
	a.drawn = viewConnected
	s := a.plat.Surface
	s.FillScreen(Black)
	s.Print("Connected to "+a.creds.SSID, 5, 5, 2, Green, Black)
	s.Print("Device: "+a.cfg.DeviceID, 5, 40, 1, White, Black)
	a.wifiKey.Init(wifiKeyRect, cmdKeyColors, WifiKeyLabel, 1)
	a.wifiKey.Reset()
	a.wifiKey.Draw(s, false)
	a.drawMessage()
}

// drawMessage renders the latest message into the message area.
func (a *App) drawMessage() {
	s := a.plat.Surface
	s.FillRect(messageRect, Black)
	s.DrawRect(messageRect, White)
	msg, n := a.inbox.Latest()
	if n == 0 {
		cx, cy := messageRect.Center()
		s.DrawCentered("No messages", cx, cy, 1, LightGrey, Black)
		return
	}
	maxLines := int(messageRect.H-8) / msgLineHeight
	for i, line := range wrap(msg, msgCols) {
		if i >= maxLines {
			break
		}
		s.Print(line, messageRect.X+4, messageRect.Y+4+int16(i*msgLineHeight), 1, White, Black)
	}
}

// wrap text into lines of at most cols runes. Explicit newlines start a
// new line; long words are split.
func wrap(text string, cols int) (lines []string) {
	for _, para := range strings.Split(text, "\n") {
		line := []rune{}
		for _, word := range strings.Fields(para) {
			w := []rune(word)
			if len(line) > 0 && len(line)+1+len(w) > cols {
				lines = append(lines, string(line))
				line = line[:0]
			}
			for len(w) > cols {
				if len(line) > 0 {
					lines = append(lines, string(line))
					line = line[:0]
				}
				lines = append(lines, string(w[:cols]))
				w = w[cols:]
			}
			if len(line) > 0 {
				line = append(line, ' ')
			}
			line = append(line, w...)
		}
		lines = append(lines, string(line))
	}
	return
}
