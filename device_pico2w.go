//go:build rp2350

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
	"image/color"
	"io"
	"log/slog"
	"machine"
	"net"
	"net/netip"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ili9341"
	"tinygo.org/x/drivers/xpt2046"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfs/littlefs"
)

// Pin assignment of the TFT shield (SPI display, bit-banged touch).
const (
	pinTFTSCK  = machine.GPIO18
	pinTFTSDO  = machine.GPIO19
	pinTFTSDI  = machine.GPIO16
	pinTFTCS   = machine.GPIO17
	pinTFTDC   = machine.GPIO20
	pinTFTRST  = machine.GPIO21
	pinTouchCK = machine.GPIO10
	pinTouchDI = machine.GPIO11
	pinTouchDO = machine.GPIO12
	pinTouchCS = machine.GPIO13
	pinTouchIR = machine.GPIO14
)

// Raspberry Pico2 W  [RP2350]
type Pico2WDevice struct {
	ref    *cyw43439.Device // reference to device
	logger *slog.Logger

	Hostname    string // DHCP requested hostname
	RequestedIP string // static IP if DHCP fails (optional)

	link atomic.Int32 // current LinkStatus

	qmu     sync.Mutex   // guards the join queue
	joining bool         // join in progress
	queued  *Credentials // latest request made during a join

	mu      sync.Mutex // guards the fields below
	wifiUp  bool       // cyw43439 initialized
	stack   *stacks.PortStack
	dhcpc   *stacks.DHCPClient
	stackUp chan struct{} // closed when the stack has an address
}

// LED on or off (if applicable)
func (dev *Pico2WDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// InitDevice returns the board. The logger may be nil.
func InitDevice(logger *slog.Logger) *Pico2WDevice {
	dev := new(Pico2WDevice)
	dev.ref = cyw43439.NewPicoWDevice()
	dev.logger = orDiscard(logger)
	dev.stackUp = make(chan struct{})
	return dev
}

// Platform assembles the on-board collaborators. The messenger is left
// for the caller to set.
func (dev *Pico2WDevice) Platform() (plat Platform, state int) {
	disp, err := newDisplay()
	if err != nil {
		return plat, StatDEV
	}
	touch, err := newTouch()
	if err != nil {
		return plat, StatDEV
	}
	return Platform{
		Surface:    disp,
		Touch:      touch,
		Storage:    NewFlashStorage(),
		Radio:      dev,
		Calibrator: &cornerCalibrator{touch: touch, margin: 20},
	}, StatOK
}

//----------------------------------------------------------------------
// Radio
//----------------------------------------------------------------------

// Join a network. The join runs in the background; progress is reported
// by Status. A request made while a join is running replaces any queued
// one and starts when the running join has finished; the outcome of the
// superseded join is not reported.
func (dev *Pico2WDevice) Join(ssid, passwd string) error {
	dev.link.Store(int32(LinkIdle))
	dev.qmu.Lock()
	defer dev.qmu.Unlock()
	if dev.joining {
		dev.queued = &Credentials{SSID: ssid, Password: passwd}
		dev.logger.Info("join queued", slog.String("ssid", ssid))
		return nil
	}
	dev.joining = true
	go dev.joinLoop(Credentials{SSID: ssid, Password: passwd})
	return nil
}

// joinLoop runs joins until no request is queued.
func (dev *Pico2WDevice) joinLoop(c Credentials) {
	for {
		state := dev.join(c.SSID, c.Password)
		var ls LinkStatus
		switch state {
		case StatOK:
			ls = LinkConnected
		case StatDHCP1, StatDHCP2:
			ls = LinkDisconnected
		default:
			ls = LinkConnectFailed
		}
		dev.logger.Info("join finished", slog.String("status", StatusText(state)), slog.String("link", ls.String()))

		dev.qmu.Lock()
		next := dev.queued
		dev.queued = nil
		if next == nil {
			dev.joining = false
			dev.link.Store(int32(ls))
			dev.qmu.Unlock()
			return
		}
		dev.qmu.Unlock()
		c = *next
	}
}

// Status of the link
func (dev *Pico2WDevice) Status() LinkStatus {
	return LinkStatus(dev.link.Load())
}

// join initializes the radio (once), joins the network and requests an
// address via DHCP.
func (dev *Pico2WDevice) join(ssid, passwd string) int {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	logger := dev.logger

	var err error
	var reqAddr netip.Addr
	if dev.RequestedIP != "" {
		if reqAddr, err = netip.ParseAddr(dev.RequestedIP); err != nil {
			return StatIP
		}
	}
	if !dev.wifiUp {
		wificfg := cyw43439.DefaultWifiConfig()
		wificfg.Logger = logger
		logger.Info("initializing pico W device...")
		devInitTime := time.Now()
		if err = dev.ref.Init(wificfg); err != nil {
			return StatWIFI
		}
		logger.Info("cyw43439:Init", slog.Duration("duration", time.Since(devInitTime)))
		dev.wifiUp = true
	}
	if err = dev.ref.JoinWPA2(ssid, passwd); err != nil {
		logger.Error("wifi join failed", slog.String("err", err.Error()))
		return StatWPA2
	}
	mac, _ := dev.ref.HardwareAddr6()
	logger.Info("wifi join success!", slog.String("mac", net.HardwareAddr(mac[:]).String()))

	if dev.stack == nil {
		dev.stack = stacks.NewPortStack(stacks.PortStackConfig{
			MAC:             mac,
			MaxOpenPortsUDP: 2, // DHCP client and one spare
			MaxOpenPortsTCP: 1,
			MTU:             mtu,
			Logger:          logger,
		})
		dev.ref.RecvEthHandle(dev.stack.RecvEth)

		// Begin asynchronous packet handling.
		go nicLoop(dev.ref, dev.stack)
		dev.dhcpc = stacks.NewDHCPClient(dev.stack, dhcp.DefaultClientPort)
	}

	err = dev.dhcpc.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: reqAddr,
		Xid:           uint32(time.Now().Nanosecond()),
		Hostname:      dev.Hostname,
	})
	if err != nil {
		return StatDHCP1
	}
	for i := 0; dev.dhcpc.State() != dhcp.StateBound; i++ {
		logger.Info("DHCP ongoing...")
		time.Sleep(time.Second / 2)
		if i > 15 {
			if !reqAddr.IsValid() {
				return StatDHCP2
			}
			logger.Info("DHCP did not complete, assigning static IP", slog.String("ip", dev.RequestedIP))
			dev.stack.SetAddr(reqAddr)
			dev.markStackUp()
			return StatOK
		}
	}
	ip := dev.dhcpc.Offer()
	logger.Info("DHCP complete",
		slog.Uint64("cidrbits", uint64(dev.dhcpc.CIDRBits())),
		slog.String("ourIP", ip.String()),
		slog.String("gateway", dev.dhcpc.Gateway().String()),
		slog.String("router", dev.dhcpc.Router().String()),
		slog.String("hostname", string(dev.dhcpc.Hostname())),
		slog.Duration("lease", dev.dhcpc.IPLeaseTime()),
	)
	dev.stack.SetAddr(ip) // It's important to set the IP address after DHCP completes.
	dev.markStackUp()
	return StatOK
}

// markStackUp (locked)
func (dev *Pico2WDevice) markStackUp() {
	select {
	case <-dev.stackUp:
	default:
		close(dev.stackUp)
	}
}

// SetupListener returns a TCP listener on the given port. It waits until
// the first successful join has configured the network stack.
func (dev *Pico2WDevice) SetupListener(ctx context.Context, port uint16) (lst net.Listener, state int) {
	select {
	case <-ctx.Done():
		return nil, StatSRV
	case <-dev.stackUp:
	}
	dev.mu.Lock()
	stack := dev.stack
	dev.mu.Unlock()
	listener, err := stacks.NewTCPListener(stack, stacks.TCPListenerConfig{
		MaxConnections: 3,
		ConnTxBufSize:  512,
		ConnRxBufSize:  512,
	})
	if err != nil {
		return nil, StatLISTEN1
	}
	if listener.StartListening(port) != nil {
		return nil, StatLISTEN2
	}
	return listener, StatOK
}

//======================================================================
// adapted from https://raw.githubusercontent.com/soypat/cyw43439,
// file '/examples/common/common.go'.
//======================================================================

const mtu = cyw43439.MTU

func nicLoop(dev *cyw43439.Device, Stack *stacks.PortStack) {
	// Maximum number of packets to queue before sending them.
	const (
		queueSize                = 3
		maxRetriesBeforeDropping = 3
	)
	var queue [queueSize][mtu]byte
	var lenBuf [queueSize]int
	var retries [queueSize]int
	markSent := func(i int) {
		lenBuf[i] = 0
		retries[i] = 0
	}
	for {
		stallRx := true
		// Poll for incoming packets.
		gotPacket, err := dev.PollOne()
		if err != nil {
			println("poll error:", err.Error())
		}
		if gotPacket {
			stallRx = false
		}

		// Queue packets to be sent.
		for i := range queue {
			if retries[i] != 0 {
				continue // Packet currently queued for retransmission.
			}
			var err error
			buf := queue[i][:]
			lenBuf[i], err = Stack.HandleEth(buf[:])
			if err != nil {
				println("stack error n(should be 0)=", lenBuf[i], "err=", err.Error())
				lenBuf[i] = 0
				continue
			}
			if lenBuf[i] == 0 {
				break
			}
		}
		stallTx := lenBuf == [queueSize]int{}
		if stallTx {
			if stallRx {
				// Avoid busy waiting when both Rx and Tx stall.
				time.Sleep(51 * time.Millisecond)
			}
			continue
		}

		// Send queued packets.
		for i := range queue {
			n := lenBuf[i]
			if n <= 0 {
				continue
			}
			err := dev.SendEth(queue[i][:n])
			if err != nil {
				// Queue packet for retransmission.
				retries[i]++
				if retries[i] > maxRetriesBeforeDropping {
					markSent(i)
					println("dropped outgoing packet:", err.Error())
				}
			} else {
				markSent(i)
			}
		}
	}
}

//----------------------------------------------------------------------
// Display
//----------------------------------------------------------------------

// tftSurface renders on the ILI9341 display.
type tftSurface struct {
	dev *ili9341.Device
}

// tftFont is a font with its distance from top to baseline and line height.
type tftFont struct {
	font   *tinyfont.Font
	ascent int16
	height int16
}

// fonts by text size
var tftFonts = []tftFont{
	{&freemono.Regular9pt7b, 13, 18},
	{&freemono.Regular12pt7b, 17, 24},
}

func newDisplay() (*tftSurface, error) {
	err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 40_000_000,
		SCK:       pinTFTSCK,
		SDO:       pinTFTSDO,
		SDI:       pinTFTSDI,
	})
	if err != nil {
		return nil, err
	}
	dev := ili9341.NewSPI(machine.SPI0, pinTFTDC, pinTFTCS, pinTFTRST)
	dev.Configure(ili9341.Config{
		Width:    240,
		Height:   320,
		Rotation: drivers.Rotation90,
	})
	return &tftSurface{dev: dev}, nil
}

func (s *tftSurface) Size() (int16, int16) {
	return s.dev.Size()
}

func (s *tftSurface) FillScreen(c color.RGBA) {
	s.dev.FillScreen(c)
}

func (s *tftSurface) FillRect(r Rect, c color.RGBA) {
	_ = s.dev.FillRectangle(r.X, r.Y, r.W, r.H, c)
}

func (s *tftSurface) DrawRect(r Rect, c color.RGBA) {
	_ = s.dev.DrawRectangle(r.X, r.Y, r.W, r.H, c)
}

func (s *tftSurface) DrawCentered(text string, cx, cy int16, size uint8, fg, bg color.RGBA) {
	f := fontFor(size)
	_, w := tinyfont.LineWidth(f.font, text)
	s.Print(text, cx-int16(w)/2, cy-f.height/2, size, fg, bg)
}

func (s *tftSurface) Print(text string, x, y int16, size uint8, fg, bg color.RGBA) {
	f := fontFor(size)
	_, w := tinyfont.LineWidth(f.font, text)
	_ = s.dev.FillRectangle(x, y, int16(w), f.height, bg)
	tinyfont.WriteLine(s.dev, f.font, x, y+f.ascent, text, fg)
}

func (s *tftSurface) Flush() error {
	return s.dev.Display()
}

func fontFor(size uint8) tftFont {
	if int(size) > len(tftFonts) {
		size = uint8(len(tftFonts))
	}
	if size == 0 {
		size = 1
	}
	return tftFonts[size-1]
}

//----------------------------------------------------------------------
// Touch
//----------------------------------------------------------------------

// tftTouch reads the XPT2046 controller.
type tftTouch struct {
	dev xpt2046.Device

	mu  sync.Mutex
	cal Calibration
}

func newTouch() (*tftTouch, error) {
	t := &tftTouch{
		dev: xpt2046.New(pinTouchCK, pinTouchCS, pinTouchDI, pinTouchDO, pinTouchIR),
		cal: Identity(480, 320),
	}
	if err := t.dev.Configure(&xpt2046.Config{Precision: 10}); err != nil {
		return nil, err
	}
	return t, nil
}

// SetCalibration for mapping raw readings
func (t *tftTouch) SetCalibration(cal Calibration) {
	t.mu.Lock()
	t.cal = cal
	t.mu.Unlock()
}

// Touch returns a calibrated sample.
func (t *tftTouch) Touch() Sample {
	raw, ok := t.raw()
	if !ok {
		return Sample{}
	}
	t.mu.Lock()
	x, y := t.cal.Map(raw.X, raw.Y)
	t.mu.Unlock()
	return Sample{Touched: true, X: x, Y: y}
}

// raw returns an uncalibrated reading.
func (t *tftTouch) raw() (RawPoint, bool) {
	if !t.dev.Touched() {
		return RawPoint{}, false
	}
	p := t.dev.ReadTouchPoint()
	if p.Z == 0 {
		return RawPoint{}, false
	}
	return RawPoint{X: uint16(p.X), Y: uint16(p.Y)}, true
}

// cornerCalibrator asks for touches on three corner markers.
type cornerCalibrator struct {
	touch  *tftTouch
	margin int16
}

// Calibrate the touch controller.
func (c *cornerCalibrator) Calibrate(s Surface) (Calibration, error) {
	w, h := s.Size()
	m := c.margin
	var pts [3]RawPoint
	for i, pos := range [3][2]int16{{m, m}, {w - 1 - m, m}, {m, h - 1 - m}} {
		c.marker(s, pos[0], pos[1], Magenta)
		pts[i] = c.read()
		c.marker(s, pos[0], pos[1], Green)
	}
	return CalibrationFromCorners(uint16(w), uint16(h), uint16(m), pts[0], pts[1], pts[2])
}

// marker draws a cross-hair at (x,y)
func (c *cornerCalibrator) marker(s Surface, x, y int16, col color.RGBA) {
	s.FillRect(Rect{X: x - 8, Y: y, W: 17, H: 1}, col)
	s.FillRect(Rect{X: x, Y: y - 8, W: 1, H: 17}, col)
}

// read waits for a touch and returns the averaged reading once the
// touch is released.
func (c *cornerCalibrator) read() RawPoint {
	for c.touch.dev.Touched() {
		time.Sleep(20 * time.Millisecond)
	}
	var sx, sy, n uint32
	for n == 0 || c.touch.dev.Touched() {
		if p, ok := c.touch.raw(); ok {
			sx += uint32(p.X)
			sy += uint32(p.Y)
			n++
		}
		time.Sleep(20 * time.Millisecond)
	}
	return RawPoint{X: uint16(sx / n), Y: uint16(sy / n)}
}

//----------------------------------------------------------------------
// Flash storage
//----------------------------------------------------------------------

// FlashStorage is a littlefs file system on the on-board flash.
type FlashStorage struct {
	lfs *littlefs.LFS
}

// NewFlashStorage on the flash region reserved for data.
func NewFlashStorage() *FlashStorage {
	lfs := littlefs.New(machine.Flash)
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 512,
		BlockCycles:   100,
	})
	return &FlashStorage{lfs: lfs}
}

// Begin mounts the file system
func (fs *FlashStorage) Begin() error {
	return fs.lfs.Mount()
}

// Format the file system
func (fs *FlashStorage) Format() error {
	return fs.lfs.Format()
}

// Exists returns true if the file exists
func (fs *FlashStorage) Exists(path string) bool {
	_, err := fs.lfs.Stat(path)
	return err == nil
}

// ReadFile returns the content of a file
func (fs *FlashStorage) ReadFile(path string) ([]byte, error) {
	f, err := fs.lfs.Open(path)
	if err != nil {
		return nil, errors.Join(ErrNoFile, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile creates (or truncates) a file and writes data to it.
func (fs *FlashStorage) WriteFile(path string, data []byte) error {
	f, err := fs.lfs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Remove a file
func (fs *FlashStorage) Remove(path string) error {
	return fs.lfs.Remove(path)
}
