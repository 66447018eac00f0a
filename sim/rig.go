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
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bfix/msgpad"
	"github.com/bfix/msgpad/ninefs"
)

// screen size of the simulated display
const (
	ScreenWidth  = 480
	ScreenHeight = 320
)

// Rig runs the application against simulated collaborators on a virtual
// clock: every frame advances time by the frame delay.
type Rig struct {
	Cfg       Config
	Canvas    *Canvas
	Radio     *Radio
	Storage   msgpad.Storage
	Namespace *ninefs.Namespace
	Broker    *ninefs.Broker
	App       *msgpad.App

	logger *slog.Logger
	now    time.Time
	step   time.Duration
	frames int
	screen msgpad.ScreenState
	shots  []string
}

// NewRig assembles the simulated platform. The status display may be nil.
func NewRig(cfg Config, status *msgpad.Status, logger *slog.Logger) (r *Rig, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	r = &Rig{
		Cfg:    cfg,
		logger: logger,
		now:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		step:   cfg.FrameDelay,
	}
	if r.step <= 0 {
		r.step = 25 * time.Millisecond
	}
	if r.Canvas, err = NewCanvas(ScreenWidth, ScreenHeight); err != nil {
		return nil, err
	}
	r.Radio = NewRadio(cfg.Networks, cfg.JoinLatency, logger.With("component", "radio"))
	if cfg.LinkUp {
		r.Radio.Up()
	}
	if len(cfg.StorageDir) > 0 {
		r.Storage = NewDirStorage(cfg.StorageDir)
	} else {
		r.Storage = msgpad.NewMemStorage()
	}
	r.Namespace = ninefs.NewNamespace("sys", "sys", 0777)
	if r.Broker, err = ninefs.NewBroker(r.Namespace, logger.With("component", "broker")); err != nil {
		return nil, err
	}
	r.App = msgpad.NewApp(cfg.Config, msgpad.Platform{
		Surface:   r.Canvas,
		Touch:     msgpad.TouchFunc(func() msgpad.Sample { return msgpad.Sample{} }),
		Storage:   r.Storage,
		Radio:     r.Radio,
		Messenger: r.Broker,
	}, status, logger)
	if err = ninefs.AddDiagnostics(r.Namespace, cfg.Config, r.App, r.Radio); err != nil {
		return nil, err
	}
	return r, nil
}

// Now returns the virtual time.
func (r *Rig) Now() time.Time {
	return r.now
}

// Frames returns the number of frames run.
func (r *Rig) Frames() int {
	return r.frames
}

// Snapshots returns the files written so far.
func (r *Rig) Snapshots() []string {
	return append([]string(nil), r.shots...)
}

// Frame runs one frame with the given sample. A snapshot is taken when
// the screen changes.
func (r *Rig) Frame(smp msgpad.Sample) {
	r.App.Frame(r.now, smp)
	r.now = r.now.Add(r.step)
	r.frames++
	if s := r.App.Screen(); s != r.screen {
		r.screen = s
		if err := r.Snapshot(s.String()); err != nil {
			r.logger.Warn("snapshot failed", slog.String("err", err.Error()))
		}
	}
}

// Play a script. After the last step the rig keeps running until a
// pending connection attempt has finished.
func (r *Rig) Play(s *Script) error {
	p, err := NewPlayer(s, r.Hooks())
	if err != nil {
		return err
	}
	for !p.Done() {
		r.Frame(p.Touch())
	}
	r.Settle()
	return p.Err()
}

// Settle runs idle frames until no connection attempt is pending.
func (r *Rig) Settle() {
	limit := r.Cfg.MaxRetries*int(r.Cfg.RetryDelay/r.step) + 2
	for range limit {
		if r.App.Session().State() != msgpad.SessionConnecting {
			break
		}
		r.Frame(msgpad.Sample{})
	}
	// one more frame to apply the outcome
	r.Frame(msgpad.Sample{})
}

// Hooks for the script player
func (r *Rig) Hooks() Hooks {
	return Hooks{
		Drop: r.Radio.Drop,
		Message: func(msg string) error {
			return r.Broker.Post(msgpad.InboxTopic(r.Cfg.DeviceID), []byte(msg))
		},
		Snapshot: r.Snapshot,
	}
}

// Snapshot saves the canvas as "<frame>-<name>.png" in the snapshot
// directory. Nothing is written if no directory is configured.
func (r *Rig) Snapshot(name string) error {
	if len(r.Cfg.Snapshots) == 0 {
		return nil
	}
	path := filepath.Join(r.Cfg.Snapshots, fmt.Sprintf("%05d-%s.png", r.frames, name))
	if err := r.Canvas.SavePNG(path); err != nil {
		return err
	}
	r.shots = append(r.shots, path)
	r.logger.Info("snapshot", slog.String("file", path))
	return nil
}
