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
	"errors"
	"fmt"
	"os"

	"github.com/bfix/msgpad"
	"gopkg.in/yaml.v3"
)

// Error messages
var (
	ErrStep = errors.New("invalid script step")
)

// Step of a touch script. Exactly one action should be set. Keys are
// found by label in either table; the tap lands on the key position, so
// symbols need a preceding "Sym" tap. The "WiFi" key of the connected
// screen is addressed by its label too.
type Step struct {
	Key      string `yaml:"key,omitempty"`      // tap a keyboard key by label
	Field    string `yaml:"field,omitempty"`    // tap a field ("ssid", "password")
	At       []int  `yaml:"at,omitempty"`       // tap a screen position [x, y]
	Text     string `yaml:"text,omitempty"`     // tap the keys for each character
	Idle     int    `yaml:"idle,omitempty"`     // frames without touch
	Drop     bool   `yaml:"drop,omitempty"`     // drop the network link
	Message  string `yaml:"message,omitempty"`  // deliver a message to the device
	Snapshot string `yaml:"snapshot,omitempty"` // save the screen as PNG
}

// Script is a sequence of steps played against the application.
type Script struct {
	Name    string `yaml:"name"`
	HoldFor int    `yaml:"hold"` // frames a tap is held (default 1)
	Steps   []Step `yaml:"steps"`
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script.
func ParseScript(data []byte) (*Script, error) {
	s := new(Script)
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return s, nil
}

//----------------------------------------------------------------------

// Hooks are called for steps acting outside the touch screen.
type Hooks struct {
	Drop     func()
	Message  func(msg string) error
	Snapshot func(name string) error
}

// Player turns a script into touch samples, one per frame. It implements
// msgpad.TouchSource.
type Player struct {
	hooks  Hooks
	frames []frame
	pos    int
	err    error
}

// frame is a touch sample with an optional side effect run before it.
type frame struct {
	smp    msgpad.Sample
	action func() error
}

// NewPlayer compiles a script.
func NewPlayer(s *Script, hooks Hooks) (*Player, error) {
	p := &Player{hooks: hooks}
	hold := max(s.HoldFor, 1)
	for i, st := range s.Steps {
		if err := p.compile(st, hold); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return p, nil
}

// compile a step into frames
func (p *Player) compile(st Step, hold int) error {
	switch {
	case len(st.Key) > 0:
		x, y, err := keyPosition(st.Key)
		if err != nil {
			return err
		}
		p.tap(x, y, hold)
	case len(st.Text) > 0:
		for _, r := range st.Text {
			x, y, err := keyPosition(string(r))
			if err != nil {
				return err
			}
			p.tap(x, y, hold)
		}
	case len(st.Field) > 0:
		x, y, err := fieldPosition(st.Field)
		if err != nil {
			return err
		}
		p.tap(x, y, hold)
	case len(st.At) > 0:
		if len(st.At) != 2 || st.At[0] < 0 || st.At[1] < 0 {
			return fmt.Errorf("%w: position %v", ErrStep, st.At)
		}
		p.tap(uint16(st.At[0]), uint16(st.At[1]), hold)
	case st.Idle > 0:
		for range st.Idle {
			p.frames = append(p.frames, frame{})
		}
	case st.Drop:
		p.frames = append(p.frames, frame{action: func() error {
			if p.hooks.Drop != nil {
				p.hooks.Drop()
			}
			return nil
		}})
	case len(st.Message) > 0:
		msg := st.Message
		p.frames = append(p.frames, frame{action: func() error {
			if p.hooks.Message == nil {
				return nil
			}
			return p.hooks.Message(msg)
		}})
	case len(st.Snapshot) > 0:
		name := st.Snapshot
		p.frames = append(p.frames, frame{action: func() error {
			if p.hooks.Snapshot == nil {
				return nil
			}
			return p.hooks.Snapshot(name)
		}})
	default:
		return ErrStep
	}
	return nil
}

// tap adds a press held for some frames followed by a release.
func (p *Player) tap(x, y uint16, hold int) {
	for range hold {
		p.frames = append(p.frames, frame{smp: msgpad.Sample{Touched: true, X: x, Y: y}})
	}
	p.frames = append(p.frames, frame{})
}

// Touch returns the sample for the next frame. After the script ends
// the screen is untouched.
func (p *Player) Touch() msgpad.Sample {
	if p.pos >= len(p.frames) {
		return msgpad.Sample{}
	}
	f := p.frames[p.pos]
	p.pos++
	if f.action != nil {
		if err := f.action(); err != nil && p.err == nil {
			p.err = err
		}
	}
	return f.smp
}

// Done returns true when all frames have been played.
func (p *Player) Done() bool {
	return p.pos >= len(p.frames)
}

// Len returns the number of frames in the script.
func (p *Player) Len() int {
	return len(p.frames)
}

// Err returns the first error of a step action.
func (p *Player) Err() error {
	return p.err
}

//----------------------------------------------------------------------

// keyPosition returns the center of the key with the given label in
// either label table.
func keyPosition(label string) (uint16, uint16, error) {
	if label == msgpad.WifiKeyLabel {
		cx, cy := msgpad.WifiKeyRect().Center()
		return uint16(cx), uint16(cy), nil
	}
	rects := msgpad.Layout()
	for _, set := range []msgpad.KeySet{msgpad.SetAlpha, msgpad.SetSymbol} {
		for i := range msgpad.NumKeys {
			if msgpad.Label(set, i) == label {
				cx, cy := rects[i].Center()
				return uint16(cx), uint16(cy), nil
			}
		}
	}
	return 0, 0, fmt.Errorf("%w: no key %q", ErrStep, label)
}

// fieldPosition returns the center of a setup field.
func fieldPosition(name string) (uint16, uint16, error) {
	var id msgpad.FieldID
	switch name {
	case "ssid":
		id = msgpad.FieldSSID
	case "password":
		id = msgpad.FieldPassword
	default:
		return 0, 0, fmt.Errorf("%w: no field %q", ErrStep, name)
	}
	cx, cy := msgpad.FieldRect(id).Center()
	return uint16(cx), uint16(cy), nil
}
