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
	"io/fs"
	"os"

	"github.com/bfix/msgpad"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix of environment variables overriding the configuration
const EnvPrefix = "MSGPAD_"

// Config of the simulator: device settings plus the simulated
// environment.
type Config struct {
	msgpad.Config `yaml:",inline"`

	Networks    map[string]string `yaml:"networks" env:"NETWORKS"`         // SSID -> password
	JoinLatency int               `yaml:"join_latency" env:"JOIN_LATENCY"` // status polls per join
	StorageDir  string            `yaml:"storage_dir" env:"STORAGE_DIR"`   // empty: in-memory
	Snapshots   string            `yaml:"snapshots" env:"SNAPSHOTS"`       // PNG output directory
	Serve       bool              `yaml:"serve" env:"SERVE"`               // serve namespace via 9p
	LinkUp      bool              `yaml:"link_up" env:"LINK_UP"`           // link is up at start
}

// DefaultConfig of the simulator
func DefaultConfig() Config {
	return Config{
		Config:      msgpad.DefaultConfig(),
		Networks:    map[string]string{},
		JoinLatency: 2,
		Snapshots:   ".",
	}
}

// LoadConfig reads the configuration file (if it exists) and applies
// environment overrides. An empty path skips the file.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()
	if len(path) > 0 {
		var data []byte
		data, err = os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			err = nil
		case err != nil:
			return
		default:
			if err = yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}
	if err = env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	return
}
