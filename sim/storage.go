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
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bfix/msgpad"
)

// DirStorage keeps files in a host directory.
type DirStorage struct {
	root string
}

// NewDirStorage on the given directory (created on Begin).
func NewDirStorage(root string) *DirStorage {
	return &DirStorage{root: root}
}

// path of a file in the host directory
func (d *DirStorage) path(name string) string {
	return filepath.Join(d.root, filepath.FromSlash(strings.TrimPrefix(name, "/")))
}

// Begin creates the directory if needed.
func (d *DirStorage) Begin() error {
	return os.MkdirAll(d.root, 0o755)
}

// Format removes all files.
func (d *DirStorage) Format() error {
	if err := os.RemoveAll(d.root); err != nil {
		return err
	}
	return os.MkdirAll(d.root, 0o755)
}

// Exists returns true if the file exists
func (d *DirStorage) Exists(name string) bool {
	fi, err := os.Stat(d.path(name))
	return err == nil && fi.Mode().IsRegular()
}

// ReadFile returns the content of a file
func (d *DirStorage) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, msgpad.ErrNoFile
	}
	return data, err
}

// WriteFile creates (or truncates) a file and writes data to it.
func (d *DirStorage) WriteFile(name string, data []byte) error {
	return os.WriteFile(d.path(name), data, 0o600)
}

// Remove a file
func (d *DirStorage) Remove(name string) error {
	err := os.Remove(d.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return msgpad.ErrNoFile
	}
	return err
}
