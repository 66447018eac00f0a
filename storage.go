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
	"sync"
)

// Error messages
var (
	ErrNoFile = errors.New("no such file")
)

// Storage is a (flash) file system holding small files.
type Storage interface {
	// Begin mounts the file system
	Begin() error

	// Format the file system (all files are lost)
	Format() error

	// Exists returns true if the file exists
	Exists(path string) bool

	// ReadFile returns the content of a file
	ReadFile(path string) ([]byte, error)

	// WriteFile creates (or truncates) a file and writes data to it.
	WriteFile(path string, data []byte) error

	// Remove a file
	Remove(path string) error
}

// Mount the storage. If the file system can't be mounted it is formatted
// and mounted again. A storage that still fails is reported (wrapping
// ErrStorage); callers proceed as if no data was persisted.
func Mount(fs Storage, logger *slog.Logger) error {
	logger = orDiscard(logger)
	err := fs.Begin()
	if err == nil {
		return nil
	}
	logger.Warn("formatting file system", slog.String("err", err.Error()))
	if err = fs.Format(); err == nil {
		err = fs.Begin()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

//----------------------------------------------------------------------

// MemStorage is a volatile in-memory file system.
type MemStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	mounted bool

	// FailBegin makes Begin fail the given number of times.
	FailBegin int
}

// NewMemStorage creates an empty file system.
func NewMemStorage() *MemStorage {
	return &MemStorage{
		files: make(map[string][]byte),
	}
}

// Begin mounts the file system.
func (m *MemStorage) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailBegin > 0 {
		m.FailBegin--
		return errors.New("mount failed")
	}
	m.mounted = true
	return nil
}

// Format removes all files.
func (m *MemStorage) Format() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = make(map[string][]byte)
	return nil
}

// Exists returns true if the file exists.
func (m *MemStorage) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return m.mounted && ok
}

// ReadFile returns a copy of the file content.
func (m *MemStorage) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !m.mounted || !ok {
		return nil, ErrNoFile
	}
	return append([]byte(nil), data...), nil
}

// WriteFile stores a copy of data.
func (m *MemStorage) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mounted {
		return ErrStorage
	}
	m.files[path] = append([]byte(nil), data...)
	return nil
}

// Remove a file.
func (m *MemStorage) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !m.mounted || !ok {
		return ErrNoFile
	}
	delete(m.files, path)
	return nil
}
