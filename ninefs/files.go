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

package ninefs

import (
	"errors"
	"sync"
)

// Error messages
var (
	ErrReadOnly = errors.New("write prohibited")
)

// File interface for file handler implementations:
// The interface methods are called on demand (by the 9p protocol handler
// for reads, by local publishers for writes). The implementation is free
// to handle the read/write calls according to its own logic.
type File interface {
	Read() ([]byte, error)
	Write([]byte) error
}

//----------------------------------------------------------------------

// NopFile returns no content and rejects writes.
type NopFile struct{}

// Read returns emtpy file
func (f *NopFile) Read() (data []byte, err error) {
	return
}

// Write to file is rejected
func (f *NopFile) Write([]byte) error {
	return ErrReadOnly
}

//----------------------------------------------------------------------

// TextFile with (small) static text content.
type TextFile struct {
	NopFile
	body string
}

// NewTextFile with given text content.
func NewTextFile(content string) *TextFile {
	return &TextFile{
		body: content,
	}
}

// Read implementation: return file content.
func (f *TextFile) Read() ([]byte, error) {
	return []byte(f.body), nil
}

//----------------------------------------------------------------------

// FuncFile content is returned by a function.
type FuncFile struct {
	NopFile
	fcn func() ([]byte, error)
}

// NewFuncFile with specified function.
func NewFuncFile(fcn func() ([]byte, error)) *FuncFile {
	return &FuncFile{
		fcn: fcn,
	}
}

// Read implementation: return file content.
func (f *FuncFile) Read() ([]byte, error) {
	return f.fcn()
}

//----------------------------------------------------------------------

// StringFunc returns a file showing a (volatile) string value followed
// by a newline.
func StringFunc(fcn func() string) *FuncFile {
	return NewFuncFile(func() ([]byte, error) {
		return []byte(fcn() + "\n"), nil
	})
}

//----------------------------------------------------------------------

// HandlerFile passes written data to a handler; reads return the last
// data written.
type HandlerFile struct {
	mu      sync.Mutex
	handler func([]byte) error
	last    []byte
}

// NewHandlerFile with the given write handler.
func NewHandlerFile(handler func([]byte) error) *HandlerFile {
	return &HandlerFile{
		handler: handler,
	}
}

// Read returns the last data written.
func (f *HandlerFile) Read() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.last...), nil
}

// Write passes data to the handler.
func (f *HandlerFile) Write(data []byte) error {
	if err := f.handler(data); err != nil {
		return err
	}
	f.mu.Lock()
	f.last = append(f.last[:0], data...)
	f.mu.Unlock()
	return nil
}
