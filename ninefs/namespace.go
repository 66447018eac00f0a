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
	"io"
	"path"
	"strings"
	"sync"

	"git.sr.ht/~moody/ninep"
)

// Error messages
var (
	ErrNoRoot = errors.New("no root directory")
	ErrNoFile = errors.New("no such file or directory")
	ErrNoDir  = errors.New("not a directory")
	ErrNoAbs  = errors.New("no absolute path")
	ErrExists = errors.New("file exists")
)

//----------------------------------------------------------------------

// Entry in the filesystem
type Entry struct {
	ref      *ninep.Dir        // 9p reference
	children map[string]*Entry // list of children (for folders) or nil
	file     File              // file implementation or nil (for folders)
}

// IsDir returns true if entry is a directory
func (e *Entry) IsDir() bool {
	return e.children != nil
}

// Name of the entry
func (e *Entry) Name() string {
	return e.ref.Name
}

// File implementation of the entry (nil for directories)
func (e *Entry) File() File {
	return e.file
}

// NewFile creates a file entry for the filesystem.
func NewFile(name, user, group string, perm uint32, impl File) *Entry {
	return newEntry(name, user, group, perm, impl)
}

// NewDir creates a directory entry for the filesystem.
func NewDir(name, user, group string, perm uint32) *Entry {
	return newEntry(name, user, group, perm, nil)
}

// Create a new entry in the filesystem.
// If impl is nil, the entry represents a directory; otherwise a file.
// The identifier (Qid.Path) is assigned when the entry is added to a
// namespace.
func newEntry(name, user, group string, perm uint32, impl File) *Entry {
	e := new(Entry)
	kind := ninep.QTFile
	if impl == nil {
		kind = ninep.QTDir
		e.children = make(map[string]*Entry)
		perm |= ninep.DMDir
	} else {
		e.file = impl
	}
	e.ref = &ninep.Dir{
		Qid: ninep.Qid{
			Vers: 0,
			Type: byte(kind),
		},
		Name: name,
		Mode: perm,
		Uid:  user,
		Gid:  group,
		Muid: user,
	}
	return e
}

//----------------------------------------------------------------------

// Namespace is a synthetic file system.
type Namespace struct {
	ninep.NopFS                   // use default handlers where needed
	mu          sync.Mutex        // entries can be added while serving
	dict        map[uint64]*Entry // map Qid.Path to filesystem entry
	nextId      uint64            // next identifier for an entry
	user, group string            // owner of entries created by path
}

// NewNamespace creates a new filesystem (with root directory) for the given
// user/group with the specified permissions.
func NewNamespace(user, group string, perm uint32) *Namespace {
	ns := new(Namespace)
	ns.dict = make(map[uint64]*Entry)
	ns.user, ns.group = user, group
	ns.register(NewDir("/", user, group, perm))
	return ns
}

// register entry with the next identifier.
func (ns *Namespace) register(e *Entry) {
	e.ref.Path = ns.nextId
	ns.nextId++
	ns.dict[e.ref.Path] = e
}

// Root returns the entry of the root directory
func (ns *Namespace) Root() *Entry {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.dict[0]
}

// Get entry with given path
func (ns *Namespace) Get(path string) (*Entry, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.get(path)
}

// get entry with given path (locked)
func (ns *Namespace) get(path string) (*Entry, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, ErrNoAbs
	}
	curr := ns.dict[0]
	for _, label := range strings.Split(path[1:], "/") {
		if len(label) == 0 {
			continue
		}
		if curr.children == nil {
			return nil, ErrNoDir
		}
		e, ok := curr.children[label]
		if !ok {
			return nil, ErrNoFile
		}
		curr = e
	}
	return curr, nil
}

// AddChild to parent entry. Parent must be a directory.
func (ns *Namespace) AddChild(parent, child *Entry) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.addChild(parent, child)
}

// addChild (locked)
func (ns *Namespace) addChild(parent, child *Entry) error {
	if parent.children == nil {
		return ErrNoDir
	}
	if _, ok := parent.children[child.ref.Name]; ok {
		return ErrExists
	}
	ns.register(child)
	parent.children[child.ref.Name] = child
	return nil
}

// NewFile adds a file at the given absolute path.
func (ns *Namespace) NewFile(fpath string, perm uint32, impl File) error {
	return ns.add(fpath, NewFile(path.Base(fpath), ns.user, ns.group, perm, impl))
}

// NewDir adds a directory at the given absolute path.
func (ns *Namespace) NewDir(dpath string, perm uint32) error {
	return ns.add(dpath, NewDir(path.Base(dpath), ns.user, ns.group, perm))
}

// add entry under the parent directory of path
func (ns *Namespace) add(p string, e *Entry) error {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	parent, err := ns.get(path.Dir(p))
	if err != nil {
		return err
	}
	return ns.addChild(parent, e)
}

// Serve the 9p protocol for the given listen string
func (ns *Namespace) Serve(listen string) error {
	srv := ninep.NewSrv(func() ninep.FS { return ns })
	return srv.ListenAndServe(listen)
}

// ServeConn serves the 9p protocol on an accepted connection.
func (ns *Namespace) ServeConn(c io.ReadWriter) {
	srv := ninep.NewSrv(func() ninep.FS { return ns })
	srv.ServeIO(c, c)
}

// ninep FS implementation

// Attach to 9p session
func (ns *Namespace) Attach(t *ninep.Tattach) {
	ns.mu.Lock()
	e, ok := ns.dict[0]
	ns.mu.Unlock()
	if ok {
		t.Respond(&e.ref.Qid)
	} else {
		t.Err(ErrNoRoot)
	}
}

// Walk to child entry with name "next".
func (ns *Namespace) Walk(cur *ninep.Qid, next string) *ninep.Qid {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	e, ok := ns.dict[cur.Path]
	if !ok || e.children == nil {
		return nil
	}
	if c, ok := e.children[next]; ok {
		return &c.ref.Qid
	}
	return nil
}

// Open entry for file operation
func (ns *Namespace) Open(t *ninep.Topen, q *ninep.Qid) {
	t.Respond(q, 8192)
}

// Read from entry. Either return the content of a file
// or the listing from a directory.
func (ns *Namespace) Read(t *ninep.Tread, q *ninep.Qid) {
	ns.mu.Lock()
	e, ok := ns.dict[q.Path]
	var kids []ninep.Dir
	if ok && e.children != nil {
		for _, c := range e.children {
			kids = append(kids, *c.ref)
		}
	}
	ns.mu.Unlock()
	if !ok {
		t.Err(ErrNoFile)
		return
	}
	if e.children != nil {
		ninep.ReadDir(t, kids)
		return
	}
	data, err := e.file.Read()
	if err != nil {
		t.Err(err)
	} else {
		ninep.ReadBuf(t, data)
	}
}

// Stat returns information for a filesytem entry.
func (ns *Namespace) Stat(t *ninep.Tstat, q *ninep.Qid) {
	ns.mu.Lock()
	e, ok := ns.dict[q.Path]
	ns.mu.Unlock()
	if !ok {
		t.Err(ErrNoFile)
	} else {
		t.Respond(e.ref)
	}
}
