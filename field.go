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

import "image/color"

// FieldColors for a selectable field
type FieldColors struct {
	Outline color.RGBA
	Fill    color.RGBA
	Text    color.RGBA
	Select  color.RGBA
}

// SelectableField is a touchable box showing (and editing) one credential
// value. The value itself is owned by a Credentials instance.
type SelectableField struct {
	edge

	ID       FieldID
	rect     Rect
	colors   FieldColors
	textSize uint8
	selected bool
}

// Init configures the field. Selection and edge state are reset.
func (f *SelectableField) Init(id FieldID, r Rect, colors FieldColors, textSize uint8) {
	f.ID = id
	f.rect = r
	f.colors = colors
	f.textSize = textSize
	f.selected = false
	f.edge = edge{}
}

// Rect returns the field area.
func (f *SelectableField) Rect() Rect { return f.rect }

// Contains tests if a point is inside the field.
func (f *SelectableField) Contains(px, py int) bool {
	return f.rect.Contains(px, py)
}

// IsSelected returns true if the field receives keyboard input.
func (f *SelectableField) IsSelected() bool { return f.selected }

// Draw the field with the current value from creds.
func (f *SelectableField) Draw(s Surface, creds *Credentials) {
	s.FillRect(f.rect, f.colors.Fill)
	outline := f.colors.Outline
	if f.selected {
		outline = f.colors.Select
	}
	s.DrawRect(f.rect, outline)
	cx, cy := f.rect.Center()
	s.DrawCentered(creds.Get(f.ID), cx, cy, f.textSize, f.colors.Text, f.colors.Fill)
}

//----------------------------------------------------------------------

// FieldSet is a group of fields on one screen with at most one field
// selected at any time.
type FieldSet struct {
	fields []*SelectableField
}

// NewFieldSet groups the given fields.
func NewFieldSet(fields ...*SelectableField) *FieldSet {
	return &FieldSet{fields: fields}
}

// Fields in the set
func (fs *FieldSet) Fields() []*SelectableField {
	return fs.fields
}

// Selected returns the selected field (or nil).
func (fs *FieldSet) Selected() *SelectableField {
	for _, f := range fs.fields {
		if f.selected {
			return f
		}
	}
	return nil
}

// Select a field by identifier. A previously selected field is deselected
// and redrawn before the new one is activated.
func (fs *FieldSet) Select(id FieldID, s Surface, creds *Credentials) {
	for _, f := range fs.fields {
		if f.selected && f.ID != id {
			f.selected = false
			f.Draw(s, creds)
		}
	}
	for _, f := range fs.fields {
		if f.ID == id && !f.selected {
			f.selected = true
			f.Draw(s, creds)
		}
	}
}

// Toggle selection of a field: a selected field is deselected, otherwise
// it becomes the (only) selected field.
func (fs *FieldSet) Toggle(f *SelectableField, s Surface, creds *Credentials) {
	if f.selected {
		f.selected = false
		f.Draw(s, creds)
		return
	}
	fs.Select(f.ID, s, creds)
}

// Scan feeds the touch sample to all fields and toggles the selection of
// a field that was just pressed. Returns the toggled field (or nil).
func (fs *FieldSet) Scan(smp Sample, s Surface, creds *Credentials) (hit *SelectableField) {
	for _, f := range fs.fields {
		f.Press(smp.Touched && f.Contains(int(smp.X), int(smp.Y)))
	}
	for _, f := range fs.fields {
		if f.JustPressed() && hit == nil {
			hit = f
		}
	}
	if hit != nil {
		fs.Toggle(hit, s, creds)
	}
	return
}

// Draw all fields.
func (fs *FieldSet) Draw(s Surface, creds *Credentials) {
	for _, f := range fs.fields {
		f.Draw(s, creds)
	}
}
