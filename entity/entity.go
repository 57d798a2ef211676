// MIT License
//
// Copyright (c) 2024-2026 GoShard Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package entity defines the value object owned by an entity actor. The
// engine is agnostic to what the value means; business validation lives with
// the caller.
package entity

import (
	"bytes"
	"encoding/binary"
)

// ID identifies one logical entity. IDs are totally ordered and hashable;
// placement derives from the hash of the ID alone.
type ID uint64

// Key returns the big-endian byte representation of the ID. It is used both
// as the hashing key for ring placement and as the storage key of the entity
// store collaborators.
func (id ID) Key() []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// IDFromKey decodes an ID previously encoded with Key.
func IDFromKey(key []byte) ID {
	return ID(binary.BigEndian.Uint64(key))
}

// Entity is the authoritative value of one entity id. Exactly one copy exists
// cluster-wide at any instant, except during the bounded migration window.
type Entity struct {
	// ID is the entity identifier.
	ID ID
	// Value is the opaque payload owned by the entity actor.
	Value []byte
}

// New creates an entity with the given id and value.
func New(id ID, value []byte) *Entity {
	return &Entity{ID: id, Value: value}
}

// Clone returns a deep copy of the entity. Actors hand out clones so that no
// caller ever aliases the actor's internal state.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	value := make([]byte, len(e.Value))
	copy(value, e.Value)
	return &Entity{ID: e.ID, Value: value}
}

// Equal reports whether both entities carry the same id and value.
func (e *Entity) Equal(other *Entity) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.ID == other.ID && bytes.Equal(e.Value, other.Value)
}
