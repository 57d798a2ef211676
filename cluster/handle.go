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

package cluster

import (
	"context"

	"github.com/tochemey/goshard/entity"
)

// Handle is a routing handle to a placed entity, local or remote. Operations
// go through the engine, so a handle stays valid across migrations: each call
// re-locates the entity's current owner.
type Handle struct {
	engine *Engine
	id     entity.ID
	owner  string
}

// ID returns the entity id the handle points at.
func (handle *Handle) ID() entity.ID {
	return handle.id
}

// Owner returns the node that owned the entity when the handle was created.
func (handle *Handle) Owner() string {
	return handle.owner
}

// Get returns the entity's current state.
func (handle *Handle) Get(ctx context.Context) (*entity.Entity, error) {
	return handle.engine.Get(ctx, handle.id)
}

// Update creates or replaces the entity's state.
func (handle *Handle) Update(ctx context.Context, value []byte) (*entity.Entity, error) {
	return handle.engine.Update(ctx, handle.id, value)
}

// Delete removes the entity.
func (handle *Handle) Delete(ctx context.Context) error {
	return handle.engine.Delete(ctx, handle.id)
}
