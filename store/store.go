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

// Package store defines the persistent entity store collaborator consulted by
// entity actors on creation and flush. The store is shared across all nodes
// and must itself provide cluster-wide concurrency control; the engine only
// serializes access per entity.
package store

import (
	"context"

	"github.com/tochemey/goshard/entity"
)

// Store is the entity store contract.
//
// Implementations must be safe for concurrent use: many entity actors across
// many nodes call into the same store. Cross-entity uniqueness constraints are
// the store's responsibility and surface as errors.ErrConflict.
type Store interface {
	// Load returns the persisted entity or errors.ErrNotFound.
	Load(ctx context.Context, id entity.ID) (*entity.Entity, error)
	// Save persists the entity, creating or replacing it. A uniqueness
	// violation surfaces as errors.ErrConflict.
	Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error)
	// Delete removes the persisted entity. Deleting an absent entity returns
	// errors.ErrNotFound.
	Delete(ctx context.Context, id entity.ID) error
	// Close releases the resources held by the store.
	Close() error
}
