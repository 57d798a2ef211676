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

package store

import (
	"context"
	"fmt"
	"os"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"

	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
)

const (
	boltFileMode   os.FileMode = 0o600
	boltBucketName             = "entities"
)

var (
	boltTimeout        = 5 * time.Second
	defaultBoltOptions = &bbolt.Options{Timeout: boltTimeout, NoGrowSync: true}
)

// BoltStore implements Store using go.etcd.io/bbolt for durable persistence.
//
// bbolt provides single-writer/multi-reader semantics; only the close state is
// guarded here to prevent operations once the store is shut down. Entities are
// keyed by their big-endian id and packed into a dedicated bucket.
type BoltStore struct {
	db     *bbolt.DB
	bucket []byte
	closed *atomic.Bool
}

// enforce compilation error
var _ Store = (*BoltStore)(nil)

// NewBoltStore opens (or creates) a BoltDB-backed Store at the given path.
// The database is configured with a short open timeout to avoid blocking on
// locked files.
func NewBoltStore(path string) (*BoltStore, error) {
	optionsCopy := *defaultBoltOptions
	db, err := bbolt.Open(path, boltFileMode, &optionsCopy)
	if err != nil {
		return nil, fmt.Errorf("store: opening boltdb: %w", err)
	}

	bucket := []byte(boltBucketName)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(bucket)
		return e
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initializing boltdb bucket: %w", err)
	}

	return &BoltStore{db: db, bucket: bucket, closed: atomic.NewBool(false)}, nil
}

// Load returns the persisted entity or errors.ErrNotFound.
func (s *BoltStore) Load(ctx context.Context, id entity.ID) (*entity.Entity, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("store: bucket %q missing", s.bucket)
		}
		raw := bucket.Get(id.Key())
		if raw == nil {
			return errors.ErrNotFound
		}
		value = make([]byte, len(raw))
		copy(value, raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entity.New(id, value), nil
}

// Save persists the entity, creating or replacing it.
func (s *BoltStore) Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("store: bucket %q missing", s.bucket)
		}
		return bucket.Put(e.ID.Key(), e.Value)
	}); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// Delete removes the persisted entity.
func (s *BoltStore) Delete(ctx context.Context, id entity.ID) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		if bucket == nil {
			return fmt.Errorf("store: bucket %q missing", s.bucket)
		}
		if bucket.Get(id.Key()) == nil {
			return errors.ErrNotFound
		}
		return bucket.Delete(id.Key())
	})
}

// Close releases the underlying BoltDB handle.
func (s *BoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) ensureOpen(ctx context.Context) error {
	if s.closed.Load() {
		return errors.ErrEngineStopped
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
