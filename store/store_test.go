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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	bolt, err := NewBoltStore(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   bolt,
	}
}

func TestStore(t *testing.T) {
	ctx := context.TODO()

	for name, impl := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Cleanup(func() {
				require.NoError(t, impl.Close())
			})

			t.Run("With Load absent", func(t *testing.T) {
				_, err := impl.Load(ctx, 404)
				assert.ErrorIs(t, err, errors.ErrNotFound)
			})

			t.Run("With Save and Load", func(t *testing.T) {
				saved, err := impl.Save(ctx, entity.New(1, []byte("v1")))
				require.NoError(t, err)
				require.NotNil(t, saved)

				loaded, err := impl.Load(ctx, 1)
				require.NoError(t, err)
				assert.True(t, saved.Equal(loaded))
			})

			t.Run("With Save replace", func(t *testing.T) {
				_, err := impl.Save(ctx, entity.New(2, []byte("v1")))
				require.NoError(t, err)
				_, err = impl.Save(ctx, entity.New(2, []byte("v2")))
				require.NoError(t, err)

				loaded, err := impl.Load(ctx, 2)
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), loaded.Value)
			})

			t.Run("With Delete", func(t *testing.T) {
				_, err := impl.Save(ctx, entity.New(3, []byte("v1")))
				require.NoError(t, err)
				require.NoError(t, impl.Delete(ctx, 3))

				_, err = impl.Load(ctx, 3)
				assert.ErrorIs(t, err, errors.ErrNotFound)
			})

			t.Run("With Delete absent", func(t *testing.T) {
				assert.ErrorIs(t, impl.Delete(ctx, 404), errors.ErrNotFound)
			})
		})
	}
}

func TestBoltStoreClosed(t *testing.T) {
	bolt, err := NewBoltStore(filepath.Join(t.TempDir(), "entities.db"))
	require.NoError(t, err)
	require.NoError(t, bolt.Close())
	// closing twice is a no-op
	require.NoError(t, bolt.Close())

	_, err = bolt.Load(context.TODO(), 1)
	assert.Error(t, err)
}

func TestMemoryStoreLen(t *testing.T) {
	ctx := context.TODO()
	mem := NewMemoryStore()
	_, err := mem.Save(ctx, entity.New(1, []byte("v1")))
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len())
}
