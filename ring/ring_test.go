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

package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/goshard/entity"
)

func TestNew(t *testing.T) {
	t.Run("With invalid size", func(t *testing.T) {
		r, err := New(0, []string{"node-1"})
		require.Nil(t, r)
		assert.ErrorIs(t, err, ErrInvalidSize)
	})
	t.Run("With no nodes", func(t *testing.T) {
		r, err := New(256, nil)
		require.Nil(t, r)
		assert.ErrorIs(t, err, ErrNoNodes)
	})
	t.Run("With single node", func(t *testing.T) {
		r, err := New(256, []string{"node-1"})
		require.NoError(t, err)
		assert.Equal(t, uint64(256), r.Size())
		assert.Equal(t, []string{"node-1"}, r.Nodes())
		// a lone node owns every position
		assert.Equal(t, "node-1", r.Locate(42))
	})
	t.Run("With more nodes than positions", func(t *testing.T) {
		nodes := []string{"a", "b", "c", "d"}
		r, err := New(2, nodes)
		require.NoError(t, err)
		require.Positive(t, r.PositionCount())
	})
}

func TestLocateDeterminism(t *testing.T) {
	nodes := []string{"node-2", "node-1", "node-3"}

	first, err := New(1024, nodes)
	require.NoError(t, err)
	second, err := New(1024, nodes)
	require.NoError(t, err)

	for id := entity.ID(0); id < 1000; id++ {
		assert.Equal(t, first.Locate(id), second.Locate(id))
	}
}

func TestLocateCoverage(t *testing.T) {
	nodes := []string{"node-1", "node-2", "node-3", "node-4"}
	r, err := New(512, nodes)
	require.NoError(t, err)

	members := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		members[node] = true
	}

	// every id lands on a cluster member
	hits := make(map[string]int)
	for id := entity.ID(0); id < 10_000; id++ {
		owner := r.Locate(id)
		require.True(t, members[owner], "entity %d placed on unknown node %s", id, owner)
		hits[owner]++
	}

	// with enough samples every node owns some share
	for _, node := range nodes {
		assert.Positive(t, hits[node], "node %s received no entities", node)
	}
}

func TestLocateAfterTopologyChange(t *testing.T) {
	// one node: everything placed on it
	single, err := New(256, []string{"node-a"})
	require.NoError(t, err)
	require.Equal(t, "node-a", single.Locate(42))

	// adding a second node may move the id, but placement stays deterministic
	double, err := New(256, []string{"node-a", "node-b"})
	require.NoError(t, err)
	owner := double.Locate(42)
	assert.Contains(t, []string{"node-a", "node-b"}, owner)

	again, err := New(256, []string{"node-b", "node-a"})
	require.NoError(t, err)
	assert.Equal(t, owner, again.Locate(42))
}

func TestNodeOrderIndependence(t *testing.T) {
	// construction sorts the membership list, so input order is irrelevant
	first, err := New(512, []string{"c", "a", "b"})
	require.NoError(t, err)
	second, err := New(512, []string{"b", "c", "a"})
	require.NoError(t, err)

	for id := entity.ID(0); id < 2000; id++ {
		assert.Equal(t, first.Locate(id), second.Locate(id))
	}
}
