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

// Package ring implements the consistent-hash ring that maps entity ids to
// the node responsible for them. A Ring is an immutable pure function of the
// membership list: it is never migrated or copied between nodes, only
// recomputed whenever membership changes.
package ring

import (
	"errors"
	"sort"
	"strconv"

	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/hash"
)

// DefaultSize is the ring size used when none is configured.
const DefaultSize uint64 = 256

var (
	// ErrNoNodes is returned when a ring is built without any node.
	ErrNoNodes = errors.New("ring: no nodes available")
	// ErrInvalidSize is returned when the ring size is zero.
	ErrInvalidSize = errors.New("ring: size must be positive")
)

// Ring is an ordered mapping from ring positions in [0, size) to node ids.
// Values are immutable after construction, so Locate needs no locking and is
// safe for concurrent use.
type Ring struct {
	size      uint64
	hasher    hash.Hasher
	nodes     []string
	positions []uint64          // sorted ascending
	owners    map[uint64]string // position -> node id
}

// Option alters the construction of a Ring.
type Option func(*Ring)

// WithHasher sets a custom hasher. The same hasher must be used by every node
// of the cluster, otherwise placement diverges.
func WithHasher(hasher hash.Hasher) Option {
	return func(r *Ring) {
		r.hasher = hasher
	}
}

// New builds a ring of the given size over the given node ids.
//
// Each node receives floor(size/len(nodes)) virtual positions, at least one,
// derived from hash(nodeID, virtualIndex) mod size. Nodes are walked in sorted
// order so the construction is deterministic; when two virtual positions
// collide the last writer wins, which skews ownership slightly for small
// clusters and is accepted rather than corrected.
func New(size uint64, nodes []string, opts ...Option) (*Ring, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}

	ring := &Ring{
		size:   size,
		hasher: hash.DefaultHasher(),
		owners: make(map[uint64]string),
	}

	for _, opt := range opts {
		opt(ring)
	}

	ring.nodes = make([]string, len(nodes))
	copy(ring.nodes, nodes)
	sort.Strings(ring.nodes)

	virtualCount := size / uint64(len(nodes))
	if virtualCount == 0 {
		virtualCount = 1
	}

	for _, node := range ring.nodes {
		for index := uint64(0); index < virtualCount; index++ {
			position := ring.hasher.HashCode(virtualKey(node, index)) % size
			ring.owners[position] = node
		}
	}

	ring.positions = make([]uint64, 0, len(ring.owners))
	for position := range ring.owners {
		ring.positions = append(ring.positions, position)
	}
	sort.Slice(ring.positions, func(i, j int) bool { return ring.positions[i] < ring.positions[j] })

	return ring, nil
}

// Locate returns the node id responsible for the given entity id.
//
// The entity hashes to a value in [0, size); the owner is the smallest ring
// position greater than or equal to that value, wrapping to the smallest
// position when none is. A position exactly equal to the hashed value owns it.
func (r *Ring) Locate(id entity.ID) string {
	value := r.hasher.HashCode(id.Key()) % r.size

	index := sort.Search(len(r.positions), func(i int) bool {
		return r.positions[i] >= value
	})
	if index == len(r.positions) {
		index = 0
	}
	return r.owners[r.positions[index]]
}

// Size returns the ring size.
func (r *Ring) Size() uint64 {
	return r.size
}

// Nodes returns the sorted node ids the ring was built from.
func (r *Ring) Nodes() []string {
	nodes := make([]string, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// PositionCount returns the number of distinct ring positions. It is lower
// than nodes*virtualCount when virtual positions collide.
func (r *Ring) PositionCount() int {
	return len(r.positions)
}

func virtualKey(node string, index uint64) []byte {
	return []byte(node + "/" + strconv.FormatUint(index, 10))
}
