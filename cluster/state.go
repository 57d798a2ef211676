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

import "github.com/tochemey/goshard/entity"

// Event stream topics published by the engine.
const (
	// TopicTopology carries discovery.Event values whenever the membership
	// changes.
	TopicTopology = "cluster.topology"
	// TopicMigration carries MigrationEvent values whenever a migration batch
	// completes or fails.
	TopicMigration = "cluster.migration"
	// TopicAnomaly carries EntityLossEvent values when hosted entities are
	// dropped without having been migrated away.
	TopicAnomaly = "cluster.anomaly"
)

// NodeState is the lifecycle state of the local node.
type NodeState int32

const (
	// Active means the node hosts entities and accepts placements.
	Active NodeState = iota
	// Draining means the node is migrating its entities away and refuses new
	// local placements.
	Draining
	// Left means the node has departed the cluster.
	Left
)

// String returns the human-readable name of the state.
func (state NodeState) String() string {
	switch state {
	case Active:
		return "Active"
	case Draining:
		return "Draining"
	case Left:
		return "Left"
	default:
		return "Unknown"
	}
}

// MigrationStats counts the migration traffic seen by the local node.
type MigrationStats struct {
	// EntitiesOut is the number of entities successfully migrated away.
	EntitiesOut uint64
	// EntitiesIn is the number of entities received from other nodes.
	EntitiesIn uint64
	// BatchesSent is the number of migration batches sent, successful or not.
	BatchesSent uint64
	// BatchesFailed is the number of batches that failed or were only
	// partially accepted by their target.
	BatchesFailed uint64
}

// Status is a point-in-time snapshot of the local node. It is computed from
// local state only and never blocks on remote nodes.
type Status struct {
	// NodeID is the local node's identifier.
	NodeID string
	// State is the node's lifecycle state.
	State NodeState
	// Members lists the active cluster members, the local node included,
	// in lexical order.
	Members []string
	// HostedEntities is the number of entity actors currently registered on
	// this node.
	HostedEntities int
	// Entities is the locally known entity count per member: exact for the
	// local node, learned from committed migration batches for peers and zero
	// for peers this node has never migrated to. Eventually consistent.
	Entities map[string]int
	// Migration holds the node's migration counters.
	Migration MigrationStats
}

// EntityLossEvent is published on TopicAnomaly when a node stops while still
// hosting entities that were never migrated away. The loss is irrecoverable
// unless a durable store holds their state.
type EntityLossEvent struct {
	// NodeID is the node that dropped the entities.
	NodeID string
	// Entities lists the lost entity ids in ascending order.
	Entities []entity.ID
}

// MigrationEvent is published on TopicMigration for every finished batch.
type MigrationEvent struct {
	// BatchID identifies the batch.
	BatchID string
	// Target is the node the batch was sent to.
	Target string
	// Entities is the number of entities in the batch.
	Entities int
	// Committed reports whether the batch was accepted in full and the local
	// copies released.
	Committed bool
}
