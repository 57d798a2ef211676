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

package remote

import (
	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
)

// EntityOp enumerates the entity operations that can be forwarded to the
// owning node.
type EntityOp int

const (
	// OpGet reads the entity's current state.
	OpGet EntityOp = iota
	// OpUpdate creates or replaces the entity's state.
	OpUpdate
	// OpDelete removes the entity and stops its worker.
	OpDelete
	// OpPlace ensures the entity's worker exists on the owning node without
	// touching its state.
	OpPlace
)

// EntityRequest is a forwarded entity operation.
type EntityRequest struct {
	Op       EntityOp `cbor:"1,keyasint"`
	EntityID uint64   `cbor:"2,keyasint"`
	Value    []byte   `cbor:"3,keyasint,omitempty"`
}

// EntityResponse is the owning node's answer to a forwarded operation.
// Failed is a wire error code; see FailureOf for the sentinel mapping.
type EntityResponse struct {
	EntityID uint64 `cbor:"1,keyasint"`
	Value    []byte `cbor:"2,keyasint,omitempty"`
	Failed   string `cbor:"3,keyasint,omitempty"`
}

// Snapshot is an entity state captured for transfer. HasState distinguishes
// an entity that was placed but never updated from one holding an empty
// value: both travel, only the latter carries state.
type Snapshot struct {
	EntityID uint64 `cbor:"1,keyasint"`
	Value    []byte `cbor:"2,keyasint,omitempty"`
	HasState bool   `cbor:"3,keyasint,omitempty"`
}

// CaptureSnapshot converts an extracted entity state into its wire form. A
// nil state captures the bare registration of a placed entity.
func CaptureSnapshot(id entity.ID, state *entity.Entity) Snapshot {
	if state == nil {
		return Snapshot{EntityID: uint64(id)}
	}
	return Snapshot{EntityID: uint64(id), Value: state.Value, HasState: true}
}

// Entity rebuilds the entity carried by the snapshot, or nil when the
// snapshot moves a stateless registration.
func (snapshot Snapshot) Entity() *entity.Entity {
	if !snapshot.HasState {
		return nil
	}
	return entity.New(entity.ID(snapshot.EntityID), snapshot.Value)
}

// MigrationBatch carries a set of entity states from a source node to the
// target that now owns them on the ring.
type MigrationBatch struct {
	BatchID string     `cbor:"1,keyasint"`
	Source  string     `cbor:"2,keyasint"`
	Target  string     `cbor:"3,keyasint"`
	States  []Snapshot `cbor:"4,keyasint"`
}

// MigrationAck reports, per entity, whether the target accepted ownership.
// The source only releases its copies once every entity in the batch has been
// accepted.
type MigrationAck struct {
	BatchID  string            `cbor:"1,keyasint"`
	Accepted []uint64          `cbor:"2,keyasint,omitempty"`
	Rejected map[uint64]string `cbor:"3,keyasint,omitempty"`
}

// Complete reports whether every entity in the batch of the given size was
// accepted by the target.
func (ack *MigrationAck) Complete(batchSize int) bool {
	return len(ack.Rejected) == 0 && len(ack.Accepted) == batchSize
}

// wire error codes for EntityResponse.Failed
const (
	failureNotFound = "not-found"
	failureDraining = "draining"
	failureStopped  = "stopped"
	failureInternal = "internal"
)

// Failure translates a handler error into the wire code carried by
// EntityResponse.Failed.
func Failure(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errors.ErrNotFound):
		return failureNotFound
	case errors.Is(err, errors.ErrDraining):
		return failureDraining
	case errors.Is(err, errors.ErrEngineStopped), errors.Is(err, errors.ErrEngineNotStarted):
		return failureStopped
	default:
		return failureInternal + ": " + err.Error()
	}
}

// FailureOf translates a wire code back into the matching sentinel error,
// or nil when the response carries no failure.
func FailureOf(response *EntityResponse) error {
	switch response.Failed {
	case "":
		return nil
	case failureNotFound:
		return errors.ErrNotFound
	case failureDraining:
		return errors.ErrDraining
	case failureStopped:
		return errors.ErrEngineStopped
	default:
		return errors.New(response.Failed)
	}
}
