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
	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/remote"
)

const rejectDraining = "draining"

// HandleEntityOp executes an operation forwarded by the node that received
// the client call. Handler errors travel inside the response so the transport
// can distinguish them from delivery failures.
func (engine *Engine) HandleEntityOp(ctx context.Context, request *remote.EntityRequest) (*remote.EntityResponse, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}

	id := entity.ID(request.EntityID)
	response := &remote.EntityResponse{EntityID: request.EntityID}

	var state *entity.Entity
	var err error
	switch request.Op {
	case remote.OpGet:
		state, err = engine.localGet(ctx, id)
	case remote.OpUpdate:
		state, err = engine.localUpdate(ctx, id, request.Value)
	case remote.OpDelete:
		err = engine.localDelete(ctx, id)
	case remote.OpPlace:
		err = engine.localPlace(ctx, id)
	default:
		err = errors.New("unknown entity operation")
	}

	if err != nil {
		response.Failed = remote.Failure(err)
		return response, nil
	}
	if state != nil {
		response.Value = state.Value
	}
	return response, nil
}

// HandleMigration ingests a migration batch: for every entity the node
// creates a fresh actor, restores the carried state and only then registers
// it, so no client-facing message can reach a replica before its state is in
// place. The ack reports acceptance per entity; re-delivered batches are
// acknowledged idempotently.
func (engine *Engine) HandleMigration(ctx context.Context, batch *remote.MigrationBatch) (*remote.MigrationAck, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}

	ack := &remote.MigrationAck{BatchID: batch.BatchID}

	if engine.State() != Active {
		ack.Rejected = make(map[uint64]string, len(batch.States))
		for _, snapshot := range batch.States {
			ack.Rejected[snapshot.EntityID] = rejectDraining
		}
		return ack, nil
	}

	rejected := make(map[uint64]string)
	var acceptedCount uint64
	for _, snapshot := range batch.States {
		id := entity.ID(snapshot.EntityID)

		replica := engine.newActor(id)
		if err := replica.RestoreState(ctx, snapshot.Entity()); err != nil {
			_ = replica.Terminate(ctx)
			rejected[snapshot.EntityID] = err.Error()
			continue
		}

		var duplicate bool
		if err := engine.execute(ctx, func() {
			if existing, ok := engine.registry[id]; ok && existing.IsRunning() {
				// the batch was re-delivered; keep the established actor
				duplicate = true
				return
			}
			engine.registry[id] = replica
		}); err != nil {
			_ = replica.Terminate(ctx)
			rejected[snapshot.EntityID] = err.Error()
			continue
		}
		if duplicate {
			_ = replica.Terminate(ctx)
		}

		ack.Accepted = append(ack.Accepted, snapshot.EntityID)
		acceptedCount++
	}

	if len(rejected) > 0 {
		ack.Rejected = rejected
	}
	if acceptedCount > 0 {
		_ = engine.execute(ctx, func() {
			engine.stats.EntitiesIn += acceptedCount
		})
	}

	engine.logger.Infof("node=(%s) received batch=(%s) from node=(%s): %d accepted, %d rejected",
		engine.nodeID, batch.BatchID, batch.Source, len(ack.Accepted), len(rejected))
	return ack, nil
}
