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
	"fmt"
	"sort"

	"github.com/flowchartsman/retry"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/goshard/actor"
	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/internal/chunk"
	"github.com/tochemey/goshard/remote"
)

// Leave drains the node and departs the cluster: every hosted entity is
// migrated to the remaining members (round-robin across batches) and only
// once every batch has committed does the node transition to Left and stop.
//
// With no other member to take the entities over, Leave fails with
// errors.ErrNoMigrationTarget and the node stays Active with all its entities
// intact. A failed or partially accepted batch likewise puts the node back to
// Active; the unmigrated entities keep being served locally.
func (engine *Engine) Leave(ctx context.Context) error {
	if !engine.started.Load() {
		return errors.ErrEngineNotStarted
	}
	if !engine.state.CompareAndSwap(int32(Active), int32(Draining)) {
		switch engine.State() {
		case Draining:
			return errors.ErrDraining
		default:
			return errors.ErrEngineStopped
		}
	}

	ctx, cancel := context.WithTimeout(ctx, engine.config.shutdownTimeout)
	defer cancel()
	engine.logger.Infof("node=(%s) draining", engine.nodeID)

	var targets []string
	var refs []*actor.EntityActor
	if err := engine.execute(ctx, func() {
		for _, member := range engine.members.ToSlice() {
			if member != engine.nodeID {
				targets = append(targets, member)
			}
		}
		sort.Strings(targets)
		for _, ref := range engine.registry {
			if ref.IsRunning() {
				refs = append(refs, ref)
			}
		}
	}); err != nil {
		engine.state.Store(int32(Active))
		return err
	}

	if len(targets) == 0 {
		engine.state.Store(int32(Active))
		engine.logger.Warnf("node=(%s) cannot drain: no peer left to take %d entities", engine.nodeID, len(refs))
		return errors.ErrNoMigrationTarget
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].ID() < refs[j].ID() })

	var failed error
	for index, batch := range chunk.Chunkify(refs, engine.config.batchSize) {
		target := targets[index%len(targets)]
		failed = multierr.Append(failed, engine.sendBatch(ctx, target, batch))
	}
	if failed != nil {
		engine.state.Store(int32(Active))
		engine.logger.Warnf("node=(%s) drain aborted, unmigrated entities stay local: %v", engine.nodeID, failed)
		return failed
	}

	engine.state.Store(int32(Left))
	engine.logger.Infof("node=(%s) drained, leaving the cluster", engine.nodeID)
	return engine.Stop(ctx)
}

// rebalance moves every locally hosted entity whose ring owner is no longer
// this node. Each node runs this independently on topology changes; there is
// no global coordinator.
func (engine *Engine) rebalance(ctx context.Context) error {
	plan := make(map[string][]*actor.EntityActor)
	if err := engine.execute(ctx, func() {
		currentRing := engine.ringRef.Load()
		if currentRing == nil {
			return
		}
		for id, ref := range engine.registry {
			if !ref.IsRunning() {
				continue
			}
			if owner := currentRing.Locate(id); owner != engine.nodeID {
				plan[owner] = append(plan[owner], ref)
			}
		}
	}); err != nil {
		return err
	}
	if len(plan) == 0 {
		return nil
	}

	eg, groupCtx := errgroup.WithContext(ctx)
	for target, refs := range plan {
		target, refs := target, refs
		eg.Go(func() error {
			return engine.migrateTo(groupCtx, target, refs)
		})
	}
	return eg.Wait()
}

// migrateTo moves the given entities to one target, one batch at a time.
func (engine *Engine) migrateTo(ctx context.Context, target string, refs []*actor.EntityActor) error {
	var failed error
	for _, batch := range chunk.Chunkify(refs, engine.config.batchSize) {
		failed = multierr.Append(failed, engine.sendBatch(ctx, target, batch))
	}
	return failed
}

// sendBatch runs the four-step migration protocol for one batch: extract,
// transfer, await the ack, commit. The local copies are only released after
// the target has confirmed every entity of the batch; anything less keeps the
// whole batch served locally and surfaces errors.ErrMigrationFailed.
func (engine *Engine) sendBatch(ctx context.Context, target string, refs []*actor.EntityActor) error {
	snapshots := make([]remote.Snapshot, 0, len(refs))
	ids := make([]entity.ID, 0, len(refs))
	for _, ref := range refs {
		state, err := ref.ExtractState(ctx)
		if err != nil {
			if errors.Is(err, errors.ErrDead) {
				continue
			}
			return err
		}
		// a nil state is a placed-but-never-updated entity; its registration
		// moves without materializing state on the target
		snapshots = append(snapshots, remote.CaptureSnapshot(ref.ID(), state))
		ids = append(ids, ref.ID())
	}
	if len(snapshots) == 0 {
		return nil
	}

	batch := &remote.MigrationBatch{
		BatchID: uuid.NewString(),
		Source:  engine.nodeID,
		Target:  target,
		States:  snapshots,
	}

	var ack *remote.MigrationAck
	retrier := retry.NewRetrier(engine.config.maxRetries, retryInitialDelay, engine.config.callTimeout)
	sendErr := retrier.RunContext(ctx, func(ctx context.Context) error {
		var err error
		ack, err = engine.transport.SendMigration(ctx, target, batch)
		return err
	})

	committed := sendErr == nil && ack.Complete(len(snapshots))

	var released []*actor.EntityActor
	commitCtx := context.WithoutCancel(ctx)
	if err := engine.execute(commitCtx, func() {
		engine.stats.BatchesSent++
		if !committed {
			engine.stats.BatchesFailed++
			return
		}
		for _, id := range ids {
			if ref, ok := engine.registry[id]; ok {
				delete(engine.registry, id)
				released = append(released, ref)
			}
		}
		engine.stats.EntitiesOut += uint64(len(released))
		engine.peerEntities[target] += len(released)
	}); err != nil {
		return err
	}

	engine.config.stream.Publish(TopicMigration, MigrationEvent{
		BatchID:   batch.BatchID,
		Target:    target,
		Entities:  len(ids),
		Committed: committed,
	})

	if !committed {
		if sendErr != nil {
			return fmt.Errorf("%w: batch=(%s) target=(%s): %v", errors.ErrMigrationFailed, batch.BatchID, target, sendErr)
		}
		return fmt.Errorf("%w: batch=(%s) target=(%s) accepted %d of %d entities",
			errors.ErrMigrationFailed, batch.BatchID, target, len(ack.Accepted), len(snapshots))
	}

	// release the local copies; the store entries travel with the entities
	for _, ref := range released {
		_ = ref.Terminate(commitCtx)
	}
	engine.logger.Infof("node=(%s) migrated %d entities to node=(%s) batch=(%s)", engine.nodeID, len(released), target, batch.BatchID)
	return nil
}
