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

// Package cluster implements the node supervisor: entity placement over a
// consistent hash ring, the per-node entity registry, rebalancing migrations
// on topology changes and graceful node departure.
package cluster

import (
	"context"
	"fmt"
	"sort"
	stdatomic "sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/flowchartsman/retry"
	uatomic "go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/goshard/actor"
	"github.com/tochemey/goshard/discovery"
	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/eventstream"
	"github.com/tochemey/goshard/log"
	"github.com/tochemey/goshard/remote"
	"github.com/tochemey/goshard/ring"
)

// Engine is the per-node cluster supervisor.
//
// One Engine runs per node. It owns the node's entity registry, its view of
// the membership and the hash ring derived from it. All registry and
// membership mutations are serialized through a single command loop; entity
// state itself lives in the entity actors and is never touched by the loop.
//
// The Engine is also the server side of the control plane: forwarded entity
// operations and inbound migration batches land on it through the transport.
type Engine struct {
	nodeID string
	addr   string
	config *Config
	logger log.Logger

	provider  discovery.Provider
	transport remote.Transport

	// commands serializes all registry/membership mutations
	commands   chan func()
	stopSignal chan struct{}
	loopDone   chan struct{}
	pumpDone   chan struct{}

	started *uatomic.Bool
	state   *uatomic.Int32
	ringRef stdatomic.Pointer[ring.Ring]

	// loop-owned state
	registry     map[entity.ID]*actor.EntityActor
	members      mapset.Set[string]
	peerEntities map[string]int
	stats        MigrationStats
}

// enforce compilation error
var _ remote.Service = (*Engine)(nil)

// NewEngine creates a cluster engine for the given node. The provider feeds
// membership, the transport carries node-to-node calls; neither is started
// until Start is called.
func NewEngine(nodeID, addr string, provider discovery.Provider, transport remote.Transport, opts ...Option) (*Engine, error) {
	if nodeID == "" {
		return nil, fmt.Errorf("%w: node id is required", errors.ErrInvalidConfig)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: discovery provider is required", errors.ErrInvalidConfig)
	}
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is required", errors.ErrInvalidConfig)
	}

	config := newConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		nodeID:       nodeID,
		addr:         addr,
		config:       config,
		logger:       config.logger,
		provider:     provider,
		transport:    transport,
		commands:     make(chan func()),
		stopSignal:   make(chan struct{}),
		loopDone:     make(chan struct{}),
		pumpDone:     make(chan struct{}),
		started:      uatomic.NewBool(false),
		state:        uatomic.NewInt32(int32(Active)),
		registry:     make(map[entity.ID]*actor.EntityActor),
		members:      mapset.NewSet[string](),
		peerEntities: make(map[string]int),
	}, nil
}

// NodeID returns the local node's identifier.
func (engine *Engine) NodeID() string {
	return engine.nodeID
}

// State returns the node's lifecycle state.
func (engine *Engine) State() NodeState {
	return NodeState(engine.state.Load())
}

// Events returns the broker the engine publishes lifecycle events on.
func (engine *Engine) Events() eventstream.Stream {
	return engine.config.stream
}

// Start joins the cluster: it registers with discovery and the transport,
// seeds the membership from the provider and starts the command loop.
func (engine *Engine) Start(ctx context.Context) error {
	if !engine.started.CompareAndSwap(false, true) {
		return errors.New("cluster engine already started")
	}

	if err := engine.provider.Initialize(); err != nil {
		engine.started.Store(false)
		return fmt.Errorf("initializing discovery: %w", err)
	}
	if err := engine.provider.Register(); err != nil {
		engine.started.Store(false)
		return fmt.Errorf("registering with discovery: %w", err)
	}

	peers, err := engine.provider.DiscoverPeers()
	if err != nil {
		engine.started.Store(false)
		return fmt.Errorf("discovering peers: %w", err)
	}

	if err := engine.transport.Register(engine.nodeID, engine.addr, engine); err != nil {
		engine.started.Store(false)
		return fmt.Errorf("registering transport: %w", err)
	}

	engine.members.Add(engine.nodeID)
	for _, peer := range peers {
		if peer.ID == engine.nodeID {
			continue
		}
		engine.members.Add(peer.ID)
		engine.peerEntities[peer.ID] = 0
		engine.transport.AddPeer(peer.ID, peer.Address)
	}
	engine.rebuildRing()

	go engine.commandLoop()
	go engine.eventPump()

	engine.logger.Infof("node=(%s) joined the cluster with %d member(s)", engine.nodeID, engine.members.Cardinality())
	return nil
}

// Stop shuts the engine down without draining: hosted entity actors are
// terminated in place. Use Leave for an orderly departure that migrates
// entities away first.
func (engine *Engine) Stop(ctx context.Context) error {
	if !engine.started.CompareAndSwap(true, false) {
		return nil
	}
	prior := NodeState(engine.state.Swap(int32(Left)))

	var refs []*actor.EntityActor
	_ = engine.execute(ctx, func() {
		for _, ref := range engine.registry {
			refs = append(refs, ref)
		}
		engine.registry = make(map[entity.ID]*actor.EntityActor)
	})

	// a node reaches Left through Leave only after every entity has been
	// migrated away; tearing down a populated registry from any other state
	// orphans the hosted entities
	if prior != Left && len(refs) > 0 {
		lost := make([]entity.ID, 0, len(refs))
		for _, ref := range refs {
			lost = append(lost, ref.ID())
		}
		sort.Slice(lost, func(i, j int) bool { return lost[i] < lost[j] })
		for _, id := range lost {
			engine.logger.Errorf("node=(%s) stopped without draining: entity=(%d) is lost", engine.nodeID, id)
		}
		engine.config.stream.Publish(TopicAnomaly, EntityLossEvent{NodeID: engine.nodeID, Entities: lost})
	}

	close(engine.stopSignal)
	<-engine.loopDone
	<-engine.pumpDone

	var err error
	for _, ref := range refs {
		err = multierr.Append(err, ref.Terminate(ctx))
	}

	engine.transport.Deregister(engine.nodeID)
	err = multierr.Append(err, engine.provider.Deregister())
	err = multierr.Append(err, engine.provider.Close())
	engine.config.stream.Close()

	engine.logger.Infof("node=(%s) engine stopped", engine.nodeID)
	return err
}

// PlaceActor resolves the entity's owning node and returns a routing handle.
// When the entity is owned locally its actor is created on the spot; when it
// is owned remotely the owner is asked to create it.
func (engine *Engine) PlaceActor(ctx context.Context, id entity.ID) (*Handle, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, engine.config.callTimeout)
	defer cancel()

	owner, err := engine.owner(id)
	if err != nil {
		return nil, err
	}

	if owner == engine.nodeID {
		if _, err := engine.resolve(ctx, id, true); err != nil {
			return nil, err
		}
		return &Handle{engine: engine, id: id, owner: owner}, nil
	}

	response, err := engine.forward(ctx, owner, &remote.EntityRequest{Op: remote.OpPlace, EntityID: uint64(id)})
	if err != nil {
		return nil, err
	}
	if err := remote.FailureOf(response); err != nil {
		return nil, err
	}
	return &Handle{engine: engine, id: id, owner: owner}, nil
}

// Get returns the entity's current state, transparently forwarding to the
// owning node when it is not hosted locally.
func (engine *Engine) Get(ctx context.Context, id entity.ID) (*entity.Entity, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, engine.config.callTimeout)
	defer cancel()

	owner, err := engine.owner(id)
	if err != nil {
		return nil, err
	}
	if owner == engine.nodeID {
		return engine.localGet(ctx, id)
	}

	response, err := engine.forward(ctx, owner, &remote.EntityRequest{Op: remote.OpGet, EntityID: uint64(id)})
	if err != nil {
		return nil, err
	}
	if err := remote.FailureOf(response); err != nil {
		return nil, err
	}
	return entity.New(id, response.Value), nil
}

// Update creates or replaces the entity's state on its owning node and
// returns the new state.
func (engine *Engine) Update(ctx context.Context, id entity.ID, value []byte) (*entity.Entity, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, engine.config.callTimeout)
	defer cancel()

	owner, err := engine.owner(id)
	if err != nil {
		return nil, err
	}
	if owner == engine.nodeID {
		return engine.localUpdate(ctx, id, value)
	}

	response, err := engine.forward(ctx, owner, &remote.EntityRequest{Op: remote.OpUpdate, EntityID: uint64(id), Value: value})
	if err != nil {
		return nil, err
	}
	if err := remote.FailureOf(response); err != nil {
		return nil, err
	}
	return entity.New(id, response.Value), nil
}

// Delete removes the entity from its owning node and terminates its actor.
func (engine *Engine) Delete(ctx context.Context, id entity.ID) error {
	if !engine.started.Load() {
		return errors.ErrEngineNotStarted
	}
	ctx, cancel := context.WithTimeout(ctx, engine.config.callTimeout)
	defer cancel()

	owner, err := engine.owner(id)
	if err != nil {
		return err
	}
	if owner == engine.nodeID {
		return engine.localDelete(ctx, id)
	}

	response, err := engine.forward(ctx, owner, &remote.EntityRequest{Op: remote.OpDelete, EntityID: uint64(id)})
	if err != nil {
		return err
	}
	return remote.FailureOf(response)
}

// Status returns a point-in-time snapshot of the local node. It is computed
// from local state only and never blocks on remote nodes.
func (engine *Engine) Status(ctx context.Context) (*Status, error) {
	if !engine.started.Load() {
		return nil, errors.ErrEngineNotStarted
	}

	status := &Status{NodeID: engine.nodeID, State: engine.State()}
	err := engine.execute(ctx, func() {
		members := engine.members.ToSlice()
		sort.Strings(members)
		status.Members = members
		status.HostedEntities = len(engine.registry)
		counts := make(map[string]int, len(members))
		for _, member := range members {
			if member == engine.nodeID {
				counts[member] = len(engine.registry)
				continue
			}
			counts[member] = engine.peerEntities[member]
		}
		status.Entities = counts
		status.Migration = engine.stats
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// owner locates the node owning the entity on the current ring.
func (engine *Engine) owner(id entity.ID) (string, error) {
	currentRing := engine.ringRef.Load()
	if currentRing == nil {
		return "", errors.ErrEngineNotStarted
	}
	return currentRing.Locate(id), nil
}

// forward sends an entity operation to the owning node with a bounded retry;
// exhausted retries surface as errors.ErrNodeUnreachable from the transport.
func (engine *Engine) forward(ctx context.Context, owner string, request *remote.EntityRequest) (*remote.EntityResponse, error) {
	var response *remote.EntityResponse
	retrier := retry.NewRetrier(engine.config.maxRetries, retryInitialDelay, engine.config.callTimeout)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		var sendErr error
		response, sendErr = engine.transport.SendEntityOp(ctx, owner, request)
		return sendErr
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// localGet serves a Get for a locally owned entity. With a store attached the
// actor is created lazily so it can recover a persisted copy.
func (engine *Engine) localGet(ctx context.Context, id entity.ID) (*entity.Entity, error) {
	for attempt := 0; attempt <= engine.config.maxRetries; attempt++ {
		ref, err := engine.resolve(ctx, id, engine.config.store != nil)
		if err != nil {
			if errors.Is(err, errors.ErrDraining) {
				return nil, errors.ErrNotFound
			}
			return nil, err
		}
		if ref == nil {
			return nil, errors.ErrNotFound
		}

		state, err := ref.Get(ctx)
		if errors.Is(err, errors.ErrDead) {
			// lost a race against passivation or a migration commit
			continue
		}
		return state, err
	}
	return nil, errors.ErrDead
}

func (engine *Engine) localUpdate(ctx context.Context, id entity.ID, value []byte) (*entity.Entity, error) {
	for attempt := 0; attempt <= engine.config.maxRetries; attempt++ {
		ref, err := engine.resolve(ctx, id, true)
		if err != nil {
			return nil, err
		}

		state, err := ref.Update(ctx, value)
		if errors.Is(err, errors.ErrDead) {
			continue
		}
		return state, err
	}
	return nil, errors.ErrDead
}

func (engine *Engine) localDelete(ctx context.Context, id entity.ID) error {
	for attempt := 0; attempt <= engine.config.maxRetries; attempt++ {
		ref, err := engine.resolve(ctx, id, false)
		if err != nil {
			return err
		}
		if ref == nil {
			// nothing in memory; a persisted copy may still exist
			if engine.config.store != nil {
				return engine.config.store.Delete(ctx, id)
			}
			return errors.ErrNotFound
		}

		if err := ref.Delete(ctx); err != nil {
			if errors.Is(err, errors.ErrDead) {
				continue
			}
			return err
		}
		engine.reap(id)
		return nil
	}
	return errors.ErrDead
}

// localPlace ensures the entity's actor exists locally.
func (engine *Engine) localPlace(ctx context.Context, id entity.ID) error {
	_, err := engine.resolve(ctx, id, true)
	return err
}

// resolve returns the live actor for the entity, spawning one when create is
// set. Spawning is refused while the node is not Active.
func (engine *Engine) resolve(ctx context.Context, id entity.ID, create bool) (*actor.EntityActor, error) {
	var ref *actor.EntityActor
	var refused error
	err := engine.execute(ctx, func() {
		if existing, ok := engine.registry[id]; ok && existing.IsRunning() {
			ref = existing
			return
		}
		if !create {
			return
		}
		if NodeState(engine.state.Load()) != Active {
			refused = errors.ErrDraining
			return
		}
		ref = engine.spawnEntity(id)
	})
	if err != nil {
		return nil, err
	}
	return ref, refused
}

// spawnEntity creates and registers a new entity actor. Loop-owned.
func (engine *Engine) spawnEntity(id entity.ID) *actor.EntityActor {
	ref := engine.newActor(id)
	engine.registry[id] = ref
	return ref
}

// newActor builds an entity actor from the engine configuration without
// registering it.
func (engine *Engine) newActor(id entity.ID) *actor.EntityActor {
	opts := []actor.Option{actor.WithLogger(engine.logger)}
	if engine.config.store != nil {
		opts = append(opts, actor.WithStore(engine.config.store))
	}
	if engine.config.passivateAfter > 0 {
		opts = append(opts,
			actor.WithPassivateAfter(engine.config.passivateAfter),
			actor.WithOnPassivate(engine.reap))
	}
	return actor.Spawn(id, opts...)
}

// reap asynchronously removes a dead actor from the registry.
func (engine *Engine) reap(id entity.ID) {
	select {
	case engine.commands <- func() {
		if current, ok := engine.registry[id]; ok && !current.IsRunning() {
			delete(engine.registry, id)
		}
	}:
	case <-engine.loopDone:
	}
}

// execute runs fn on the command loop and waits for it to complete.
func (engine *Engine) execute(ctx context.Context, fn func()) error {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}

	select {
	case engine.commands <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-engine.loopDone:
		return errors.ErrEngineStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-engine.loopDone:
		select {
		case <-done:
			return nil
		default:
			return errors.ErrEngineStopped
		}
	}
}

// commandLoop serializes every registry and membership mutation.
func (engine *Engine) commandLoop() {
	defer close(engine.loopDone)
	for {
		select {
		case fn := <-engine.commands:
			fn()
		case <-engine.stopSignal:
			return
		}
	}
}

// eventPump consumes membership events from the discovery provider and turns
// them into ring updates and rebalances.
func (engine *Engine) eventPump() {
	defer close(engine.pumpDone)
	for {
		select {
		case event, ok := <-engine.provider.Events():
			if !ok {
				return
			}
			engine.handleTopologyEvent(event)
		case <-engine.loopDone:
			return
		}
	}
}

func (engine *Engine) handleTopologyEvent(event discovery.Event) {
	if event.Node.ID == engine.nodeID {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), engine.config.shutdownTimeout)
	defer cancel()

	switch event.Type {
	case discovery.NodeJoined:
		engine.transport.AddPeer(event.Node.ID, event.Node.Address)
		if err := engine.execute(ctx, func() {
			engine.members.Add(event.Node.ID)
			if _, ok := engine.peerEntities[event.Node.ID]; !ok {
				engine.peerEntities[event.Node.ID] = 0
			}
			engine.rebuildRing()
		}); err != nil {
			return
		}
		engine.logger.Infof("node=(%s) sees node=(%s) joining", engine.nodeID, event.Node.ID)
	case discovery.NodeLeft:
		if err := engine.execute(ctx, func() {
			engine.members.Remove(event.Node.ID)
			delete(engine.peerEntities, event.Node.ID)
			engine.rebuildRing()
		}); err != nil {
			return
		}
		engine.transport.RemovePeer(event.Node.ID)
		engine.logger.Infof("node=(%s) sees node=(%s) leaving", engine.nodeID, event.Node.ID)
	default:
		return
	}

	engine.config.stream.Publish(TopicTopology, event)

	if err := engine.rebalance(ctx); err != nil {
		// the unmigrated entities stay local and keep being served
		engine.logger.Warnf("node=(%s) rebalance incomplete: %v", engine.nodeID, err)
	}
}

// rebuildRing recomputes the hash ring from the current membership.
// Loop-owned after Start.
func (engine *Engine) rebuildRing() {
	nodes := engine.members.ToSlice()
	if len(nodes) == 0 {
		return
	}
	newRing, err := ring.New(engine.config.ringSize, nodes, ring.WithHasher(engine.config.hasher))
	if err != nil {
		engine.logger.Errorf("node=(%s) rebuilding ring: %v", engine.nodeID, err)
		return
	}
	engine.ringRef.Store(newRing)
}
