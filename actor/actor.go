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

// Package actor implements the per-entity worker runtime.
//
// Every entity is owned by exactly one EntityActor: a dedicated goroutine
// draining an MPSC mailbox. All reads and writes of the entity's state happen
// on that goroutine, so callers get per-entity serialization and FIFO ordering
// without locks around the state itself.
package actor

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/log"
	"github.com/tochemey/goshard/store"
)

// EntityActor hosts a single entity's state behind a mailbox.
//
// Operations are submitted as messages and processed one at a time by the
// actor's consumer goroutine in arrival order. Once the actor has terminated
// (Delete, Terminate or idle passivation) every subsequent operation fails
// with errors.ErrDead; the registry owner is expected to spawn a fresh actor.
type EntityActor struct {
	id      entity.ID
	mailbox Mailbox
	// signal wakes the consumer goroutine after an enqueue; capacity one is
	// enough because the consumer always drains the mailbox fully
	signal  chan struct{}
	stopped chan struct{}
	running *atomic.Bool

	// state is owned exclusively by the consumer goroutine
	state *entity.Entity

	persistence    store.Store
	logger         log.Logger
	passivateAfter time.Duration
	onPassivate    func(id entity.ID)
}

// Option configures an EntityActor at spawn time.
type Option func(actor *EntityActor)

// WithMailbox replaces the default unbounded mailbox.
func WithMailbox(mailbox Mailbox) Option {
	return func(actor *EntityActor) {
		actor.mailbox = mailbox
	}
}

// WithStore attaches a persistence layer. Updates are written through to the
// store and Delete removes the stored copy before the actor terminates.
func WithStore(persistence store.Store) Option {
	return func(actor *EntityActor) {
		actor.persistence = persistence
	}
}

// WithPassivateAfter makes the actor stop itself after the given idle period.
// A non-positive duration disables passivation, which is the default.
func WithPassivateAfter(after time.Duration) Option {
	return func(actor *EntityActor) {
		actor.passivateAfter = after
	}
}

// WithLogger sets the logger used by the actor runtime.
func WithLogger(logger log.Logger) Option {
	return func(actor *EntityActor) {
		actor.logger = logger
	}
}

// WithOnPassivate registers a callback invoked (from the actor's own
// goroutine) after an idle passivation, so the registry can drop its handle.
func WithOnPassivate(hook func(id entity.ID)) Option {
	return func(actor *EntityActor) {
		actor.onPassivate = hook
	}
}

// Spawn creates the actor and starts its consumer goroutine.
func Spawn(id entity.ID, opts ...Option) *EntityActor {
	actor := &EntityActor{
		id:      id,
		signal:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
		running: atomic.NewBool(true),
		logger:  log.DiscardLogger,
	}

	for _, opt := range opts {
		opt(actor)
	}

	if actor.mailbox == nil {
		actor.mailbox = NewUnboundedMailbox()
	}

	go actor.receiveLoop()
	actor.logger.Debugf("entity=(%d) actor spawned", id)
	return actor
}

// ID returns the entity id this actor hosts.
func (actor *EntityActor) ID() entity.ID {
	return actor.id
}

// IsRunning reports whether the actor still accepts operations.
func (actor *EntityActor) IsRunning() bool {
	return actor.running.Load()
}

// Done is closed once the actor has fully terminated.
func (actor *EntityActor) Done() <-chan struct{} {
	return actor.stopped
}

// Get returns a copy of the entity's current state. It fails with
// errors.ErrNotFound when the entity has no state yet.
func (actor *EntityActor) Get(ctx context.Context) (*entity.Entity, error) {
	resp, err := actor.ask(newMessage(ctx, opGet))
	if err != nil {
		return nil, err
	}
	return resp.entity, resp.err
}

// Update sets the entity's state to the given value, creating the entity when
// it does not exist yet, and returns a copy of the new state.
func (actor *EntityActor) Update(ctx context.Context, value []byte) (*entity.Entity, error) {
	msg := newMessage(ctx, opUpdate)
	msg.value = value
	resp, err := actor.ask(msg)
	if err != nil {
		return nil, err
	}
	return resp.entity, resp.err
}

// Delete removes the entity (including its persisted copy when a store is
// attached) and terminates the actor.
func (actor *EntityActor) Delete(ctx context.Context) error {
	resp, err := actor.ask(newMessage(ctx, opDelete))
	if err != nil {
		return err
	}
	return resp.err
}

// ExtractState returns a copy of the entity's current state without stopping
// the actor. A (nil, nil) result means the entity holds no state.
func (actor *EntityActor) ExtractState(ctx context.Context) (*entity.Entity, error) {
	resp, err := actor.ask(newMessage(ctx, opExtract))
	if err != nil {
		return nil, err
	}
	return resp.entity, resp.err
}

// RestoreState seeds the actor with a previously extracted state. The call is
// idempotent: once the actor holds state, further restores are no-ops, which
// makes migration retries safe.
func (actor *EntityActor) RestoreState(ctx context.Context, snapshot *entity.Entity) error {
	msg := newMessage(ctx, opRestore)
	msg.restore = snapshot
	resp, err := actor.ask(msg)
	if err != nil {
		return err
	}
	return resp.err
}

// Terminate stops the actor without touching the attached store. The
// migration path relies on this: the persisted copy moves with the entity,
// only the in-memory worker is torn down.
func (actor *EntityActor) Terminate(ctx context.Context) error {
	resp, err := actor.ask(newMessage(ctx, opTerminate))
	if err != nil {
		if errors.Is(err, errors.ErrDead) {
			// already stopped
			return nil
		}
		return err
	}
	return resp.err
}

// ask enqueues the message and waits for the consumer's reply.
func (actor *EntityActor) ask(msg *Message) (response, error) {
	if !actor.running.Load() {
		return response{}, errors.ErrDead
	}

	if err := actor.mailbox.Enqueue(msg); err != nil {
		return response{}, err
	}
	actor.wakeup()

	select {
	case resp := <-msg.replyTo:
		return resp, nil
	case <-msg.ctx.Done():
		return response{}, msg.ctx.Err()
	case <-actor.stopped:
		// the consumer may have replied right before stopping
		select {
		case resp := <-msg.replyTo:
			return resp, nil
		default:
			return response{}, errors.ErrDead
		}
	}
}

func (actor *EntityActor) wakeup() {
	select {
	case actor.signal <- struct{}{}:
	default:
	}
}

// receiveLoop is the consumer goroutine. It drains the mailbox, parks on the
// wakeup signal when empty and passivates after the configured idle period.
func (actor *EntityActor) receiveLoop() {
	var idle *time.Timer
	var idleC <-chan time.Time
	if actor.passivateAfter > 0 {
		idle = time.NewTimer(actor.passivateAfter)
		idleC = idle.C
		defer idle.Stop()
	}

	for {
		for {
			msg := actor.mailbox.Dequeue()
			if msg == nil {
				break
			}
			if terminal := actor.handle(msg); terminal {
				actor.shutdown()
				return
			}
			if idle != nil {
				if !idle.Stop() {
					select {
					case <-idle.C:
					default:
					}
				}
				idle.Reset(actor.passivateAfter)
			}
		}

		select {
		case <-actor.signal:
		case <-idleC:
			if actor.mailbox.IsEmpty() {
				actor.passivate()
				return
			}
			idle.Reset(actor.passivateAfter)
		}
	}
}

// handle processes a single message on the consumer goroutine and reports
// whether the actor must terminate afterwards.
func (actor *EntityActor) handle(msg *Message) bool {
	switch msg.kind {
	case opGet:
		msg.replyTo <- actor.handleGet(msg.ctx)
	case opUpdate:
		msg.replyTo <- actor.handleUpdate(msg.ctx, msg.value)
	case opDelete:
		resp := actor.handleDelete(msg.ctx)
		msg.replyTo <- resp
		return resp.err == nil
	case opExtract:
		msg.replyTo <- response{entity: actor.state.Clone()}
	case opRestore:
		if actor.state == nil {
			actor.state = msg.restore.Clone()
		}
		msg.replyTo <- response{}
	case opTerminate:
		msg.replyTo <- response{}
		return true
	default:
		msg.replyTo <- response{err: errors.ErrInvalidConfig}
	}
	return false
}

func (actor *EntityActor) handleGet(ctx context.Context) response {
	if actor.state == nil {
		// recover a persisted copy if one exists, e.g. after passivation
		if actor.persistence != nil {
			recovered, err := actor.persistence.Load(ctx, actor.id)
			if err == nil {
				actor.state = recovered
				return response{entity: recovered.Clone()}
			}
			if !errors.Is(err, errors.ErrNotFound) {
				return response{err: err}
			}
		}
		return response{err: errors.ErrNotFound}
	}
	return response{entity: actor.state.Clone()}
}

func (actor *EntityActor) handleUpdate(ctx context.Context, value []byte) response {
	next := entity.New(actor.id, value)
	if actor.persistence != nil {
		if _, err := actor.persistence.Save(ctx, next); err != nil {
			return response{err: err}
		}
	}
	actor.state = next
	return response{entity: next.Clone()}
}

func (actor *EntityActor) handleDelete(ctx context.Context) response {
	if actor.persistence != nil {
		if err := actor.persistence.Delete(ctx, actor.id); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return response{err: err}
		}
	}
	actor.state = nil
	return response{}
}

// shutdown marks the actor dead, fails any queued callers and releases the
// mailbox. Runs on the consumer goroutine.
func (actor *EntityActor) shutdown() {
	actor.running.Store(false)
	for {
		msg := actor.mailbox.Dequeue()
		if msg == nil {
			break
		}
		msg.replyTo <- response{err: errors.ErrDead}
	}
	actor.mailbox.Dispose()
	close(actor.stopped)
	actor.logger.Debugf("entity=(%d) actor terminated", actor.id)
}

func (actor *EntityActor) passivate() {
	actor.shutdown()
	actor.logger.Debugf("entity=(%d) actor passivated after %s idle", actor.id, actor.passivateAfter)
	if actor.onPassivate != nil {
		actor.onPassivate(actor.id)
	}
}
