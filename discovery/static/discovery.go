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

// Package static provides a discovery provider backed by an explicit node
// list. Membership changes are injected through AddNode and RemoveNode, which
// makes it the provider of choice for tests and fixed-topology deployments.
package static

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/goshard/discovery"
	"github.com/tochemey/goshard/errors"
)

// Discovery is the static discovery provider.
type Discovery struct {
	mu    sync.RWMutex
	nodes map[string]discovery.Node

	initialized *atomic.Bool
	registered  *atomic.Bool
	closed      *atomic.Bool
	events      chan discovery.Event
}

// enforce compilation error
var _ discovery.Provider = (*Discovery)(nil)

// NewDiscovery creates a static provider seeded with the given nodes.
func NewDiscovery(nodes ...discovery.Node) *Discovery {
	seeded := make(map[string]discovery.Node, len(nodes))
	for _, node := range nodes {
		seeded[node.ID] = node
	}
	return &Discovery{
		nodes:       seeded,
		initialized: atomic.NewBool(false),
		registered:  atomic.NewBool(false),
		closed:      atomic.NewBool(false),
		events:      make(chan discovery.Event, 256),
	}
}

// ID returns the provider's name.
func (d *Discovery) ID() string {
	return "static"
}

// Initialize prepares the provider for use.
func (d *Discovery) Initialize() error {
	if !d.initialized.CompareAndSwap(false, true) {
		return errors.New("static discovery already initialized")
	}
	return nil
}

// Register joins the provider to the (static) backend.
func (d *Discovery) Register() error {
	if !d.initialized.Load() {
		return errors.New("static discovery not initialized")
	}
	if !d.registered.CompareAndSwap(false, true) {
		return errors.New("static discovery already registered")
	}
	return nil
}

// Deregister leaves the backend.
func (d *Discovery) Deregister() error {
	if !d.registered.CompareAndSwap(true, false) {
		return errors.New("static discovery not registered")
	}
	return nil
}

// DiscoverPeers returns the current node list.
func (d *Discovery) DiscoverPeers() ([]discovery.Node, error) {
	if !d.registered.Load() {
		return nil, errors.New("static discovery not registered")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	peers := make([]discovery.Node, 0, len(d.nodes))
	for _, node := range d.nodes {
		peers = append(peers, node)
	}
	return peers, nil
}

// Events streams injected membership changes.
func (d *Discovery) Events() <-chan discovery.Event {
	return d.events
}

// Close shuts the provider down and closes the event channel.
func (d *Discovery) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(d.events)
	return nil
}

// AddNode injects a new member and emits a NodeJoined event. Adding an
// already-known node is a no-op.
func (d *Discovery) AddNode(node discovery.Node) {
	if d.closed.Load() {
		return
	}
	d.mu.Lock()
	if _, ok := d.nodes[node.ID]; ok {
		d.mu.Unlock()
		return
	}
	d.nodes[node.ID] = node
	d.mu.Unlock()

	d.emit(discovery.Event{Type: discovery.NodeJoined, Node: node})
}

// RemoveNode removes a member and emits a NodeLeft event. Removing an unknown
// node is a no-op.
func (d *Discovery) RemoveNode(id string) {
	if d.closed.Load() {
		return
	}
	d.mu.Lock()
	node, ok := d.nodes[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.nodes, id)
	d.mu.Unlock()

	d.emit(discovery.Event{Type: discovery.NodeLeft, Node: node})
}

func (d *Discovery) emit(event discovery.Event) {
	select {
	case d.events <- event:
	default:
		// drop the event rather than block the injector; consumers that fall
		// this far behind resynchronize through DiscoverPeers
	}
}
