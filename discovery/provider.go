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

// Package discovery defines how a cluster engine learns about its peers.
package discovery

// Node describes a discovered cluster member.
type Node struct {
	// ID uniquely identifies the member within the cluster.
	ID string
	// Address is the host:port of the member's control plane. It may be empty
	// for in-process deployments.
	Address string
}

// EventType enumerates membership changes reported by a Provider.
type EventType int

const (
	// NodeJoined signals that a new member entered the cluster.
	NodeJoined EventType = iota
	// NodeLeft signals that a member left the cluster.
	NodeLeft
)

// String returns the human-readable name of the event type.
func (eventType EventType) String() string {
	switch eventType {
	case NodeJoined:
		return "NodeJoined"
	case NodeLeft:
		return "NodeLeft"
	default:
		return "Unknown"
	}
}

// Event is a single membership change.
type Event struct {
	Type EventType
	Node Node
}

// Provider is the discovery contract consumed by the cluster engine.
//
// The engine calls Initialize then Register during startup, consumes Events
// until shutdown, and finishes with Deregister and Close.
type Provider interface {
	// ID returns the provider's name.
	ID() string
	// Initialize prepares the provider. It must be called before any other
	// method.
	Initialize() error
	// Register joins the local node to the discovery backend.
	Register() error
	// Deregister removes the local node from the discovery backend.
	Deregister() error
	// DiscoverPeers returns the current set of known members.
	DiscoverPeers() ([]Node, error)
	// Events streams membership changes. The channel is closed by Close.
	Events() <-chan Event
	// Close frees the provider's resources.
	Close() error
}
