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

// Package remote defines the node-to-node control plane: the wire messages,
// their CBOR encoding and the transports that carry them between engines.
package remote

import (
	"context"
)

// Service is the server side of the control plane. Each engine implements it
// to answer forwarded entity operations and inbound migration batches.
type Service interface {
	// HandleEntityOp executes a forwarded entity operation on the local node.
	HandleEntityOp(ctx context.Context, request *EntityRequest) (*EntityResponse, error)
	// HandleMigration ingests a migration batch and reports, per entity,
	// whether the local node accepted ownership.
	HandleMigration(ctx context.Context, batch *MigrationBatch) (*MigrationAck, error)
}

// Transport carries control-plane messages between nodes.
//
// Implementations must return errors.ErrNodeUnreachable (possibly wrapped)
// when the destination node is unknown or cannot be reached, so callers can
// drive their retry policy off that sentinel.
type Transport interface {
	// Register makes the given service reachable under the node id. For
	// networked transports this also starts listening on addr.
	Register(node string, addr string, service Service) error
	// Deregister withdraws a previously registered node.
	Deregister(node string)
	// AddPeer records how to reach a remote node. In-process transports may
	// treat this as a no-op.
	AddPeer(node string, addr string)
	// RemovePeer forgets a remote node.
	RemovePeer(node string)
	// SendEntityOp forwards an entity operation to the node owning it.
	SendEntityOp(ctx context.Context, node string, request *EntityRequest) (*EntityResponse, error)
	// SendMigration transfers a migration batch to the target node.
	SendMigration(ctx context.Context, node string, batch *MigrationBatch) (*MigrationAck, error)
	// Close tears the transport down and releases its resources.
	Close() error
}
