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
	"context"
	"fmt"
	"sync"

	"github.com/tochemey/goshard/errors"
)

// InProcessTransport connects engines living in the same process. It is the
// transport used by multi-node tests and by embedded deployments.
//
// Messages still round-trip through the CBOR codec so that everything a
// networked transport would serialize is exercised the same way.
type InProcessTransport struct {
	mu       sync.RWMutex
	services map[string]Service
}

// enforce compilation error
var _ Transport = (*InProcessTransport)(nil)

// NewInProcessTransport creates an empty in-process transport.
func NewInProcessTransport() *InProcessTransport {
	return &InProcessTransport{
		services: make(map[string]Service),
	}
}

// Register makes the service reachable under the node id. The addr argument
// is ignored.
func (transport *InProcessTransport) Register(node string, _ string, service Service) error {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	if _, ok := transport.services[node]; ok {
		return fmt.Errorf("%w: node=(%s) already registered", errors.ErrInvalidConfig, node)
	}
	transport.services[node] = service
	return nil
}

// Deregister withdraws the node. Subsequent sends to it fail with
// errors.ErrNodeUnreachable.
func (transport *InProcessTransport) Deregister(node string) {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	delete(transport.services, node)
}

// AddPeer is a no-op: every reachable node is a registered one.
func (transport *InProcessTransport) AddPeer(string, string) {}

// RemovePeer is a no-op.
func (transport *InProcessTransport) RemovePeer(string) {}

// SendEntityOp forwards the operation to the destination engine.
func (transport *InProcessTransport) SendEntityOp(ctx context.Context, node string, request *EntityRequest) (*EntityResponse, error) {
	service, err := transport.lookup(node)
	if err != nil {
		return nil, err
	}

	decoded := new(EntityRequest)
	if err := reencode(request, decoded); err != nil {
		return nil, err
	}

	response, err := service.HandleEntityOp(ctx, decoded)
	if err != nil {
		return nil, err
	}

	out := new(EntityResponse)
	if err := reencode(response, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMigration transfers the batch to the destination engine.
func (transport *InProcessTransport) SendMigration(ctx context.Context, node string, batch *MigrationBatch) (*MigrationAck, error) {
	service, err := transport.lookup(node)
	if err != nil {
		return nil, err
	}

	decoded := new(MigrationBatch)
	if err := reencode(batch, decoded); err != nil {
		return nil, err
	}

	ack, err := service.HandleMigration(ctx, decoded)
	if err != nil {
		return nil, err
	}

	out := new(MigrationAck)
	if err := reencode(ack, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close drops all registrations.
func (transport *InProcessTransport) Close() error {
	transport.mu.Lock()
	defer transport.mu.Unlock()
	transport.services = make(map[string]Service)
	return nil
}

func (transport *InProcessTransport) lookup(node string) (Service, error) {
	transport.mu.RLock()
	defer transport.mu.RUnlock()
	service, ok := transport.services[node]
	if !ok {
		return nil, fmt.Errorf("%w: node=(%s)", errors.ErrNodeUnreachable, node)
	}
	return service, nil
}

func reencode(in, out any) error {
	data, err := Encode(in)
	if err != nil {
		return err
	}
	return Decode(data, out)
}
