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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	"github.com/tochemey/goshard/errors"
)

// echoService answers entity ops by echoing the payload and accepts every
// migration batch in full.
type echoService struct{}

var _ Service = echoService{}

func (echoService) HandleEntityOp(_ context.Context, request *EntityRequest) (*EntityResponse, error) {
	if request.Op == OpGet && request.EntityID == 404 {
		return &EntityResponse{EntityID: request.EntityID, Failed: Failure(errors.ErrNotFound)}, nil
	}
	return &EntityResponse{EntityID: request.EntityID, Value: request.Value}, nil
}

func (echoService) HandleMigration(_ context.Context, batch *MigrationBatch) (*MigrationAck, error) {
	ack := &MigrationAck{BatchID: batch.BatchID}
	for _, state := range batch.States {
		ack.Accepted = append(ack.Accepted, state.EntityID)
	}
	return ack, nil
}

func TestInProcessTransport(t *testing.T) {
	ctx := context.TODO()

	t.Run("With entity op round trip", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })
		require.NoError(t, transport.Register("node-a", "", echoService{}))

		response, err := transport.SendEntityOp(ctx, "node-a", &EntityRequest{Op: OpUpdate, EntityID: 7, Value: []byte("v1")})
		require.NoError(t, err)
		assert.EqualValues(t, 7, response.EntityID)
		assert.Equal(t, []byte("v1"), response.Value)
		assert.NoError(t, FailureOf(response))
	})

	t.Run("With wire failure mapping", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })
		require.NoError(t, transport.Register("node-a", "", echoService{}))

		response, err := transport.SendEntityOp(ctx, "node-a", &EntityRequest{Op: OpGet, EntityID: 404})
		require.NoError(t, err)
		assert.ErrorIs(t, FailureOf(response), errors.ErrNotFound)
	})

	t.Run("With unknown node", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })

		_, err := transport.SendEntityOp(ctx, "node-z", &EntityRequest{Op: OpGet, EntityID: 1})
		assert.ErrorIs(t, err, errors.ErrNodeUnreachable)
	})

	t.Run("With duplicate registration", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })
		require.NoError(t, transport.Register("node-a", "", echoService{}))
		assert.ErrorIs(t, transport.Register("node-a", "", echoService{}), errors.ErrInvalidConfig)
	})

	t.Run("With deregistered node", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })
		require.NoError(t, transport.Register("node-a", "", echoService{}))
		transport.Deregister("node-a")

		_, err := transport.SendEntityOp(ctx, "node-a", &EntityRequest{Op: OpGet, EntityID: 1})
		assert.ErrorIs(t, err, errors.ErrNodeUnreachable)
	})

	t.Run("With migration batch round trip", func(t *testing.T) {
		transport := NewInProcessTransport()
		t.Cleanup(func() { require.NoError(t, transport.Close()) })
		require.NoError(t, transport.Register("node-b", "", echoService{}))

		batch := &MigrationBatch{
			BatchID: uuid.NewString(),
			Source:  "node-a",
			Target:  "node-b",
			States: []Snapshot{
				{EntityID: 1, Value: []byte("v1"), HasState: true},
				{EntityID: 2, Value: []byte("v2"), HasState: true},
			},
		}

		ack, err := transport.SendMigration(ctx, "node-b", batch)
		require.NoError(t, err)
		assert.Equal(t, batch.BatchID, ack.BatchID)
		assert.True(t, ack.Complete(len(batch.States)))
	})
}

func TestHTTPTransport(t *testing.T) {
	ctx := context.TODO()

	t.Run("With entity op over the wire", func(t *testing.T) {
		ports := dynaport.Get(1)
		addr := fmt.Sprintf("127.0.0.1:%d", ports[0])

		server := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, server.Close()) })
		require.NoError(t, server.Register("node-a", addr, echoService{}))

		client := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, client.Close()) })
		client.AddPeer("node-a", addr)

		response, err := client.SendEntityOp(ctx, "node-a", &EntityRequest{Op: OpUpdate, EntityID: 9, Value: []byte("payload")})
		require.NoError(t, err)
		assert.EqualValues(t, 9, response.EntityID)
		assert.Equal(t, []byte("payload"), response.Value)
	})

	t.Run("With migration batch over the wire", func(t *testing.T) {
		ports := dynaport.Get(1)
		addr := fmt.Sprintf("127.0.0.1:%d", ports[0])

		server := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, server.Close()) })
		require.NoError(t, server.Register("node-b", addr, echoService{}))

		client := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, client.Close()) })
		client.AddPeer("node-b", addr)

		batch := &MigrationBatch{BatchID: uuid.NewString(), Source: "node-a", Target: "node-b",
			States: []Snapshot{{EntityID: 5, Value: []byte("v5"), HasState: true}}}
		ack, err := client.SendMigration(ctx, "node-b", batch)
		require.NoError(t, err)
		assert.True(t, ack.Complete(1))
	})

	t.Run("With no known address", func(t *testing.T) {
		client := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, client.Close()) })

		_, err := client.SendEntityOp(ctx, "node-z", &EntityRequest{Op: OpGet, EntityID: 1})
		assert.ErrorIs(t, err, errors.ErrNodeUnreachable)
	})

	t.Run("With a downed peer", func(t *testing.T) {
		ports := dynaport.Get(1)
		addr := fmt.Sprintf("127.0.0.1:%d", ports[0])

		client := NewHTTPTransport()
		t.Cleanup(func() { require.NoError(t, client.Close()) })
		// nothing is listening on the advertised port
		client.AddPeer("node-a", addr)

		_, err := client.SendEntityOp(ctx, "node-a", &EntityRequest{Op: OpGet, EntityID: 1})
		assert.ErrorIs(t, err, errors.ErrNodeUnreachable)
	})
}

func TestCodec(t *testing.T) {
	t.Run("With canonical encoding being deterministic", func(t *testing.T) {
		batch := &MigrationBatch{BatchID: "b1", Source: "a", Target: "b",
			States: []Snapshot{{EntityID: 1, Value: []byte("v1"), HasState: true}}}

		first, err := Encode(batch)
		require.NoError(t, err)
		second, err := Encode(batch)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
