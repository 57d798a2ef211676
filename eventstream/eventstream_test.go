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

package eventstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsStream(t *testing.T) {
	t.Run("With publish and drain", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "topology")
		assert.Equal(t, 1, broker.SubscribersCount("topology"))

		broker.Publish("topology", "joined:node-b")
		broker.Publish("topology", "left:node-a")
		// a topic the subscriber did not ask for
		broker.Publish("migration", "completed")

		var payloads []any
		for message := range sub.Iterator() {
			assert.Equal(t, "topology", message.Topic())
			payloads = append(payloads, message.Payload())
		}
		assert.Equal(t, []any{"joined:node-b", "left:node-a"}, payloads)

		// the iterator drained the buffer
		assert.Empty(t, sub.Iterator())
	})

	t.Run("With multiple subscribers", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		first := broker.AddSubscriber()
		second := broker.AddSubscriber()
		require.NotEqual(t, first.ID(), second.ID())

		broker.Subscribe(first, "migration")
		broker.Subscribe(second, "migration")
		broker.Publish("migration", "batch-1")

		assert.Len(t, first.Iterator(), 1)
		assert.Len(t, second.Iterator(), 1)
	})

	t.Run("With unsubscribe", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "topology")
		broker.Unsubscribe(sub, "topology")
		assert.Zero(t, broker.SubscribersCount("topology"))

		broker.Publish("topology", "joined:node-b")
		assert.Empty(t, sub.Iterator())
	})

	t.Run("With removed subscriber", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "topology")
		broker.RemoveSubscriber(sub)

		assert.False(t, sub.Active())
		assert.Empty(t, sub.Topics())
		broker.Publish("topology", "joined:node-b")
		assert.Empty(t, sub.Iterator())
	})

	t.Run("With closed stream", func(t *testing.T) {
		broker := New()
		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "topology")

		broker.Close()
		assert.False(t, sub.Active())
		assert.Zero(t, broker.SubscribersCount("topology"))
	})
}
