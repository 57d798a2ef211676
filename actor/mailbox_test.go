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

package actor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedMailbox(t *testing.T) {
	t.Run("With FIFO ordering", func(t *testing.T) {
		mailbox := NewUnboundedMailbox()
		assert.True(t, mailbox.IsEmpty())

		kinds := []opKind{opGet, opUpdate, opExtract}
		for _, kind := range kinds {
			require.NoError(t, mailbox.Enqueue(newMessage(context.TODO(), kind)))
		}
		assert.EqualValues(t, 3, mailbox.Len())

		for _, kind := range kinds {
			msg := mailbox.Dequeue()
			require.NotNil(t, msg)
			assert.Equal(t, kind, msg.kind)
		}
		assert.Nil(t, mailbox.Dequeue())
		assert.True(t, mailbox.IsEmpty())
	})

	t.Run("With concurrent producers", func(t *testing.T) {
		mailbox := NewUnboundedMailbox()
		const producers = 8
		const perProducer = 100

		var wg sync.WaitGroup
		for i := 0; i < producers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perProducer; j++ {
					require.NoError(t, mailbox.Enqueue(newMessage(context.TODO(), opGet)))
				}
			}()
		}
		wg.Wait()

		var drained int
		for mailbox.Dequeue() != nil {
			drained++
		}
		assert.Equal(t, producers*perProducer, drained)
	})
}

func TestBoundedMailbox(t *testing.T) {
	t.Run("With enqueue and dequeue", func(t *testing.T) {
		mailbox := NewBoundedMailbox(4)
		t.Cleanup(mailbox.Dispose)
		assert.True(t, mailbox.IsEmpty())

		require.NoError(t, mailbox.Enqueue(newMessage(context.TODO(), opUpdate)))
		assert.EqualValues(t, 1, mailbox.Len())

		msg := mailbox.Dequeue()
		require.NotNil(t, msg)
		assert.Equal(t, opUpdate, msg.kind)
		assert.Nil(t, mailbox.Dequeue())
	})

	t.Run("With enqueue after dispose", func(t *testing.T) {
		mailbox := NewBoundedMailbox(1)
		mailbox.Dispose()
		assert.Error(t, mailbox.Enqueue(newMessage(context.TODO(), opGet)))
	})
}
