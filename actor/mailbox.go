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

// Mailbox defines the contract for an entity actor's message queue.
//
// Implementations must be safe for multiple concurrent producers calling
// Enqueue. The actor runtime consumes from a single goroutine, so Dequeue is
// only ever called by one consumer (MPSC). FIFO ordering is expected: per-actor
// message order is the ordering guarantee the engine offers its callers.
//
// Enqueue should be non-blocking for unbounded implementations and must return
// an error (or block, when documented) for bounded ones. Dequeue is
// non-blocking and returns nil when the mailbox is empty; the runtime parks on
// a separate wakeup signal rather than polling.
type Mailbox interface {
	// Enqueue pushes a message into the mailbox.
	Enqueue(msg *Message) error
	// Dequeue fetches a message from the mailbox, or nil when it is empty.
	Dequeue() (msg *Message)
	// IsEmpty reports whether the mailbox currently has no messages.
	IsEmpty() bool
	// Len returns a snapshot of the number of messages in the mailbox.
	Len() int64
	// Dispose releases any resources and unblocks internal waiters used by the
	// implementation. The mailbox must not be used after Dispose returns.
	Dispose()
}
