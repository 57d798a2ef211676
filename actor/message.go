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

	"github.com/tochemey/goshard/entity"
)

// opKind identifies the operation carried by a mailbox message.
type opKind int

const (
	opGet opKind = iota
	opUpdate
	opDelete
	opExtract
	opRestore
	opTerminate
)

// String returns the human-readable name of the operation, mainly for logs.
func (k opKind) String() string {
	switch k {
	case opGet:
		return "Get"
	case opUpdate:
		return "Update"
	case opDelete:
		return "Delete"
	case opExtract:
		return "ExtractState"
	case opRestore:
		return "RestoreState"
	case opTerminate:
		return "Terminate"
	default:
		return "Unknown"
	}
}

// response carries the outcome of a processed operation back to the caller.
type response struct {
	entity *entity.Entity
	err    error
}

// Message is the unit of work flowing through an actor's mailbox.
//
// Each message carries the caller's context, the operation kind, an optional
// payload and a buffered reply channel the runtime responds on exactly once.
type Message struct {
	ctx     context.Context
	kind    opKind
	value   []byte         // payload for opUpdate
	restore *entity.Entity // payload for opRestore
	replyTo chan response
}

func newMessage(ctx context.Context, kind opKind) *Message {
	return &Message{
		ctx:  ctx,
		kind: kind,
		// buffered so the consumer never blocks on an abandoned caller
		replyTo: make(chan response, 1),
	}
}
