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

package cluster

import (
	"fmt"
	"time"

	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/eventstream"
	"github.com/tochemey/goshard/hash"
	"github.com/tochemey/goshard/log"
	"github.com/tochemey/goshard/ring"
	"github.com/tochemey/goshard/store"
)

const (
	// DefaultCallTimeout bounds a single placement or forwarded call.
	DefaultCallTimeout = 5 * time.Second
	// DefaultShutdownTimeout bounds a graceful shutdown including all its
	// migration batches.
	DefaultShutdownTimeout = 30 * time.Second
	// DefaultMaxRetries is the number of transport retries before a peer is
	// declared unreachable.
	DefaultMaxRetries = 3
	// DefaultBatchSize is the number of entities moved per migration batch.
	DefaultBatchSize = 64

	retryInitialDelay = 50 * time.Millisecond
)

// Config holds the tunables of a cluster engine.
type Config struct {
	ringSize        uint64
	callTimeout     time.Duration
	shutdownTimeout time.Duration
	maxRetries      int
	batchSize       int
	passivateAfter  time.Duration
	hasher          hash.Hasher
	logger          log.Logger
	store           store.Store
	stream          eventstream.Stream
}

func newConfig(opts ...Option) *Config {
	config := &Config{
		ringSize:        ring.DefaultSize,
		callTimeout:     DefaultCallTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		maxRetries:      DefaultMaxRetries,
		batchSize:       DefaultBatchSize,
		hasher:          hash.DefaultHasher(),
		logger:          log.DefaultLogger,
		stream:          eventstream.New(),
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Validate reports the first invalid setting, if any.
func (config *Config) Validate() error {
	switch {
	case config.ringSize == 0:
		return fmt.Errorf("%w: ring size must be positive", errors.ErrInvalidConfig)
	case config.callTimeout <= 0:
		return fmt.Errorf("%w: call timeout must be positive", errors.ErrInvalidConfig)
	case config.shutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown timeout must be positive", errors.ErrInvalidConfig)
	case config.maxRetries < 0:
		return fmt.Errorf("%w: max retries cannot be negative", errors.ErrInvalidConfig)
	case config.batchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", errors.ErrInvalidConfig)
	default:
		return nil
	}
}

// Option configures the cluster engine.
type Option func(config *Config)

// WithRingSize overrides the hash ring size.
func WithRingSize(size uint64) Option {
	return func(config *Config) {
		config.ringSize = size
	}
}

// WithCallTimeout bounds individual placement and forwarded calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(config *Config) {
		config.callTimeout = timeout
	}
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(config *Config) {
		config.shutdownTimeout = timeout
	}
}

// WithMaxRetries sets the transport retry budget.
func WithMaxRetries(retries int) Option {
	return func(config *Config) {
		config.maxRetries = retries
	}
}

// WithBatchSize sets the number of entities per migration batch.
func WithBatchSize(size int) Option {
	return func(config *Config) {
		config.batchSize = size
	}
}

// WithPassivateAfter makes idle entity actors stop themselves after the given
// duration. Disabled by default.
func WithPassivateAfter(after time.Duration) Option {
	return func(config *Config) {
		config.passivateAfter = after
	}
}

// WithHasher overrides the ring hasher.
func WithHasher(hasher hash.Hasher) Option {
	return func(config *Config) {
		config.hasher = hasher
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger log.Logger) Option {
	return func(config *Config) {
		config.logger = logger
	}
}

// WithStore attaches a durable entity store shared by the node's actors.
func WithStore(entityStore store.Store) Option {
	return func(config *Config) {
		config.store = entityStore
	}
}

// WithEventStream overrides the broker lifecycle events are published on.
func WithEventStream(stream eventstream.Stream) Option {
	return func(config *Config) {
		config.stream = stream
	}
}
