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

// Package errors defines the error taxonomy shared by the placement and
// migration engine. Callers are expected to test for these sentinels with
// errors.Is after unwrapping.
package errors

import "errors"

var (
	// ErrNotFound indicates that the entity is absent, locally or remotely.
	ErrNotFound = errors.New("entity not found")

	// ErrDead indicates that the entity actor has been terminated and can no
	// longer process messages.
	ErrDead = errors.New("entity actor is not alive")

	// ErrNodeUnreachable is returned once the transport retries to a peer node
	// have been exhausted.
	ErrNodeUnreachable = errors.New("node is unreachable")

	// ErrMigrationFailed indicates that the target node rejected or failed the
	// creation of one or more entities of a migration batch. The source node
	// keeps serving the unmigrated entities.
	ErrMigrationFailed = errors.New("migration batch failed")

	// ErrNoMigrationTarget is returned when a graceful shutdown is requested
	// but no other active node exists to take over the hosted entities.
	ErrNoMigrationTarget = errors.New("no migration target available")

	// ErrConflict surfaces a store-level uniqueness violation unchanged from
	// the entity store collaborator.
	ErrConflict = errors.New("store conflict")

	// ErrDraining is returned for new placements on a node that is leaving the
	// cluster. Callers should retry once the topology has settled.
	ErrDraining = errors.New("node is draining")

	// ErrEngineNotStarted indicates that the cluster engine has not been
	// started before use.
	ErrEngineNotStarted = errors.New("cluster engine is not running")

	// ErrEngineStopped indicates that the cluster engine has been shut down.
	ErrEngineStopped = errors.New("cluster engine is stopped")

	// ErrNodeNotFound is returned when the addressed peer is not a member of
	// the cluster.
	ErrNodeNotFound = errors.New("node is not a cluster member")

	// ErrInvalidConfig indicates an invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Is reports whether any error in err's tree matches target. It is re-exported
// so that callers depending on this package do not need to import the standard
// library errors package alongside it.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// New returns an error with the given message. Re-exported for the same
// reason as Is.
func New(message string) error {
	return errors.New(message)
}
