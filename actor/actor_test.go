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
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tochemey/goshard/entity"
	"github.com/tochemey/goshard/errors"
	"github.com/tochemey/goshard/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEntityActor(t *testing.T) {
	ctx := context.TODO()

	t.Run("With Get on an absent entity", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		_, err := pid.Get(ctx)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("With Update creating the entity", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		updated, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, entity.ID(1), updated.ID)
		assert.Equal(t, []byte("v1"), updated.Value)

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.True(t, updated.Equal(got))
	})

	t.Run("With Update replacing the value", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)
		_, err = pid.Update(ctx, []byte("v2"))
		require.NoError(t, err)

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got.Value)
	})

	t.Run("With ExtractState on an empty entity", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		snapshot, err := pid.ExtractState(ctx)
		require.NoError(t, err)
		assert.Nil(t, snapshot)
		assert.True(t, pid.IsRunning())
	})

	t.Run("With ExtractState returning a detached copy", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)

		snapshot, err := pid.ExtractState(ctx)
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		snapshot.Value[0] = 'X'

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got.Value)
		assert.True(t, pid.IsRunning())
	})

	t.Run("With RestoreState being idempotent", func(t *testing.T) {
		pid := Spawn(7)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		require.NoError(t, pid.RestoreState(ctx, entity.New(7, []byte("v1"))))
		// a retried restore must not clobber the established state
		require.NoError(t, pid.RestoreState(ctx, entity.New(7, []byte("v2"))))

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got.Value)
	})

	t.Run("With RestoreState of a stateless snapshot", func(t *testing.T) {
		pid := Spawn(8)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		// a placed-but-never-updated entity carries no state across a
		// migration; restoring nothing must not materialize an empty entity
		require.NoError(t, pid.RestoreState(ctx, nil))

		_, err := pid.Get(ctx)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("With Delete terminating the actor", func(t *testing.T) {
		pid := Spawn(1)
		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)

		require.NoError(t, pid.Delete(ctx))
		<-pid.Done()
		assert.False(t, pid.IsRunning())

		_, err = pid.Get(ctx)
		assert.ErrorIs(t, err, errors.ErrDead)
		_, err = pid.Update(ctx, []byte("v2"))
		assert.ErrorIs(t, err, errors.ErrDead)
		// terminating a dead actor is a no-op
		require.NoError(t, pid.Terminate(ctx))
	})

	t.Run("With Terminate preserving the persisted copy", func(t *testing.T) {
		mem := store.NewMemoryStore()
		t.Cleanup(func() { require.NoError(t, mem.Close()) })

		pid := Spawn(1, WithStore(mem))
		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)

		require.NoError(t, pid.Terminate(ctx))
		<-pid.Done()

		persisted, err := mem.Load(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), persisted.Value)
	})

	t.Run("With Delete removing the persisted copy", func(t *testing.T) {
		mem := store.NewMemoryStore()
		t.Cleanup(func() { require.NoError(t, mem.Close()) })

		pid := Spawn(1, WithStore(mem))
		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)

		require.NoError(t, pid.Delete(ctx))
		<-pid.Done()

		_, err = mem.Load(ctx, 1)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("With Get recovering a persisted copy", func(t *testing.T) {
		mem := store.NewMemoryStore()
		t.Cleanup(func() { require.NoError(t, mem.Close()) })
		_, err := mem.Save(ctx, entity.New(9, []byte("v1")))
		require.NoError(t, err)

		pid := Spawn(9, WithStore(mem))
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got.Value)
	})

	t.Run("With concurrent updates", func(t *testing.T) {
		pid := Spawn(1)
		t.Cleanup(func() { require.NoError(t, pid.Terminate(ctx)) })

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := pid.Update(ctx, []byte(fmt.Sprintf("v%d", i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := pid.Get(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestPassivation(t *testing.T) {
	ctx := context.TODO()

	t.Run("With idle actor passivating", func(t *testing.T) {
		passivated := make(chan entity.ID, 1)
		pid := Spawn(1,
			WithPassivateAfter(50*time.Millisecond),
			WithOnPassivate(func(id entity.ID) { passivated <- id }))

		_, err := pid.Update(ctx, []byte("v1"))
		require.NoError(t, err)

		select {
		case id := <-passivated:
			assert.Equal(t, entity.ID(1), id)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for passivation")
		}

		<-pid.Done()
		_, err = pid.Get(ctx)
		assert.ErrorIs(t, err, errors.ErrDead)
	})

	t.Run("With traffic deferring passivation", func(t *testing.T) {
		pid := Spawn(1, WithPassivateAfter(200*time.Millisecond))

		for i := 0; i < 5; i++ {
			_, err := pid.Update(ctx, []byte("v"))
			require.NoError(t, err)
			time.Sleep(100 * time.Millisecond)
		}
		// the actor was touched more recently than the idle period
		assert.True(t, pid.IsRunning())
		require.NoError(t, pid.Terminate(ctx))
		<-pid.Done()
	})
}
