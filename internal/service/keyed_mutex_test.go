package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (k *keyedMutex) entries() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func TestKeyedMutex_EntryDroppedAfterUnlock(t *testing.T) {
	k := newKeyedMutex()
	id := uuid.New()

	unlock := k.Lock(id)
	assert.Equal(t, 1, k.entries())
	unlock()
	assert.Zero(t, k.entries())

	// A waiter keeps the entry alive until it also releases.
	unlock = k.Lock(id)
	acquired := make(chan func())
	go func() { acquired <- k.Lock(id) }()
	require.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return k.locks[id] != nil && k.locks[id].refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	second := <-acquired
	assert.Equal(t, 1, k.entries())
	second()
	assert.Zero(t, k.entries())
}

func TestKeyedMutex_SameIDSerializes(t *testing.T) {
	k := newKeyedMutex()
	id := uuid.New()

	var (
		mu      sync.Mutex
		active  int
		overlap bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock(id)
			defer unlock()
			mu.Lock()
			active++
			overlap = overlap || active > 1
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap)
	assert.Zero(t, k.entries())
}

func TestKeyedMutex_DifferentIDsIndependent(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock(uuid.New())
	defer unlockA()

	done := make(chan struct{})
	go func() {
		k.Lock(uuid.New())()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different id blocked")
	}
}
