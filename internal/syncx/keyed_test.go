package syncx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	var k KeyedMutex
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("invites")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, k.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	var k KeyedMutex
	unlockA := k.Lock("follows")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := k.Lock("duress")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on unrelated key was blocked")
	}
}

func TestKeyedMutex_UnlockIsIdempotent(t *testing.T) {
	var k KeyedMutex
	unlock := k.Lock("a")
	unlock()
	unlock()

	require.Equal(t, 0, k.Len())
	k.Lock("a")()
}
