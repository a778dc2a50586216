package keylock

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()
	const iterations = 1000

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				kl.Lock("SHP-1")
				counter++
				kl.Unlock("SHP-1")
			}
		}()
	}
	wg.Wait()

	if counter != 4*iterations {
		t.Fatalf("lost updates under contention: got %d, want %d", counter, 4*iterations)
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	kl := New()
	kl.Lock("SHP-1")
	defer kl.Unlock("SHP-1")

	// A different key must not block behind SHP-1's held lock.
	done := make(chan struct{})
	go func() {
		kl.Lock("SHP-2")
		kl.Unlock("SHP-2")
		close(done)
	}()
	<-done
}

func TestKeyLock_UnlockUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unlock of unknown key")
		}
	}()
	New().Unlock("never-locked")
}
