package chardev_test

import (
	"sync"
	"testing"
	"time"

	"github.com/btsixad/btsixad/chardev"
	"github.com/stretchr/testify/assert"
)

func TestPoolRunsJobsConcurrently(t *testing.T) {
	p := chardev.NewPool()
	defer p.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)
	// Every job holds its worker until all PoolSize jobs have started, so wg
	// only completes if they all run at the same time.
	release := make(chan struct{})
	defer close(release)

	wg.Add(chardev.PoolSize)
	for i := 0; i < chardev.PoolSize; i++ {
		i := i
		p.Submit(func() {
			mu.Lock()
			seen[i] = true
			mu.Unlock()
			wg.Done()
			<-release
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("jobs did not all complete")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, chardev.PoolSize)
}

func TestPoolCloseStopsAcceptingNewJobs(t *testing.T) {
	p := chardev.NewPool()
	p.Close()

	ran := false
	done := make(chan struct{})
	go func() {
		p.Submit(func() { ran = true })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submit after close did not return")
	}
	assert.False(t, ran)
}
