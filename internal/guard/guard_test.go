package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryAcquireRelease(t *testing.T) {
	g := New()

	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire(), "second acquire while held should fail")

	g.Release()
	assert.True(t, g.TryAcquire(), "acquire after release should succeed")
	g.Release()
}

func TestConcurrentAcquireAdmitsOne(t *testing.T) {
	g := New()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if g.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, admitted, "exactly one goroutine should win the guard")

	g.Release()
	assert.True(t, g.TryAcquire())
}
