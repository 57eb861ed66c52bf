package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBarrierArmCompleteWaitNoTimeout(t *testing.T) {
	for n := 0; n < 8; n++ {
		b := NewBarrier()
		b.Arm(n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(time.Duration(i%3) * time.Millisecond)
				b.Complete()
			}()
		}
		wg.Wait()

		timedOut := b.Wait(500 * time.Millisecond)
		assert.False(t, timedOut, "n=%d", n)
		assert.Equal(t, 0, b.Pending())
	}
}

func TestBarrierTimesOutWhenIncomplete(t *testing.T) {
	b := NewBarrier()
	b.Arm(2)
	b.Complete() // only one of two completes

	start := time.Now()
	timedOut := b.Wait(30 * time.Millisecond)
	elapsed := time.Since(start)

	assert.True(t, timedOut)
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestBarrierZeroArmDoesNotBlock(t *testing.T) {
	b := NewBarrier()
	b.Arm(0)
	timedOut := b.Wait(100 * time.Millisecond)
	assert.False(t, timedOut)
}

func TestBarrierCompleteBeforeWaitIsNotLost(t *testing.T) {
	b := NewBarrier()
	b.Arm(1)
	b.Complete()
	timedOut := b.Wait(time.Second)
	assert.False(t, timedOut)
}
