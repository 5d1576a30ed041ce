package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_DeliversInPushOrder(t *testing.T) {
	var q Queue[int]
	for i := 1; i <= 3; i++ {
		q.Push(i)
	}

	var got []int
	q.Drain(func(v int) { got = append(got, v) })

	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Zero(t, q.Len())
}

func TestQueue_NestedPushIsDeliveredAfter(t *testing.T) {
	var q Queue[string]
	var got []string
	var deliver func(string)
	deliver = func(v string) {
		got = append(got, v)
		if v == "first" {
			q.Push("nested")
			q.Drain(deliver)
			got = append(got, "first-done")
		}
	}

	q.Push("first")
	q.Push("second")
	q.Drain(deliver)

	assert.Equal(t, []string{"first", "first-done", "second", "nested"}, got)
}

func TestQueue_ConcurrentDrainDeliversEachOnce(t *testing.T) {
	var q Queue[int]
	var mu sync.Mutex
	seen := make(map[int]int)
	deliver := func(v int) {
		mu.Lock()
		seen[v]++
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(g*100 + i)
				q.Drain(deliver)
			}
		}(g)
	}
	wg.Wait()
	q.Drain(deliver)

	assert.Len(t, seen, 800)
	for v, n := range seen {
		assert.Equal(t, 1, n, "value %d", v)
	}
}
