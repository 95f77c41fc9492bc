package requestid

import (
	"regexp"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidShape = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestSequential_StartsAtOne(t *testing.T) {
	gen := Sequential(NewCounter())
	assert.Equal(t, "1", gen())
	assert.Equal(t, "2", gen())
	assert.Equal(t, "3", gen())
}

func TestSequential_ConcurrentCallsAreDistinct(t *testing.T) {
	const workers, perWorker = 32, 500
	c := NewCounter()
	gen := Sequential(c)

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, gen())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), c.Load())
	for id := range seen {
		_, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err, "id %q is not an integer", id)
	}
}

func TestSequentialWithPrefix_Format(t *testing.T) {
	c := NewCounter()
	for i := 0; i < 6; i++ {
		c.Next()
	}
	gen, err := SequentialWithPrefix(c, "req")
	require.NoError(t, err)
	assert.Equal(t, "req-7", gen())
	assert.Regexp(t, `^req-\d+$`, gen())
}

func TestSequentialWithPrefix_RejectsBlankPrefix(t *testing.T) {
	for _, prefix := range []string{"", " ", "\t\n"} {
		gen, err := SequentialWithPrefix(NewCounter(), prefix)
		require.ErrorIs(t, err, ErrInvalidConfiguration, "prefix %q", prefix)
		assert.Nil(t, gen)
	}
}

func TestSequential_PanicsOnNilCounter(t *testing.T) {
	assert.Panics(t, func() { Sequential(nil) })
}

func TestSequential_SharedCounterInterleaves(t *testing.T) {
	c := NewCounter()
	plain := Sequential(c)
	prefixed, err := SequentialWithPrefix(c, "api")
	require.NoError(t, err)

	assert.Equal(t, "1", plain())
	assert.Equal(t, "api-2", prefixed())
	assert.Equal(t, "3", plain())
}

func TestSequential_IndependentCounters(t *testing.T) {
	a, b := Sequential(NewCounter()), Sequential(NewCounter())
	assert.Equal(t, "1", a())
	assert.Equal(t, "1", b())
}

func TestRandom_DistinctCanonicalUUIDs(t *testing.T) {
	const n = 10000
	gen := Random()
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := gen()
		require.Regexp(t, uuidShape, id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}
