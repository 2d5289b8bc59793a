package jobs

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel/expert-match/internal/ids"
)

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(10)

	id := r.Create("match")
	assert.True(t, strings.HasPrefix(id, "match-"))

	job, ok := r.Status(id)
	require.True(t, ok)
	assert.Equal(t, StatePending, job.State)

	r.Complete(id, []string{"doc-1"})

	job, ok = r.Status(id)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, job.State)
	assert.Equal(t, []string{"doc-1"}, job.Result)
}

func TestRegistry_Fail(t *testing.T) {
	r := NewRegistry(10)

	id := r.Create("route")
	r.Fail(id, "case not found")

	job, ok := r.Status(id)
	require.True(t, ok)
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, "case not found", job.ErrorMessage)
}

func TestRegistry_SecondTerminalTransitionIsNoOp(t *testing.T) {
	r := NewRegistry(10)

	id := r.Create("match")
	r.Complete(id, "first")
	r.Fail(id, "should not apply")
	r.Complete(id, "should not apply either")

	job, ok := r.Status(id)
	require.True(t, ok)
	assert.Equal(t, StateCompleted, job.State)
	assert.Equal(t, "first", job.Result)
	assert.Empty(t, job.ErrorMessage)
}

func TestRegistry_UnknownIDNeverErrors(t *testing.T) {
	r := NewRegistry(10)

	_, ok := r.Status("match-0-deadbeef")
	assert.False(t, ok)

	// Terminal calls on unknown ids are silent no-ops.
	r.Complete("match-0-deadbeef", nil)
	r.Fail("match-0-deadbeef", "nope")
}

func TestRegistry_EvictsOldestFirst(t *testing.T) {
	r := NewRegistry(3)

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, r.Create(fmt.Sprintf("k%d", i)))
	}

	assert.Equal(t, 3, r.Len())

	_, ok := r.Status(ids[0])
	assert.False(t, ok, "oldest job evicted")
	_, ok = r.Status(ids[1])
	assert.False(t, ok, "second oldest evicted")

	for _, id := range ids[2:] {
		_, ok := r.Status(id)
		assert.True(t, ok, "job %s should survive", id)
	}
}

func TestRegistry_UsesInjectedGenerator(t *testing.T) {
	r := NewRegistryWithGenerator(10, ids.NewSequence(0))

	first := r.Create("match")
	second := r.Create("match")

	assert.True(t, strings.HasSuffix(first, "-00000001"), "got %s", first)
	assert.True(t, strings.HasSuffix(second, "-00000002"), "got %s", second)
}

func TestRegistry_DefaultCapacity(t *testing.T) {
	r := NewRegistry(0)

	for i := 0; i < DefaultCapacity+20; i++ {
		r.Create("match")
	}
	assert.Equal(t, DefaultCapacity, r.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				id := r.Create("match")
				r.Complete(id, j)
				r.Status(id)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, r.Len(), 50)
}
