// Package jobs tracks the lifecycle of long-running matching requests.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/daniel/expert-match/internal/ids"
)

// State is a job lifecycle state.
type State string

// Job states. A job is created PENDING and transitions exactly once to
// COMPLETED or FAILED.
const (
	StatePending   State = "PENDING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// Job is a snapshot of one tracked request.
type Job struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	State        State     `json:"state"`
	Result       any       `json:"result,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DefaultCapacity bounds the registry when no capacity is configured.
const DefaultCapacity = 100

// Registry is a bounded in-memory job store. Once full, inserting a
// new job evicts the oldest-inserted entry. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	capacity int
	gen      ids.Generator
	jobs     map[string]*Job
	order    []string
}

// NewRegistry builds a registry with UUID-backed job ids; a
// non-positive capacity uses DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	return NewRegistryWithGenerator(capacity, ids.UUID{})
}

// NewRegistryWithGenerator builds a registry minting job id suffixes
// through the given generator.
func NewRegistryWithGenerator(capacity int, gen ids.Generator) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if gen == nil {
		gen = ids.UUID{}
	}
	return &Registry{
		capacity: capacity,
		gen:      gen,
		jobs:     make(map[string]*Job, capacity),
	}
}

// Create registers a new PENDING job and returns its ID.
func (r *Registry) Create(kind string) string {
	id := fmt.Sprintf("%s-%d-%s", kind, time.Now().UnixMilli(), suffix(r.gen.NewID()))

	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.jobs, oldest)
	}

	r.jobs[id] = &Job{ID: id, Kind: kind, State: StatePending, CreatedAt: time.Now()}
	r.order = append(r.order, id)
	return id
}

// suffix keeps the last 8 characters of a generated id, the part that
// varies between ids minted in the same instant.
func suffix(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}

// Complete moves a pending job to COMPLETED with its result. Calls on
// unknown or already-terminal jobs are no-ops.
func (r *Registry) Complete(jobID string, result any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.State != StatePending {
		return
	}
	job.State = StateCompleted
	job.Result = result
}

// Fail moves a pending job to FAILED with an error message. Calls on
// unknown or already-terminal jobs are no-ops.
func (r *Registry) Fail(jobID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok || job.State != StatePending {
		return
	}
	job.State = StateFailed
	job.ErrorMessage = message
}

// Status returns a snapshot of the job; ok is false for unknown (or
// evicted) IDs.
func (r *Registry) Status(jobID string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Len reports the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}
