package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// runCounter counts recompute executions per (contact, pipeline) key.
type runCounter struct {
	mu   sync.Mutex
	runs map[string]int
}

func newRunCounter() *runCounter {
	return &runCounter{runs: make(map[string]int)}
}

func (c *runCounter) Run(_ context.Context, contactID bson.ObjectID, pipelineID *bson.ObjectID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs[recomputeKey(contactID, pipelineID)]++
	return nil
}

func (c *runCounter) Count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[key]
}

func (c *runCounter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.runs {
		total += n
	}
	return total
}

func TestRecomputeQueueRunsEnqueuedJobs(t *testing.T) {
	counter := newRunCounter()
	queue := NewRecomputeQueue(counter.Run, 16, 2)

	contactA := bson.NewObjectID()
	contactB := bson.NewObjectID()
	pipelineID := bson.NewObjectID()

	queue.Enqueue(contactA, nil)
	queue.Enqueue(contactA, &pipelineID)
	queue.Enqueue(contactB, nil)
	queue.Close()

	assert.Equal(t, 1, counter.Count(recomputeKey(contactA, nil)))
	assert.Equal(t, 1, counter.Count(recomputeKey(contactA, &pipelineID)))
	assert.Equal(t, 1, counter.Count(recomputeKey(contactB, nil)))
}

func TestRecomputeQueueCoalescesPendingKeys(t *testing.T) {
	counter := newRunCounter()
	started := make(chan struct{})
	gate := make(chan struct{})

	run := func(ctx context.Context, contactID bson.ObjectID, pipelineID *bson.ObjectID) error {
		started <- struct{}{}
		<-gate
		return counter.Run(ctx, contactID, pipelineID)
	}

	queue := NewRecomputeQueue(run, 16, 1)

	blocker := bson.NewObjectID()
	burst := bson.NewObjectID()

	// Occupy the single worker, then fire a burst for one key while nothing
	// can consume it.
	queue.Enqueue(blocker, nil)
	<-started
	queue.Enqueue(burst, nil)
	queue.Enqueue(burst, nil)
	queue.Enqueue(burst, nil)

	go func() {
		gate <- struct{}{}
		<-started
		gate <- struct{}{}
	}()
	queue.Close()

	assert.Equal(t, 1, counter.Count(recomputeKey(blocker, nil)))
	assert.Equal(t, 1, counter.Count(recomputeKey(burst, nil)))
	assert.Equal(t, 2, counter.Total())
}

func TestRecomputeQueueDefaults(t *testing.T) {
	counter := newRunCounter()
	queue := NewRecomputeQueue(counter.Run, 0, 0)

	contactID := bson.NewObjectID()
	queue.Enqueue(contactID, nil)
	queue.Close()

	require.Equal(t, 1, counter.Count(recomputeKey(contactID, nil)))
}
