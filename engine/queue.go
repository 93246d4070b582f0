package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const recomputeTimeout = 30 * time.Second

// RecomputeFunc runs one snapshot recompute. In production this is
// Engine.Recompute on a long-lived store.
type RecomputeFunc func(ctx context.Context, contactID bson.ObjectID, pipelineID *bson.ObjectID) error

type recomputeRequest struct {
	contactID  bson.ObjectID
	pipelineID *bson.ObjectID
}

// RecomputeQueue is the bounded fire-and-forget path between the write
// handlers and the metrics engine. Bursts of triggers for the same
// (contact, pipeline) key coalesce into a single pending recompute; Enqueue
// never blocks the caller; worker failures are logged, never surfaced.
type RecomputeQueue struct {
	run  RecomputeFunc
	jobs chan string

	mu      sync.Mutex
	pending map[string]recomputeRequest

	wg sync.WaitGroup
}

func NewRecomputeQueue(run RecomputeFunc, buffer, workers int) *RecomputeQueue {
	if buffer <= 0 {
		buffer = 256
	}
	if workers <= 0 {
		workers = 2
	}

	q := &RecomputeQueue{
		run:     run,
		jobs:    make(chan string, buffer),
		pending: make(map[string]recomputeRequest),
	}

	for range workers {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

// Enqueue schedules a recompute for (contactID, pipelineID). Requests
// already pending for the same key are coalesced. When the buffer is
// saturated the request is dropped with a log line; the periodic full
// recompute repairs any snapshot missed that way.
func (q *RecomputeQueue) Enqueue(contactID bson.ObjectID, pipelineID *bson.ObjectID) {
	key := recomputeKey(contactID, pipelineID)

	q.mu.Lock()
	if _, exists := q.pending[key]; exists {
		q.mu.Unlock()
		return
	}
	q.pending[key] = recomputeRequest{contactID: contactID, pipelineID: pipelineID}
	q.mu.Unlock()

	select {
	case q.jobs <- key:
	default:
		q.mu.Lock()
		delete(q.pending, key)
		q.mu.Unlock()
		log.Printf("[metrics] recompute queue saturated, dropping %s", key)
	}
}

// Close stops accepting work and waits for the workers to drain.
func (q *RecomputeQueue) Close() {
	close(q.jobs)
	q.wg.Wait()
}

func (q *RecomputeQueue) worker() {
	defer q.wg.Done()

	for key := range q.jobs {
		q.mu.Lock()
		req, ok := q.pending[key]
		// Removed before running so triggers arriving mid-recompute queue a
		// fresh pass instead of being swallowed.
		delete(q.pending, key)
		q.mu.Unlock()

		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		if err := q.run(ctx, req.contactID, req.pipelineID); err != nil {
			log.Printf("[metrics] background recompute failed for %s: %v", key, err)
		}
		cancel()
	}
}

func recomputeKey(contactID bson.ObjectID, pipelineID *bson.ObjectID) string {
	if pipelineID == nil {
		return contactID.Hex() + "/global"
	}
	return contactID.Hex() + "/" + pipelineID.Hex()
}
