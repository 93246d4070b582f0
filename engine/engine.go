package engine

import (
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ScheduleFunc hands a recompute request to the background queue. It must
// not block: the write path never waits on metrics. A nil pipeline id asks
// for the contact's global snapshot.
type ScheduleFunc func(contactID bson.ObjectID, pipelineID *bson.ObjectID)

// Engine owns the stage transitions, the interaction ingestion path and the
// metrics recomputation for the sales pipeline.
type Engine struct {
	store    Store
	clock    Clock
	schedule ScheduleFunc

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an engine over the given store. A nil clock means wall-clock
// time; a nil schedule means recompute requests are silently discarded
// (used by the queue workers themselves, which already run recomputes).
func New(store Store, clock Clock, schedule ScheduleFunc) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	if schedule == nil {
		schedule = func(bson.ObjectID, *bson.ObjectID) {}
	}
	return &Engine{
		store:    store,
		clock:    clock,
		schedule: schedule,
		locks:    make(map[string]*sync.Mutex),
	}
}

// stateLock serializes transitions per (contact, pipeline). Two concurrent
// transitions on the same pair would otherwise both read the same previous
// stage and corrupt the days-in-stage accounting.
func (e *Engine) stateLock(contactID, pipelineID bson.ObjectID) *sync.Mutex {
	key := contactID.Hex() + "/" + pipelineID.Hex()

	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}
