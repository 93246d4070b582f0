package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeStore is the in-memory Store used by the engine tests. Guarded by a
// single mutex because RecomputeAll hits it from several goroutines.
type fakeStore struct {
	mu sync.Mutex

	pipelines    map[bson.ObjectID]*schemas.Pipeline
	stages       map[bson.ObjectID]*schemas.PipelineStage
	states       []*schemas.ContactPipelineState
	history      []*schemas.ContactStageHistory
	audits       []*schemas.AuditLog
	interactions []*schemas.Interaction
	tasks        []*schemas.Task
	sellsyLinks  map[bson.ObjectID]*schemas.SellsyLink
	snapshots    map[string]*schemas.MetricsSnapshot
	contactIDs   []bson.ObjectID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pipelines:   make(map[bson.ObjectID]*schemas.Pipeline),
		stages:      make(map[bson.ObjectID]*schemas.PipelineStage),
		sellsyLinks: make(map[bson.ObjectID]*schemas.SellsyLink),
		snapshots:   make(map[string]*schemas.MetricsSnapshot),
	}
}

func (s *fakeStore) addPipeline(p *schemas.Pipeline) *schemas.Pipeline {
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	s.pipelines[p.ID] = p
	return p
}

func (s *fakeStore) addStage(st *schemas.PipelineStage) *schemas.PipelineStage {
	if st.ID.IsZero() {
		st.ID = bson.NewObjectID()
	}
	s.stages[st.ID] = st
	return st
}

func (s *fakeStore) FindPipeline(_ context.Context, id bson.ObjectID) (*schemas.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pipelines[id], nil
}

func (s *fakeStore) FindStage(_ context.Context, id bson.ObjectID) (*schemas.PipelineStage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stages[id], nil
}

func (s *fakeStore) FindPipelineState(_ context.Context, contactID, pipelineID bson.ObjectID) (*schemas.ContactPipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.states {
		if st.ContactID == contactID && st.PipelineID == pipelineID {
			return st, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreatePipelineState(_ context.Context, state *schemas.ContactPipelineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states = append(s.states, state)
	return nil
}

func (s *fakeStore) UpdatePipelineState(_ context.Context, state *schemas.ContactPipelineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, st := range s.states {
		if st.ID == state.ID {
			s.states[i] = state
			return nil
		}
	}
	s.states = append(s.states, state)
	return nil
}

func (s *fakeStore) ListPipelineStates(_ context.Context, contactID bson.ObjectID) ([]schemas.ContactPipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schemas.ContactPipelineState
	for _, st := range s.states {
		if st.ContactID == contactID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (s *fakeStore) TouchPipelineStates(_ context.Context, contactID bson.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.states {
		if st.ContactID == contactID {
			st.LastActivityAt = at
			st.UpdatedAt = at
		}
	}
	return nil
}

func (s *fakeStore) AppendStageHistory(_ context.Context, entry *schemas.ContactStageHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, entry)
	return nil
}

func (s *fakeStore) AppendAuditLog(_ context.Context, entry *schemas.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, entry)
	return nil
}

func (s *fakeStore) InsertInteraction(_ context.Context, interaction *schemas.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions = append(s.interactions, interaction)
	return nil
}

func (s *fakeStore) FindInteractionByExternalID(_ context.Context, externalID string) (*schemas.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, i := range s.interactions {
		if i.ExternalID == externalID {
			return i, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindInteractionsSince(_ context.Context, contactID bson.ObjectID, since time.Time) ([]schemas.Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []schemas.Interaction
	for _, i := range s.interactions {
		if i.ContactID == contactID && !i.OccurredAt.Before(since) {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].OccurredAt.After(out[b].OccurredAt)
	})
	return out, nil
}

func (s *fakeStore) NextOpenMeetingTask(_ context.Context, contactID bson.ObjectID, from time.Time) (*schemas.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *schemas.Task
	for _, t := range s.tasks {
		if t.ContactID != contactID || t.Type != schemas.TASK_TYPE_MEETING || t.Status != schemas.TASK_STATUS_OPEN {
			continue
		}
		if t.DueDate.Before(from) {
			continue
		}
		if next == nil || t.DueDate.Before(next.DueDate) {
			next = t
		}
	}
	return next, nil
}

func (s *fakeStore) FindSellsyLink(_ context.Context, contactID bson.ObjectID) (*schemas.SellsyLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sellsyLinks[contactID], nil
}

func (s *fakeStore) UpsertSnapshot(_ context.Context, snapshot *schemas.MetricsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[recomputeKey(snapshot.ContactID, snapshot.PipelineID)] = snapshot
	return nil
}

func (s *fakeStore) ListContactIDs(_ context.Context) ([]bson.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contactIDs, nil
}

// scheduleRecorder captures recompute requests handed to the engine's
// schedule hook.
type scheduleRecorder struct {
	calls []recomputeRequest
}

func (r *scheduleRecorder) Schedule(contactID bson.ObjectID, pipelineID *bson.ObjectID) {
	r.calls = append(r.calls, recomputeRequest{contactID: contactID, pipelineID: pipelineID})
}
