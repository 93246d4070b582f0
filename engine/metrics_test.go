package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
)

var metricsNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return metricsNow.AddDate(0, 0, -n) }

func addInteraction(store *fakeStore, contactID bson.ObjectID, typ string, occurredAt time.Time) {
	store.interactions = append(store.interactions, &schemas.Interaction{
		ID:         bson.NewObjectID(),
		ContactID:  contactID,
		Type:       typ,
		OccurredAt: occurredAt,
		Source:     schemas.INTERACTION_SOURCE_MANUAL,
	})
}

func globalSnapshot(t *testing.T, store *fakeStore, contactID bson.ObjectID) *schemas.MetricsSnapshot {
	t.Helper()
	snapshot, ok := store.snapshots[recomputeKey(contactID, nil)]
	require.True(t, ok, "snapshot global absent")
	return snapshot
}

func TestRecomputeCountingWindows(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()

	addInteraction(store, contactID, schemas.INTERACTION_EMAIL_OUT, daysAgo(5))
	addInteraction(store, contactID, schemas.INTERACTION_CALL, daysAgo(95))
	addInteraction(store, contactID, schemas.INTERACTION_DEMO, daysAgo(95))
	addInteraction(store, contactID, schemas.INTERACTION_DEMO, daysAgo(185))

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	require.NoError(t, eng.Recompute(context.Background(), contactID, nil))

	snapshot := globalSnapshot(t, store, contactID)

	// The call and the demo at 95 days fall outside the 90-day counting
	// window; the demo still counts on its own 180-day horizon. The demo at
	// 185 days is gone entirely.
	assert.Equal(t, 1, snapshot.InteractionsCount)
	assert.Equal(t, 1, snapshot.EmailsOutCount)
	assert.Equal(t, 0, snapshot.CallsCount)
	assert.Equal(t, 1, snapshot.DemosCount)

	require.NotNil(t, snapshot.LastInteractionAt)
	assert.Equal(t, daysAgo(5), *snapshot.LastInteractionAt)
	require.NotNil(t, snapshot.LastDemoAt)
	assert.Equal(t, daysAgo(95), *snapshot.LastDemoAt)
	require.NotNil(t, snapshot.DaysSinceLastActivity)
	assert.Equal(t, 5, *snapshot.DaysSinceLastActivity)
}

func TestRecomputeReplyHeuristic(t *testing.T) {
	tests := []struct {
		name          string
		outAt, inAt   time.Time
		replyDetected bool
	}{
		{"réponse après le dernier envoi", daysAgo(10), daysAgo(4), true},
		{"envoi après la dernière réponse", daysAgo(4), daysAgo(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			contactID := bson.NewObjectID()
			addInteraction(store, contactID, schemas.INTERACTION_EMAIL_OUT, tt.outAt)
			addInteraction(store, contactID, schemas.INTERACTION_EMAIL_IN, tt.inAt)

			eng := New(store, &fakeClock{now: metricsNow}, nil)
			require.NoError(t, eng.Recompute(context.Background(), contactID, nil))

			snapshot := globalSnapshot(t, store, contactID)
			assert.Equal(t, tt.replyDetected, snapshot.ReplyDetected)
			if tt.replyDetected {
				require.NotNil(t, snapshot.LastReplyAt)
				assert.Equal(t, tt.inAt, *snapshot.LastReplyAt)
			} else {
				assert.Nil(t, snapshot.LastReplyAt)
			}

			require.NotNil(t, snapshot.LastEmailAt)
			assert.Equal(t, daysAgo(4), *snapshot.LastEmailAt)
		})
	}
}

func TestRecomputeStaleness(t *testing.T) {
	tests := []struct {
		name           string
		lastActivity   *time.Time
		staleAfterDays int
		staleFlag      bool
	}{
		{"au seuil par défaut", ptrTime(daysAgo(14)), 0, false},
		{"au-delà du seuil par défaut", ptrTime(daysAgo(15)), 0, true},
		{"seuil du pipeline plus large", ptrTime(daysAgo(15)), 30, false},
		{"au-delà du seuil du pipeline", ptrTime(daysAgo(31)), 30, true},
		{"aucune activité", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			contactID := bson.NewObjectID()
			pipeline := store.addPipeline(&schemas.Pipeline{
				Name:           "Ventes",
				StaleAfterDays: tt.staleAfterDays,
			})
			if tt.lastActivity != nil {
				addInteraction(store, contactID, schemas.INTERACTION_NOTE, *tt.lastActivity)
			}

			eng := New(store, &fakeClock{now: metricsNow}, nil)
			pipelineID := pipeline.ID
			require.NoError(t, eng.Recompute(context.Background(), contactID, &pipelineID))

			snapshot, ok := store.snapshots[recomputeKey(contactID, &pipelineID)]
			require.True(t, ok)
			assert.Equal(t, tt.staleFlag, snapshot.StaleFlag)
			if tt.lastActivity == nil {
				assert.Nil(t, snapshot.DaysSinceLastActivity)
			}
		})
	}
}

func TestRecomputeNextStepMissing(t *testing.T) {
	nextStepAt := daysAgo(-2)

	tests := []struct {
		name             string
		requiresNextStep bool
		nextStepAt       *time.Time
		nextStepType     string
		missing          bool
	}{
		{"étape exigeante sans prochaine étape", true, nil, "", true},
		{"date planifiée", true, &nextStepAt, "", false},
		{"type planifié", true, nil, "RELANCE", false},
		{"étape sans exigence", false, nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			contactID := bson.NewObjectID()
			pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
			stage := store.addStage(&schemas.PipelineStage{
				PipelineID:       pipeline.ID,
				RequiresNextStep: tt.requiresNextStep,
			})
			store.states = append(store.states, &schemas.ContactPipelineState{
				ID:             bson.NewObjectID(),
				ContactID:      contactID,
				PipelineID:     pipeline.ID,
				CurrentStageID: stage.ID,
				Status:         schemas.PIPELINE_STATUS_OPEN,
				NextStepAt:     tt.nextStepAt,
				NextStepType:   tt.nextStepType,
			})

			eng := New(store, &fakeClock{now: metricsNow}, nil)
			pipelineID := pipeline.ID
			require.NoError(t, eng.Recompute(context.Background(), contactID, &pipelineID))

			snapshot, ok := store.snapshots[recomputeKey(contactID, &pipelineID)]
			require.True(t, ok)
			assert.Equal(t, tt.missing, snapshot.NextStepMissing)
		})
	}
}

func TestRecomputeNextMeeting(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()

	store.tasks = append(store.tasks,
		&schemas.Task{ContactID: contactID, Type: schemas.TASK_TYPE_MEETING, Status: schemas.TASK_STATUS_OPEN, DueDate: daysAgo(-7)},
		&schemas.Task{ContactID: contactID, Type: schemas.TASK_TYPE_MEETING, Status: schemas.TASK_STATUS_OPEN, DueDate: daysAgo(-2)},
		&schemas.Task{ContactID: contactID, Type: schemas.TASK_TYPE_MEETING, Status: schemas.TASK_STATUS_DONE, DueDate: daysAgo(-1)},
		&schemas.Task{ContactID: contactID, Type: schemas.TASK_TYPE_CALL, Status: schemas.TASK_STATUS_OPEN, DueDate: daysAgo(-1)},
		&schemas.Task{ContactID: contactID, Type: schemas.TASK_TYPE_MEETING, Status: schemas.TASK_STATUS_OPEN, DueDate: daysAgo(3)},
	)

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	require.NoError(t, eng.Recompute(context.Background(), contactID, nil))

	snapshot := globalSnapshot(t, store, contactID)
	require.NotNil(t, snapshot.NextMeetingAt)
	assert.Equal(t, daysAgo(-2), *snapshot.NextMeetingAt)
}

func TestRecomputeSellsyMirror(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()

	amount := 12500.0
	closeDate := daysAgo(-30)
	store.sellsyLinks[contactID] = &schemas.SellsyLink{
		ContactID:       contactID,
		OpportunityID:   "opp-42",
		SellsyStage:     "negotiation",
		SellsyAmount:    &amount,
		SellsyCloseDate: &closeDate,
	}

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	require.NoError(t, eng.Recompute(context.Background(), contactID, nil))

	snapshot := globalSnapshot(t, store, contactID)
	assert.Equal(t, "negotiation", snapshot.SellsyStage)
	require.NotNil(t, snapshot.SellsyAmount)
	assert.Equal(t, amount, *snapshot.SellsyAmount)
	require.NotNil(t, snapshot.SellsyCloseDate)
	assert.Equal(t, closeDate, *snapshot.SellsyCloseDate)
}

func TestRecomputeReplacesWholeRow(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()
	addInteraction(store, contactID, schemas.INTERACTION_EMAIL_OUT, daysAgo(5))

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	ctx := context.Background()

	require.NoError(t, eng.Recompute(ctx, contactID, nil))
	assert.Equal(t, 1, globalSnapshot(t, store, contactID).EmailsOutCount)

	// When the source signal disappears the replaced row must not keep the
	// old value.
	store.interactions = nil
	require.NoError(t, eng.Recompute(ctx, contactID, nil))
	snapshot := globalSnapshot(t, store, contactID)
	assert.Equal(t, 0, snapshot.EmailsOutCount)
	assert.Nil(t, snapshot.LastInteractionAt)
	assert.Len(t, store.snapshots, 1)
}

func TestRecomputeContact(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()
	pipelineA := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	pipelineB := store.addPipeline(&schemas.Pipeline{Name: "Partenariats"})
	stageA := store.addStage(&schemas.PipelineStage{PipelineID: pipelineA.ID})
	stageB := store.addStage(&schemas.PipelineStage{PipelineID: pipelineB.ID})

	store.states = append(store.states,
		&schemas.ContactPipelineState{ID: bson.NewObjectID(), ContactID: contactID, PipelineID: pipelineA.ID, CurrentStageID: stageA.ID},
		&schemas.ContactPipelineState{ID: bson.NewObjectID(), ContactID: contactID, PipelineID: pipelineB.ID, CurrentStageID: stageB.ID},
	)

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	require.NoError(t, eng.RecomputeContact(context.Background(), contactID))

	assert.Len(t, store.snapshots, 2)
	pipelineAID := pipelineA.ID
	pipelineBID := pipelineB.ID
	assert.Contains(t, store.snapshots, recomputeKey(contactID, &pipelineAID))
	assert.Contains(t, store.snapshots, recomputeKey(contactID, &pipelineBID))
}

func TestRecomputeAll(t *testing.T) {
	store := newFakeStore()
	placed := bson.NewObjectID()
	unplaced := bson.NewObjectID()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})

	store.states = append(store.states, &schemas.ContactPipelineState{
		ID: bson.NewObjectID(), ContactID: placed, PipelineID: pipeline.ID, CurrentStageID: stage.ID,
	})
	store.contactIDs = []bson.ObjectID{placed, unplaced}

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	count, err := eng.RecomputeAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	pipelineID := pipeline.ID
	assert.Contains(t, store.snapshots, recomputeKey(placed, &pipelineID))
	assert.Contains(t, store.snapshots, recomputeKey(unplaced, nil))
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestPlacementThenInactivityGoesStale(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes", StaleAfterDays: 14})
	stage := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID, Name: "Prospect"})

	eng := New(store, &fakeClock{now: metricsNow}, nil)
	contactID := bson.NewObjectID()
	ctx := context.Background()

	state, err := eng.Transition(ctx, TransitionInput{
		ContactID:  contactID,
		PipelineID: pipeline.ID,
		StageID:    stage.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, schemas.PIPELINE_STATUS_OPEN, state.Status)
	assert.Equal(t, stage.ID, state.CurrentStageID)

	ingested, err := eng.RecordInteraction(ctx, &schemas.Interaction{
		ContactID:  contactID,
		Type:       schemas.INTERACTION_EMAIL_OUT,
		OccurredAt: daysAgo(20),
	})
	require.NoError(t, err)
	require.True(t, ingested)

	pipelineID := pipeline.ID
	require.NoError(t, eng.Recompute(ctx, contactID, &pipelineID))

	snapshot, ok := store.snapshots[recomputeKey(contactID, &pipelineID)]
	require.True(t, ok)
	assert.Equal(t, 1, snapshot.EmailsOutCount)
	require.NotNil(t, snapshot.DaysSinceLastActivity)
	assert.Equal(t, 20, *snapshot.DaysSinceLastActivity)
	assert.True(t, snapshot.StaleFlag)
	assert.False(t, snapshot.NextStepMissing)
}

// failingStatesStore makes ListPipelineStates fail for one contact.
type failingStatesStore struct {
	*fakeStore
	failFor bson.ObjectID
}

func (s *failingStatesStore) ListPipelineStates(ctx context.Context, contactID bson.ObjectID) ([]schemas.ContactPipelineState, error) {
	if contactID == s.failFor {
		return nil, assert.AnError
	}
	return s.fakeStore.ListPipelineStates(ctx, contactID)
}

func TestRecomputeAllSkipsFailingContact(t *testing.T) {
	store := newFakeStore()
	broken := bson.NewObjectID()
	healthy := bson.NewObjectID()
	store.contactIDs = []bson.ObjectID{broken, healthy}

	eng := New(&failingStatesStore{fakeStore: store, failFor: broken}, &fakeClock{now: metricsNow}, nil)
	count, err := eng.RecomputeAll(context.Background())
	require.NoError(t, err)

	// The broken contact is logged and skipped, never aborting the batch.
	assert.Equal(t, 2, count)
	assert.Contains(t, store.snapshots, recomputeKey(healthy, nil))
	assert.NotContains(t, store.snapshots, recomputeKey(broken, nil))
}
