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

func TestTransitionFirstPlacement(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID, Name: "Prospect"})

	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	recorder := &scheduleRecorder{}
	eng := New(store, clock, recorder.Schedule)

	contactID := bson.NewObjectID()
	userID := bson.NewObjectID()

	state, err := eng.Transition(context.Background(), TransitionInput{
		ContactID:    contactID,
		PipelineID:   pipeline.ID,
		StageID:      stage.ID,
		ActingUserID: userID,
	})
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, stage.ID, state.CurrentStageID)
	assert.Equal(t, schemas.PIPELINE_STATUS_OPEN, state.Status)
	assert.Equal(t, clock.now, state.LastActivityAt)
	assert.False(t, state.ID.IsZero())

	require.Len(t, store.history, 1)
	assert.Nil(t, store.history[0].FromStageID)
	assert.Equal(t, stage.ID, store.history[0].ToStageID)
	assert.Equal(t, userID, store.history[0].ChangedByUserID)
	assert.Nil(t, store.history[0].DaysInPrevStage)

	// First placement records no interaction and triggers no recompute.
	assert.Empty(t, store.interactions)
	assert.Empty(t, recorder.calls)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "STAGE_CHANGE", store.audits[0].Action)
	assert.Nil(t, store.audits[0].Before)
}

func TestTransitionBetweenStages(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage1 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID, Name: "Prospect"})
	stage2 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID, Name: "Qualification"})

	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	recorder := &scheduleRecorder{}
	eng := New(store, clock, recorder.Schedule)

	contactID := bson.NewObjectID()
	userID := bson.NewObjectID()
	ctx := context.Background()

	_, err := eng.Transition(ctx, TransitionInput{
		ContactID: contactID, PipelineID: pipeline.ID, StageID: stage1.ID, ActingUserID: userID,
	})
	require.NoError(t, err)

	clock.Advance(3*24*time.Hour + 6*time.Hour)

	state, err := eng.Transition(ctx, TransitionInput{
		ContactID:    contactID,
		PipelineID:   pipeline.ID,
		StageID:      stage2.ID,
		ActingUserID: userID,
		Reason:       "Besoin qualifié",
	})
	require.NoError(t, err)

	assert.Equal(t, stage2.ID, state.CurrentStageID)
	assert.Equal(t, clock.now, state.LastActivityAt)

	require.Len(t, store.history, 2)
	entry := store.history[1]
	require.NotNil(t, entry.FromStageID)
	assert.Equal(t, stage1.ID, *entry.FromStageID)
	assert.Equal(t, stage2.ID, entry.ToStageID)
	assert.Equal(t, "Besoin qualifié", entry.Reason)
	require.NotNil(t, entry.DaysInPrevStage)
	assert.Equal(t, 3, *entry.DaysInPrevStage)

	require.Len(t, store.interactions, 1)
	interaction := store.interactions[0]
	assert.Equal(t, schemas.INTERACTION_STAGE_CHANGE, interaction.Type)
	assert.Equal(t, schemas.INTERACTION_SOURCE_SYSTEM, interaction.Source)
	assert.Equal(t, "Besoin qualifié", interaction.Summary)
	assert.Equal(t, stage1.ID.Hex(), interaction.Payload["from_stage_id"])
	assert.Equal(t, stage2.ID.Hex(), interaction.Payload["to_stage_id"])

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, contactID, recorder.calls[0].contactID)
	require.NotNil(t, recorder.calls[0].pipelineID)
	assert.Equal(t, pipeline.ID, *recorder.calls[0].pipelineID)

	require.Len(t, store.audits, 2)
	assert.Equal(t, stage1.ID.Hex(), store.audits[1].Before["stage_id"])
	assert.Equal(t, stage2.ID.Hex(), store.audits[1].After["stage_id"])
}

func TestTransitionDefaultSummary(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage1 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})
	stage2 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})

	eng := New(store, &fakeClock{now: time.Now()}, nil)
	contactID := bson.NewObjectID()
	ctx := context.Background()

	_, err := eng.Transition(ctx, TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: stage1.ID})
	require.NoError(t, err)
	_, err = eng.Transition(ctx, TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: stage2.ID})
	require.NoError(t, err)

	require.Len(t, store.interactions, 1)
	assert.Equal(t, "Stage changé", store.interactions[0].Summary)
}

func TestTransitionStatusOverride(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage1 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})
	stage2 := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID, Name: "Gagné"})

	eng := New(store, &fakeClock{now: time.Now()}, nil)
	contactID := bson.NewObjectID()
	ctx := context.Background()

	_, err := eng.Transition(ctx, TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: stage1.ID})
	require.NoError(t, err)

	state, err := eng.Transition(ctx, TransitionInput{
		ContactID:  contactID,
		PipelineID: pipeline.ID,
		StageID:    stage2.ID,
		Status:     schemas.PIPELINE_STATUS_WON,
	})
	require.NoError(t, err)
	assert.Equal(t, schemas.PIPELINE_STATUS_WON, state.Status)
}

func TestTransitionErrors(t *testing.T) {
	store := newFakeStore()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})
	otherPipeline := store.addPipeline(&schemas.Pipeline{Name: "Partenariats"})
	foreignStage := store.addStage(&schemas.PipelineStage{PipelineID: otherPipeline.ID})

	eng := New(store, &fakeClock{now: time.Now()}, nil)
	contactID := bson.NewObjectID()

	tests := []struct {
		name  string
		input TransitionInput
		check func(t *testing.T, err error)
	}{
		{
			name:  "pipeline inconnu",
			input: TransitionInput{ContactID: contactID, PipelineID: bson.NewObjectID(), StageID: stage.ID},
			check: func(t *testing.T, err error) { assert.True(t, IsNotFound(err)) },
		},
		{
			name:  "étape inconnue",
			input: TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: bson.NewObjectID()},
			check: func(t *testing.T, err error) { assert.True(t, IsNotFound(err)) },
		},
		{
			name:  "étape d'un autre pipeline",
			input: TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: foreignStage.ID},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrStageOutsidePipeline) },
		},
		{
			name:  "statut invalide",
			input: TransitionInput{ContactID: contactID, PipelineID: pipeline.ID, StageID: stage.ID, Status: "PAUSED"},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrInvalidStatus) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := eng.Transition(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, state)
			tt.check(t, err)
		})
	}

	assert.Empty(t, store.states)
	assert.Empty(t, store.history)
}
