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

func TestRecordInteractionFillsDefaults(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	stage := store.addStage(&schemas.PipelineStage{PipelineID: pipeline.ID})
	store.states = append(store.states, &schemas.ContactPipelineState{
		ID: bson.NewObjectID(), ContactID: contactID, PipelineID: pipeline.ID, CurrentStageID: stage.ID,
	})

	clock := &fakeClock{now: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)}
	recorder := &scheduleRecorder{}
	eng := New(store, clock, recorder.Schedule)

	interaction := &schemas.Interaction{
		ContactID: contactID,
		Type:      schemas.INTERACTION_CALL,
		Summary:   "Appel de suivi",
	}
	ingested, err := eng.RecordInteraction(context.Background(), interaction)
	require.NoError(t, err)
	assert.True(t, ingested)

	require.Len(t, store.interactions, 1)
	stored := store.interactions[0]
	assert.False(t, stored.ID.IsZero())
	assert.Equal(t, clock.now, stored.OccurredAt)
	assert.Equal(t, clock.now, stored.CreatedAt)
	assert.Equal(t, schemas.INTERACTION_SOURCE_MANUAL, stored.Source)

	// The contact's pipeline activity follows the interaction.
	assert.Equal(t, clock.now, store.states[0].LastActivityAt)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, contactID, recorder.calls[0].contactID)
	assert.Nil(t, recorder.calls[0].pipelineID)
}

func TestRecordInteractionKeepsProvidedFields(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()
	pipeline := store.addPipeline(&schemas.Pipeline{Name: "Ventes"})
	store.states = append(store.states, &schemas.ContactPipelineState{
		ID: bson.NewObjectID(), ContactID: contactID, PipelineID: pipeline.ID,
	})

	clock := &fakeClock{now: time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)}
	eng := New(store, clock, nil)

	occurredAt := clock.now.AddDate(0, 0, -3)
	ingested, err := eng.RecordInteraction(context.Background(), &schemas.Interaction{
		ContactID:  contactID,
		Type:       schemas.INTERACTION_EMAIL_IN,
		OccurredAt: occurredAt,
		Source:     schemas.INTERACTION_SOURCE_GMAIL,
		ExternalID: "gmail:abc123",
	})
	require.NoError(t, err)
	assert.True(t, ingested)

	stored := store.interactions[0]
	assert.Equal(t, occurredAt, stored.OccurredAt)
	assert.Equal(t, schemas.INTERACTION_SOURCE_GMAIL, stored.Source)
	assert.Equal(t, occurredAt, store.states[0].LastActivityAt)
}

func TestRecordInteractionDeduplicatesExternalID(t *testing.T) {
	store := newFakeStore()
	contactID := bson.NewObjectID()

	recorder := &scheduleRecorder{}
	eng := New(store, &fakeClock{now: time.Now()}, recorder.Schedule)
	ctx := context.Background()

	first, err := eng.RecordInteraction(ctx, &schemas.Interaction{
		ContactID:  contactID,
		Type:       schemas.INTERACTION_EMAIL_IN,
		ExternalID: "gmail:msg-1",
	})
	require.NoError(t, err)
	assert.True(t, first)

	second, err := eng.RecordInteraction(ctx, &schemas.Interaction{
		ContactID:  contactID,
		Type:       schemas.INTERACTION_EMAIL_IN,
		ExternalID: "gmail:msg-1",
	})
	require.NoError(t, err)
	assert.False(t, second)

	assert.Len(t, store.interactions, 1)
	assert.Len(t, recorder.calls, 1)
}

func TestRecordInteractionRejectsUnknownType(t *testing.T) {
	store := newFakeStore()
	eng := New(store, &fakeClock{now: time.Now()}, nil)

	ingested, err := eng.RecordInteraction(context.Background(), &schemas.Interaction{
		ContactID: bson.NewObjectID(),
		Type:      "FAX",
	})
	assert.ErrorIs(t, err, ErrInvalidInteractionType)
	assert.False(t, ingested)
	assert.Empty(t, store.interactions)
}
