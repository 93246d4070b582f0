package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
)

// RecordInteraction is the single insertion path for every
// interaction-producing collaborator (manual entry, sync jobs). It honors
// external_id deduplication and, on successful insert, bumps the contact's
// pipeline activity and schedules a recompute of the global snapshot.
// Returns false when the interaction was already known.
func (e *Engine) RecordInteraction(ctx context.Context, interaction *schemas.Interaction) (bool, error) {
	if !schemas.IsValidInteractionType(interaction.Type) {
		return false, ErrInvalidInteractionType
	}

	if interaction.ExternalID != "" {
		existing, err := e.store.FindInteractionByExternalID(ctx, interaction.ExternalID)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return false, nil
		}
	}

	now := e.clock.Now()
	if interaction.ID.IsZero() {
		interaction.ID = bson.NewObjectID()
	}
	if interaction.OccurredAt.IsZero() {
		interaction.OccurredAt = now
	}
	if interaction.Source == "" {
		interaction.Source = schemas.INTERACTION_SOURCE_MANUAL
	}
	interaction.CreatedAt = now

	if err := e.store.InsertInteraction(ctx, interaction); err != nil {
		return false, err
	}

	if err := e.store.TouchPipelineStates(ctx, interaction.ContactID, interaction.OccurredAt); err != nil {
		return false, err
	}

	e.schedule(interaction.ContactID, nil)

	return true, nil
}
