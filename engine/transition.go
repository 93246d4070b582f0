package engine

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
	"api/utils"
)

type TransitionInput struct {
	ContactID    bson.ObjectID
	PipelineID   bson.ObjectID
	StageID      bson.ObjectID
	ActingUserID bson.ObjectID
	Reason       string
	// Status optionally overrides the lifecycle status (OPEN/WON/LOST).
	// Empty keeps the current one (OPEN on first placement).
	Status string
}

// Transition moves a contact to a stage within a pipeline: it maintains the
// current-state row, appends an immutable history entry and, when the
// contact was already placed, records a STAGE_CHANGE interaction and
// schedules a metrics recompute. Requirement flags on the target stage are
// NOT enforced here; callers run CheckStageRequirements beforehand if they
// want that policy.
func (e *Engine) Transition(ctx context.Context, in TransitionInput) (*schemas.ContactPipelineState, error) {
	if in.Status != "" &&
		in.Status != schemas.PIPELINE_STATUS_OPEN &&
		in.Status != schemas.PIPELINE_STATUS_WON &&
		in.Status != schemas.PIPELINE_STATUS_LOST {
		return nil, ErrInvalidStatus
	}

	pipeline, err := e.store.FindPipeline(ctx, in.PipelineID)
	if err != nil {
		return nil, err
	}
	if pipeline == nil {
		return nil, &NotFoundError{Resource: "pipeline", ID: in.PipelineID.Hex()}
	}

	stage, err := e.store.FindStage(ctx, in.StageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, &NotFoundError{Resource: "stage", ID: in.StageID.Hex()}
	}
	if stage.PipelineID != in.PipelineID {
		return nil, ErrStageOutsidePipeline
	}

	lock := e.stateLock(in.ContactID, in.PipelineID)
	lock.Lock()
	defer lock.Unlock()

	now := e.clock.Now()

	state, err := e.store.FindPipelineState(ctx, in.ContactID, in.PipelineID)
	if err != nil {
		return nil, err
	}

	if state == nil {
		// First placement: state + history only. No interaction and no
		// recompute in this branch.
		status := in.Status
		if status == "" {
			status = schemas.PIPELINE_STATUS_OPEN
		}

		state = &schemas.ContactPipelineState{
			ID:             bson.NewObjectID(),
			ContactID:      in.ContactID,
			PipelineID:     in.PipelineID,
			CurrentStageID: in.StageID,
			Status:         status,
			LastActivityAt: now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := e.store.CreatePipelineState(ctx, state); err != nil {
			return nil, err
		}

		if err := e.store.AppendStageHistory(ctx, &schemas.ContactStageHistory{
			ID:              bson.NewObjectID(),
			ContactID:       in.ContactID,
			PipelineID:      in.PipelineID,
			FromStageID:     nil,
			ToStageID:       in.StageID,
			ChangedByUserID: in.ActingUserID,
			ChangedAt:       now,
			Reason:          in.Reason,
		}); err != nil {
			return nil, err
		}

		if err := e.store.AppendAuditLog(ctx, &schemas.AuditLog{
			ID:           bson.NewObjectID(),
			UserID:       in.ActingUserID,
			Action:       "STAGE_CHANGE",
			ResourceType: "ContactPipelineState",
			ResourceID:   in.ContactID.Hex(),
			After:        bson.M{"stage_id": in.StageID.Hex()},
			CreatedAt:    now,
		}); err != nil {
			return nil, err
		}

		return state, nil
	}

	fromStageID := state.CurrentStageID

	var daysInPrevStage *int
	if !state.UpdatedAt.IsZero() {
		days := utils.DaysBetween(state.UpdatedAt, now)
		daysInPrevStage = &days
	}

	state.CurrentStageID = in.StageID
	if in.Status != "" {
		state.Status = in.Status
	}
	state.LastActivityAt = now
	state.UpdatedAt = now

	if err := e.store.UpdatePipelineState(ctx, state); err != nil {
		return nil, err
	}

	if err := e.store.AppendStageHistory(ctx, &schemas.ContactStageHistory{
		ID:              bson.NewObjectID(),
		ContactID:       in.ContactID,
		PipelineID:      in.PipelineID,
		FromStageID:     &fromStageID,
		ToStageID:       in.StageID,
		ChangedByUserID: in.ActingUserID,
		ChangedAt:       now,
		Reason:          in.Reason,
		DaysInPrevStage: daysInPrevStage,
	}); err != nil {
		return nil, err
	}

	summary := in.Reason
	if summary == "" {
		summary = "Stage changé"
	}
	if err := e.store.InsertInteraction(ctx, &schemas.Interaction{
		ID:         bson.NewObjectID(),
		ContactID:  in.ContactID,
		Type:       schemas.INTERACTION_STAGE_CHANGE,
		OccurredAt: now,
		Source:     schemas.INTERACTION_SOURCE_SYSTEM,
		Summary:    summary,
		Payload: bson.M{
			"from_stage_id": fromStageID.Hex(),
			"to_stage_id":   in.StageID.Hex(),
		},
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := e.store.AppendAuditLog(ctx, &schemas.AuditLog{
		ID:           bson.NewObjectID(),
		UserID:       in.ActingUserID,
		Action:       "STAGE_CHANGE",
		ResourceType: "ContactPipelineState",
		ResourceID:   in.ContactID.Hex(),
		Before:       bson.M{"stage_id": fromStageID.Hex()},
		After:        bson.M{"stage_id": in.StageID.Hex()},
		CreatedAt:    now,
	}); err != nil {
		return nil, err
	}

	pipelineID := in.PipelineID
	e.schedule(in.ContactID, &pipelineID)

	return state, nil
}
