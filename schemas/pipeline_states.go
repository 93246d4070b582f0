package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	PIPELINE_STATUS_OPEN = "OPEN"
	PIPELINE_STATUS_WON  = "WON"
	PIPELINE_STATUS_LOST = "LOST"
)

// ContactPipelineState is the current position of one contact inside one
// pipeline. Unique per (contact_id, pipeline_id).
type ContactPipelineState struct {
	ID             bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID      bson.ObjectID `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	PipelineID     bson.ObjectID `json:"pipeline_id,omitempty" bson:"pipeline_id,omitempty"`
	CurrentStageID bson.ObjectID `json:"current_stage_id,omitempty" bson:"current_stage_id,omitempty"`
	Status         string        `json:"status,omitempty" bson:"status,omitempty"`
	LastActivityAt time.Time     `json:"last_activity_at" bson:"last_activity_at,omitempty"`
	NextStepAt     *time.Time    `json:"next_step_at,omitempty" bson:"next_step_at,omitempty"`
	NextStepType   string        `json:"next_step_type,omitempty" bson:"next_step_type,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at,omitempty"`
}

// ContactStageHistory is append-only. Rows are never updated or deleted.
type ContactStageHistory struct {
	ID              bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID       bson.ObjectID  `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	PipelineID      bson.ObjectID  `json:"pipeline_id,omitempty" bson:"pipeline_id,omitempty"`
	FromStageID     *bson.ObjectID `json:"from_stage_id,omitempty" bson:"from_stage_id,omitempty"`
	ToStageID       bson.ObjectID  `json:"to_stage_id,omitempty" bson:"to_stage_id,omitempty"`
	ChangedByUserID bson.ObjectID  `json:"changed_by_user_id,omitempty" bson:"changed_by_user_id,omitempty"`
	ChangedAt       time.Time      `json:"changed_at" bson:"changed_at,omitempty"`
	Reason          string         `json:"reason,omitempty" bson:"reason,omitempty"`
	DaysInPrevStage *int           `json:"days_in_prev_stage,omitempty" bson:"days_in_prev_stage,omitempty"`
}
