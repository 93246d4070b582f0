package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	STAGE_TYPE_PROSPECTING = "PROSPECTING"
	STAGE_TYPE_RENEWAL     = "RENEWAL"
	STAGE_TYPE_PARTNERSHIP = "PARTNERSHIP"

	// DEFAULT_STALE_AFTER_DAYS applies when a contact is tracked outside any
	// pipeline or the pipeline has no threshold configured.
	DEFAULT_STALE_AFTER_DAYS = 14
)

type Pipeline struct {
	ID             bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name           string        `json:"name,omitempty" bson:"name,omitempty"`
	StageType      string        `json:"stage_type,omitempty" bson:"stage_type,omitempty"`
	IsDefault      bool          `json:"is_default" bson:"is_default"`
	StaleAfterDays int           `json:"stale_after_days,omitempty" bson:"stale_after_days,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at,omitempty"`
}

type PipelineStage struct {
	ID               bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PipelineID       bson.ObjectID `json:"pipeline_id,omitempty" bson:"pipeline_id,omitempty"`
	Name             string        `json:"name,omitempty" bson:"name,omitempty"`
	Order            int           `json:"order" bson:"order"`
	Color            string        `json:"color,omitempty" bson:"color,omitempty"`
	IsDefault        bool          `json:"is_default" bson:"is_default"`
	RequiresOwner    bool          `json:"requires_owner" bson:"requires_owner"`
	RequiresNextStep bool          `json:"requires_next_step" bson:"requires_next_step"`
	RequiresEmail    bool          `json:"requires_email" bson:"requires_email"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at,omitempty"`
}

// StaleThreshold returns the configured staleness threshold in days.
func (p *Pipeline) StaleThreshold() int {
	if p == nil || p.StaleAfterDays <= 0 {
		return DEFAULT_STALE_AFTER_DAYS
	}
	return p.StaleAfterDays
}
