package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// MetricsSnapshot is the derived health projection for one contact, either
// scoped to one pipeline or global (PipelineID nil). It is always fully
// replaced on recompute, never patched field by field.
type MetricsSnapshot struct {
	ID         bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID  bson.ObjectID  `json:"contact_id" bson:"contact_id"`
	PipelineID *bson.ObjectID `json:"pipeline_id,omitempty" bson:"pipeline_id"`

	InteractionsCount int `json:"interactions_count" bson:"interactions_count"`
	EmailsOutCount    int `json:"emails_out_count" bson:"emails_out_count"`
	EmailsInCount     int `json:"emails_in_count" bson:"emails_in_count"`
	MeetingsCount     int `json:"meetings_count" bson:"meetings_count"`
	DemosCount        int `json:"demos_count" bson:"demos_count"`
	CallsCount        int `json:"calls_count" bson:"calls_count"`

	LastInteractionAt *time.Time `json:"last_interaction_at,omitempty" bson:"last_interaction_at"`
	LastEmailAt       *time.Time `json:"last_email_at,omitempty" bson:"last_email_at"`
	LastEmailOutAt    *time.Time `json:"last_email_out_at,omitempty" bson:"last_email_out_at"`
	LastEmailInAt     *time.Time `json:"last_email_in_at,omitempty" bson:"last_email_in_at"`
	LastMeetingAt     *time.Time `json:"last_meeting_at,omitempty" bson:"last_meeting_at"`
	LastDemoAt        *time.Time `json:"last_demo_at,omitempty" bson:"last_demo_at"`
	NextMeetingAt     *time.Time `json:"next_meeting_at,omitempty" bson:"next_meeting_at"`

	ReplyDetected         bool       `json:"reply_detected" bson:"reply_detected"`
	LastReplyAt           *time.Time `json:"last_reply_at,omitempty" bson:"last_reply_at"`
	DaysSinceLastActivity *int       `json:"days_since_last_activity,omitempty" bson:"days_since_last_activity"`
	StaleFlag             bool       `json:"stale_flag" bson:"stale_flag"`
	NextStepMissing       bool       `json:"next_step_missing" bson:"next_step_missing"`

	SellsyStage     string     `json:"sellsy_stage,omitempty" bson:"sellsy_stage,omitempty"`
	SellsyAmount    *float64   `json:"sellsy_amount,omitempty" bson:"sellsy_amount"`
	SellsyCloseDate *time.Time `json:"sellsy_close_date,omitempty" bson:"sellsy_close_date"`

	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
