package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	INTERACTION_EMAIL_OUT    = "EMAIL_OUT"
	INTERACTION_EMAIL_IN     = "EMAIL_IN"
	INTERACTION_CALL         = "CALL"
	INTERACTION_MEETING      = "MEETING"
	INTERACTION_DEMO         = "DEMO"
	INTERACTION_WHATSAPP     = "WHATSAPP"
	INTERACTION_LINKEDIN     = "LINKEDIN"
	INTERACTION_NOTE         = "NOTE"
	INTERACTION_SELLSY_EVENT = "SELLSY_EVENT"
	INTERACTION_STAGE_CHANGE = "STAGE_CHANGE"

	INTERACTION_SOURCE_MANUAL = "MANUAL"
	INTERACTION_SOURCE_GMAIL  = "GMAIL"
	INTERACTION_SOURCE_SELLSY = "SELLSY"
	INTERACTION_SOURCE_SYSTEM = "SYSTEM"
)

// Interaction is an immutable touchpoint with a contact. ExternalID carries
// the upstream id for synced events and is the deduplication key.
type Interaction struct {
	ID         bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID  bson.ObjectID `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	Type       string        `json:"type,omitempty" bson:"type,omitempty"`
	OccurredAt time.Time     `json:"occurred_at" bson:"occurred_at,omitempty"`
	Source     string        `json:"source,omitempty" bson:"source,omitempty"`
	ExternalID string        `json:"external_id,omitempty" bson:"external_id,omitempty"`
	Summary    string        `json:"summary,omitempty" bson:"summary,omitempty"`
	Payload    bson.M        `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at,omitempty"`
}

// IsValidInteractionType reports whether t is one of the known touchpoint types.
func IsValidInteractionType(t string) bool {
	switch t {
	case INTERACTION_EMAIL_OUT, INTERACTION_EMAIL_IN, INTERACTION_CALL,
		INTERACTION_MEETING, INTERACTION_DEMO, INTERACTION_WHATSAPP,
		INTERACTION_LINKEDIN, INTERACTION_NOTE, INTERACTION_SELLSY_EVENT,
		INTERACTION_STAGE_CHANGE:
		return true
	}
	return false
}
