package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// SellsyLink mirrors the stage/amount/close-date of the opportunity linked to
// a contact in Sellsy. One per contact; read-only input to metrics.
type SellsyLink struct {
	ID              bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID       bson.ObjectID `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	SellsyPersonID  string        `json:"sellsy_person_id,omitempty" bson:"sellsy_person_id,omitempty"`
	OpportunityID   string        `json:"opportunity_id,omitempty" bson:"opportunity_id,omitempty"`
	SellsyStage     string        `json:"sellsy_stage,omitempty" bson:"sellsy_stage,omitempty"`
	SellsyAmount    *float64      `json:"sellsy_amount,omitempty" bson:"sellsy_amount,omitempty"`
	SellsyCloseDate *time.Time    `json:"sellsy_close_date,omitempty" bson:"sellsy_close_date,omitempty"`
	SyncedAt        time.Time     `json:"synced_at" bson:"synced_at,omitempty"`
}
