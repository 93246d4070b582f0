package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuditLog is the generic compliance trail, independent of the domain
// stage-history log.
type AuditLog struct {
	ID           bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       bson.ObjectID `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Action       string        `json:"action,omitempty" bson:"action,omitempty"`
	ResourceType string        `json:"resource_type,omitempty" bson:"resource_type,omitempty"`
	ResourceID   string        `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Before       bson.M        `json:"before,omitempty" bson:"before,omitempty"`
	After        bson.M        `json:"after,omitempty" bson:"after,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at,omitempty"`
}
