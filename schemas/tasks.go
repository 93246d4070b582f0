package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	TASK_TYPE_MEETING = "MEETING"
	TASK_TYPE_EMAIL   = "EMAIL"
	TASK_TYPE_CALL    = "CALL"

	TASK_STATUS_OPEN      = "OPEN"
	TASK_STATUS_DONE      = "DONE"
	TASK_STATUS_CANCELLED = "CANCELLED"
)

type Task struct {
	ID        bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ContactID bson.ObjectID  `json:"contact_id,omitempty" bson:"contact_id,omitempty"`
	OwnerID   *bson.ObjectID `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	Type      string         `json:"type,omitempty" bson:"type,omitempty"`
	Status    string         `json:"status,omitempty" bson:"status,omitempty"`
	DueDate   time.Time      `json:"due_date" bson:"due_date,omitempty"`
	Notes     string         `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at,omitempty"`
}
