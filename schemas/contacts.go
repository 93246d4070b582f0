package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	CONTACT_SOURCE_MANUAL = "MANUAL"
	CONTACT_SOURCE_IMPORT = "IMPORT"
	CONTACT_SOURCE_SEED   = "SEED"
	CONTACT_SOURCE_SYSTEM = "SYSTEM"
)

type Contact struct {
	ID        bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	OldID     string         `json:"old_id,omitempty" bson:"old_id,omitempty"`
	Firstname string         `json:"firstname,omitempty" bson:"firstname,omitempty"`
	Lastname  string         `json:"lastname,omitempty" bson:"lastname,omitempty"`
	Email     string         `json:"email,omitempty" bson:"email,omitempty"`
	Phone     string         `json:"phone,omitempty" bson:"phone,omitempty"`
	Title     string         `json:"title,omitempty" bson:"title,omitempty"`
	Tags      []string       `json:"tags,omitempty" bson:"tags,omitempty"`
	OrgID     *bson.ObjectID `json:"org_id,omitempty" bson:"org_id,omitempty"`
	OwnerID   *bson.ObjectID `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	Source    string         `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at,omitempty"`
}
