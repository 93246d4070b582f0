package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Organization struct {
	ID        bson.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string         `json:"name,omitempty" bson:"name,omitempty"`
	Domain    string         `json:"domain,omitempty" bson:"domain,omitempty"`
	Country   string         `json:"country,omitempty" bson:"country,omitempty"`
	Segment   string         `json:"segment,omitempty" bson:"segment,omitempty"`
	OwnerID   *bson.ObjectID `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at,omitempty"`
}
