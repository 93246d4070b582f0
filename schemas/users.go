package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	ROLE_SALES   = "SALES"
	ROLE_MANAGER = "MANAGER"
	ROLE_ADMIN   = "ADMIN"
)

type User struct {
	ID        bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string        `json:"name" bson:"name"`
	Email     string        `json:"email" bson:"email"`
	Role      string        `json:"role" bson:"role"`
	Image     string        `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// RoleLevel maps roles to the hierarchy SALES < MANAGER < ADMIN.
func RoleLevel(role string) int {
	switch role {
	case ROLE_ADMIN:
		return 3
	case ROLE_MANAGER:
		return 2
	case ROLE_SALES:
		return 1
	}
	return 0
}
