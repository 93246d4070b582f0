package schemas

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// IntegrationSettings holds per-user connector configuration. Tokens are
// stored encrypted by the auth layer; the sync jobs only read them.
type IntegrationSettings struct {
	ID     bson.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID bson.ObjectID `json:"user_id,omitempty" bson:"user_id,omitempty"`

	GmailEnabled  bool `json:"gmail_enabled" bson:"gmail_enabled"`
	SellsyEnabled bool `json:"sellsy_enabled" bson:"sellsy_enabled"`
	LegacyEnabled bool `json:"legacy_enabled" bson:"legacy_enabled"`

	GoogleAccessToken  string `json:"-" bson:"google_access_token,omitempty"`
	GoogleRefreshToken string `json:"-" bson:"google_refresh_token,omitempty"`
	SellsyAccessToken  string `json:"-" bson:"sellsy_access_token,omitempty"`

	LastGmailSyncAt  *time.Time `json:"last_gmail_sync_at,omitempty" bson:"last_gmail_sync_at,omitempty"`
	LastSellsySyncAt *time.Time `json:"last_sellsy_sync_at,omitempty" bson:"last_sellsy_sync_at,omitempty"`
	LastLegacySyncAt *time.Time `json:"last_legacy_sync_at,omitempty" bson:"last_legacy_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at,omitempty"`
}
