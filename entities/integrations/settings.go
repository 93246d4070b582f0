package integrations

import (
	"api/database"
	"api/middlewares"
	"api/schemas"
	"api/utils"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Error codes 300-319.
const (
	INTEGRATIONS_INVALID_REQUEST_DATA = iota + 300
	CANNOT_FIND_SETTINGS_IN_MONGODB
	CANNOT_UPDATE_SETTINGS_IN_MONGODB
	CANNOT_SYNC_GMAIL
	CANNOT_SYNC_SELLSY
	CANNOT_IMPORT_LEGACY_CONTACTS
	CRON_UNAUTHORIZED
	SNAPSHOT_RECOMPUTE_FAILED
)

func currentUserID(r *http.Request) (bson.ObjectID, bool) {
	user, ok := middlewares.CurrentUser(r)
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(user.ID)
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

// GetSettings returns the connector configuration of the calling user.
func GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		utils.SendResponse(w, http.StatusUnauthorized, "Session invalide", nil, 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), database.MONGO_TIMEOUT)
	defer cancel()

	mongoURI := os.Getenv(utils.MONGODB_URI)
	opts := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(opts)
	if err != nil {
		utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.CANNOT_CONNECT_TO_MONGODB)
		return
	}
	defer mongoClient.Disconnect(ctx)

	settings := &schemas.IntegrationSettings{}
	err = mongoClient.Database(database.GetDB()).
		Collection(database.COLLECTION_INTEGRATION_SETTINGS).
		FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendResponse(w, http.StatusOK, "", schemas.IntegrationSettings{UserID: userID}, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_SETTINGS_IN_MONGODB)
		}
		return
	}

	utils.SendResponse(w, http.StatusOK, "", settings, 0)
}

type updateSettingsRequest struct {
	GmailEnabled       *bool   `json:"gmail_enabled"`
	SellsyEnabled      *bool   `json:"sellsy_enabled"`
	LegacyEnabled      *bool   `json:"legacy_enabled"`
	GoogleAccessToken  *string `json:"google_access_token"`
	GoogleRefreshToken *string `json:"google_refresh_token"`
	SellsyAccessToken  *string `json:"sellsy_access_token"`
}

// UpdateSettings upserts the connector configuration of the calling user.
func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		utils.SendResponse(w, http.StatusUnauthorized, "Session invalide", nil, 0)
		return
	}

	req := &updateSettingsRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, INTEGRATIONS_INVALID_REQUEST_DATA)
		return
	}

	now := time.Now()

	updateDoc := bson.D{}
	if req.GmailEnabled != nil {
		updateDoc = append(updateDoc, bson.E{Key: "gmail_enabled", Value: *req.GmailEnabled})
	}
	if req.SellsyEnabled != nil {
		updateDoc = append(updateDoc, bson.E{Key: "sellsy_enabled", Value: *req.SellsyEnabled})
	}
	if req.LegacyEnabled != nil {
		updateDoc = append(updateDoc, bson.E{Key: "legacy_enabled", Value: *req.LegacyEnabled})
	}
	if req.GoogleAccessToken != nil {
		updateDoc = append(updateDoc, bson.E{Key: "google_access_token", Value: *req.GoogleAccessToken})
	}
	if req.GoogleRefreshToken != nil {
		updateDoc = append(updateDoc, bson.E{Key: "google_refresh_token", Value: *req.GoogleRefreshToken})
	}
	if req.SellsyAccessToken != nil {
		updateDoc = append(updateDoc, bson.E{Key: "sellsy_access_token", Value: *req.SellsyAccessToken})
	}

	if len(updateDoc) == 0 {
		utils.SendResponse(w, http.StatusBadRequest, "Aucun champ à mettre à jour n'a été fourni", nil, 0)
		return
	}

	updateDoc = append(updateDoc, bson.E{Key: "updated_at", Value: now})

	ctx, cancel := context.WithTimeout(context.Background(), database.MONGO_TIMEOUT)
	defer cancel()

	mongoURI := os.Getenv(utils.MONGODB_URI)
	opts := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(opts)
	if err != nil {
		utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.CANNOT_CONNECT_TO_MONGODB)
		return
	}
	defer mongoClient.Disconnect(ctx)

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_INTEGRATION_SETTINGS)

	updateOpts := options.UpdateOne().SetUpsert(true)
	_, err = collection.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{
			{Key: "$set", Value: updateDoc},
			{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
		},
		updateOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_SETTINGS_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
