package contacts

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"errors"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetOne returns the contact sheet: identity, pipeline placements, health
// snapshots and the most recent interactions.
func GetOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
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

	db := mongoClient.Database(database.GetDB())

	contact := &schemas.Contact{}
	err = db.Collection(database.COLLECTION_CONTACTS).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(contact)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		}
		return
	}

	states := []schemas.ContactPipelineState{}
	cursor, err := db.Collection(database.COLLECTION_PIPELINE_STATES).
		Find(ctx, bson.D{{Key: "contact_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}
	if err := cursor.All(ctx, &states); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}

	snapshots := []schemas.MetricsSnapshot{}
	cursor, err = db.Collection(database.COLLECTION_METRICS_SNAPSHOTS).
		Find(ctx, bson.D{{Key: "contact_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}
	if err := cursor.All(ctx, &snapshots); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(20)
	interactions := []schemas.Interaction{}
	cursor, err = db.Collection(database.COLLECTION_INTERACTIONS).
		Find(ctx, bson.D{{Key: "contact_id", Value: id}}, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}
	if err := cursor.All(ctx, &interactions); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", map[string]any{
		"contact":      contact,
		"states":       states,
		"snapshots":    snapshots,
		"interactions": interactions,
	}, 0)
}
