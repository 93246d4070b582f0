package history

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Error codes 260-279.
const (
	CANNOT_FIND_HISTORY_IN_MONGODB = iota + 260
)

// GetAll returns the stage journey of one contact, most recent move first.
// The underlying collection is append-only, so this is the full audit trail
// of where the contact has been.
func GetAll(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	contactID, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	filter := bson.D{{Key: "contact_id", Value: contactID}}

	if pipelineStr := r.URL.Query().Get("pipeline_id"); pipelineStr != "" {
		pipelineID, err := bson.ObjectIDFromHex(pipelineStr)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		filter = append(filter, bson.E{Key: "pipeline_id", Value: pipelineID})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_STAGE_HISTORY)

	findOpts := options.Find().SetSort(bson.D{{Key: "changed_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_HISTORY_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	entries := []schemas.ContactStageHistory{}
	if err := cursor.All(ctx, &entries); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_HISTORY_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", entries, 0)
}
