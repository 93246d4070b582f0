package snapshots

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

// Error codes 180-199.
const (
	SNAPSHOTS_INVALID_REQUEST_DATA = iota + 180
	CANNOT_FIND_SNAPSHOT_IN_MONGODB
	CANNOT_RECOMPUTE_METRICS
)

// GetOne returns the health snapshot of a contact. Without pipeline_id the
// global row is returned, with it the pipeline-scoped one.
func GetOne(w http.ResponseWriter, r *http.Request) {
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
	} else {
		filter = append(filter, bson.E{Key: "pipeline_id", Value: nil})
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

	snapshot := &schemas.MetricsSnapshot{}
	err = mongoClient.Database(database.GetDB()).
		Collection(database.COLLECTION_METRICS_SNAPSHOTS).
		FindOne(ctx, filter).Decode(snapshot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendResponse(w, http.StatusNotFound, "Aucun snapshot pour ce contact", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_SNAPSHOT_IN_MONGODB)
		}
		return
	}

	utils.SendResponse(w, http.StatusOK, "", snapshot, 0)
}
