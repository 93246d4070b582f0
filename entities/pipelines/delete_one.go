package pipelines

import (
	"api/database"
	"api/utils"
	"context"
	"fmt"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func DeleteOne(w http.ResponseWriter, r *http.Request) {
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

	// A pipeline with placed contacts cannot be removed, otherwise their
	// states and history would point nowhere.
	occupied, err := db.Collection(database.COLLECTION_PIPELINE_STATES).
		CountDocuments(ctx, bson.D{{Key: "pipeline_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_PIPELINE_IN_MONGODB)
		return
	}
	if occupied > 0 {
		utils.SendResponse(w, http.StatusConflict,
			fmt.Sprintf("Le pipeline est utilisé par %d contact(s) et ne peut pas être supprimé", occupied), nil, 0)
		return
	}

	result, err := db.Collection(database.COLLECTION_PIPELINES).
		DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_PIPELINE_IN_MONGODB)
		return
	}

	if result.DeletedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable", nil, 0)
		return
	}

	if _, err = db.Collection(database.COLLECTION_PIPELINE_STAGES).
		DeleteMany(ctx, bson.D{{Key: "pipeline_id", Value: id}}); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_PIPELINE_IN_MONGODB)
		return
	}

	InvalidateBoardCache(ctx, id)

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
