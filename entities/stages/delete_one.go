package stages

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DeleteOne removes an empty stage and closes the hole in the ladder by
// shifting the stages after it one position up. Occupied stages are refused
// with the number of contacts still placed there.
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
	collection := db.Collection(database.COLLECTION_PIPELINE_STAGES)

	stage := &schemas.PipelineStage{}
	err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(stage)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.SendResponse(w, http.StatusNotFound, "Étape introuvable", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGE_BY_ID_IN_MONGODB)
		}
		return
	}

	occupied, err := db.Collection(database.COLLECTION_PIPELINE_STATES).
		CountDocuments(ctx, bson.D{{Key: "current_stage_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_STAGE_IN_MONGODB)
		return
	}
	if occupied > 0 {
		utils.SendResponse(w, http.StatusConflict,
			fmt.Sprintf("%d contact(s) sont encore dans cette étape", occupied), nil, 0)
		return
	}

	if _, err = collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_STAGE_IN_MONGODB)
		return
	}

	_, err = collection.UpdateMany(ctx,
		bson.D{
			{Key: "pipeline_id", Value: stage.PipelineID},
			{Key: "order", Value: bson.D{{Key: "$gt", Value: stage.Order}}},
		},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "order", Value: -1}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_STAGE_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
