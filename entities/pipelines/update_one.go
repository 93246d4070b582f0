package pipelines

import (
	"api/database"
	"api/utils"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type updatePipelineRequest struct {
	Name           *string `json:"name"`
	StageType      *string `json:"stage_type"`
	IsDefault      *bool   `json:"is_default"`
	StaleAfterDays *int    `json:"stale_after_days"`
}

func UpdateOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &updatePipelineRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, PIPELINES_INVALID_REQUEST_DATA)
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_PIPELINES)

	now := time.Now()

	updateDoc := bson.D{}
	if req.Name != nil {
		updateDoc = append(updateDoc, bson.E{Key: "name", Value: *req.Name})
	}
	if req.StageType != nil {
		updateDoc = append(updateDoc, bson.E{Key: "stage_type", Value: *req.StageType})
	}
	if req.StaleAfterDays != nil {
		updateDoc = append(updateDoc, bson.E{Key: "stale_after_days", Value: *req.StaleAfterDays})
	}
	if req.IsDefault != nil {
		if *req.IsDefault {
			_, err = collection.UpdateMany(ctx,
				bson.D{{Key: "is_default", Value: true}},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "is_default", Value: false},
					{Key: "updated_at", Value: now},
				}}})
			if err != nil {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_PIPELINE_IN_MONGODB)
				return
			}
		}
		updateDoc = append(updateDoc, bson.E{Key: "is_default", Value: *req.IsDefault})
	}

	if len(updateDoc) == 0 {
		utils.SendResponse(w, http.StatusBadRequest, "Aucun champ à mettre à jour n'a été fourni", nil, 0)
		return
	}

	updateDoc = append(updateDoc, bson.E{Key: "updated_at", Value: now})

	filter := bson.D{{Key: "_id", Value: id}}
	update := bson.D{{Key: "$set", Value: updateDoc}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_PIPELINE_IN_MONGODB)
		return
	}

	if result.MatchedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
