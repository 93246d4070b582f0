package stages

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

type updateStageRequest struct {
	Name             *string `json:"name"`
	Color            *string `json:"color"`
	IsDefault        *bool   `json:"is_default"`
	RequiresOwner    *bool   `json:"requires_owner"`
	RequiresNextStep *bool   `json:"requires_next_step"`
	RequiresEmail    *bool   `json:"requires_email"`
}

func UpdateOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &updateStageRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, STAGES_INVALID_REQUEST_DATA)
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_PIPELINE_STAGES)

	now := time.Now()

	updateDoc := bson.D{}
	if req.Name != nil {
		updateDoc = append(updateDoc, bson.E{Key: "name", Value: *req.Name})
	}
	if req.Color != nil {
		updateDoc = append(updateDoc, bson.E{Key: "color", Value: *req.Color})
	}
	if req.RequiresOwner != nil {
		updateDoc = append(updateDoc, bson.E{Key: "requires_owner", Value: *req.RequiresOwner})
	}
	if req.RequiresNextStep != nil {
		updateDoc = append(updateDoc, bson.E{Key: "requires_next_step", Value: *req.RequiresNextStep})
	}
	if req.RequiresEmail != nil {
		updateDoc = append(updateDoc, bson.E{Key: "requires_email", Value: *req.RequiresEmail})
	}
	if req.IsDefault != nil {
		if *req.IsDefault {
			// The entry stage is unique per pipeline.
			stage := struct {
				PipelineID bson.ObjectID `bson:"pipeline_id"`
			}{}
			err = collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&stage)
			if err != nil {
				if err == mongo.ErrNoDocuments {
					utils.SendResponse(w, http.StatusNotFound, "Étape introuvable", nil, 0)
				} else {
					utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGE_BY_ID_IN_MONGODB)
				}
				return
			}

			_, err = collection.UpdateMany(ctx,
				bson.D{
					{Key: "pipeline_id", Value: stage.PipelineID},
					{Key: "is_default", Value: true},
				},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "is_default", Value: false},
					{Key: "updated_at", Value: now},
				}}})
			if err != nil {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_STAGE_IN_MONGODB)
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

	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: updateDoc}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_STAGE_IN_MONGODB)
		return
	}

	if result.MatchedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Étape introuvable", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
