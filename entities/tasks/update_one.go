package tasks

import (
	"api/database"
	"api/schemas"
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

type updateTaskRequest struct {
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
	Notes   *string    `json:"notes"`
	OwnerID *string    `json:"owner_id"`
}

func UpdateOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &updateTaskRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, TASKS_INVALID_REQUEST_DATA)
		return
	}

	updateDoc := bson.D{}
	if req.Status != nil {
		if *req.Status != schemas.TASK_STATUS_OPEN &&
			*req.Status != schemas.TASK_STATUS_DONE &&
			*req.Status != schemas.TASK_STATUS_CANCELLED {
			utils.SendResponse(w, http.StatusBadRequest, "Statut de tâche invalide", nil, 0)
			return
		}
		updateDoc = append(updateDoc, bson.E{Key: "status", Value: *req.Status})
	}
	if req.DueDate != nil {
		updateDoc = append(updateDoc, bson.E{Key: "due_date", Value: *req.DueDate})
	}
	if req.Notes != nil {
		updateDoc = append(updateDoc, bson.E{Key: "notes", Value: *req.Notes})
	}
	if req.OwnerID != nil {
		if *req.OwnerID == "" {
			updateDoc = append(updateDoc, bson.E{Key: "owner_id", Value: nil})
		} else {
			ownerID, err := bson.ObjectIDFromHex(*req.OwnerID)
			if err != nil {
				utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
				return
			}
			updateDoc = append(updateDoc, bson.E{Key: "owner_id", Value: ownerID})
		}
	}

	if len(updateDoc) == 0 {
		utils.SendResponse(w, http.StatusBadRequest, "Aucun champ à mettre à jour n'a été fourni", nil, 0)
		return
	}

	updateDoc = append(updateDoc, bson.E{Key: "updated_at", Value: time.Now()})

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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_TASKS)

	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: updateDoc}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_TASK_IN_MONGODB)
		return
	}

	if result.MatchedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Tâche introuvable", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
