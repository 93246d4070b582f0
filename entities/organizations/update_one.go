package organizations

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

type updateOrganizationRequest struct {
	Name    *string `json:"name"`
	Domain  *string `json:"domain"`
	Country *string `json:"country"`
	Segment *string `json:"segment"`
	OwnerID *string `json:"owner_id"`
}

func UpdateOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &updateOrganizationRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, ORGANIZATIONS_INVALID_REQUEST_DATA)
		return
	}

	updateDoc := bson.D{}
	if req.Name != nil {
		updateDoc = append(updateDoc, bson.E{Key: "name", Value: *req.Name})
	}
	if req.Domain != nil {
		updateDoc = append(updateDoc, bson.E{Key: "domain", Value: *req.Domain})
	}
	if req.Country != nil {
		updateDoc = append(updateDoc, bson.E{Key: "country", Value: *req.Country})
	}
	if req.Segment != nil {
		updateDoc = append(updateDoc, bson.E{Key: "segment", Value: *req.Segment})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_ORGANIZATIONS)

	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: updateDoc}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_ORGANIZATION_IN_MONGODB)
		return
	}

	if result.MatchedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Organisation introuvable", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
