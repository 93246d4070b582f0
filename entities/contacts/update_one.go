package contacts

import (
	"api/database"
	"api/utils"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type updateContactRequest struct {
	Firstname *string   `json:"firstname"`
	Lastname  *string   `json:"lastname"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Title     *string   `json:"title"`
	Tags      *[]string `json:"tags"`
	OrgID     *string   `json:"org_id"`
	OwnerID   *string   `json:"owner_id"`
}

func UpdateOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &updateContactRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, CONTACTS_INVALID_REQUEST_DATA)
		return
	}

	updateDoc := bson.D{}
	if req.Firstname != nil {
		updateDoc = append(updateDoc, bson.E{Key: "firstname", Value: *req.Firstname})
	}
	if req.Lastname != nil {
		updateDoc = append(updateDoc, bson.E{Key: "lastname", Value: *req.Lastname})
	}
	if req.Email != nil {
		if *req.Email != "" {
			if _, err := mail.ParseAddress(*req.Email); err != nil {
				utils.SendResponse(w, http.StatusBadRequest, "L'adresse email est invalide", nil, 0)
				return
			}
		}
		updateDoc = append(updateDoc, bson.E{Key: "email", Value: *req.Email})
	}
	if req.Phone != nil {
		updateDoc = append(updateDoc, bson.E{Key: "phone", Value: *req.Phone})
	}
	if req.Title != nil {
		updateDoc = append(updateDoc, bson.E{Key: "title", Value: *req.Title})
	}
	if req.Tags != nil {
		updateDoc = append(updateDoc, bson.E{Key: "tags", Value: *req.Tags})
	}
	if req.OrgID != nil {
		if *req.OrgID == "" {
			updateDoc = append(updateDoc, bson.E{Key: "org_id", Value: nil})
		} else {
			orgID, err := bson.ObjectIDFromHex(*req.OrgID)
			if err != nil {
				utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
				return
			}
			updateDoc = append(updateDoc, bson.E{Key: "org_id", Value: orgID})
		}
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_CONTACTS)

	result, err := collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: updateDoc}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_CONTACT_IN_MONGODB)
		return
	}

	if result.MatchedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
