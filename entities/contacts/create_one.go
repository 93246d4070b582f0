package contacts

import (
	"api/database"
	"api/schemas"
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

func CreateOne(w http.ResponseWriter, r *http.Request) {
	contact := &schemas.Contact{}
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, CONTACTS_INVALID_REQUEST_DATA)
		return
	}

	if contact.Firstname == "" && contact.Lastname == "" {
		utils.SendResponse(w, http.StatusBadRequest, "Le contact doit avoir au moins un nom", nil, 0)
		return
	}

	if contact.Email != "" {
		if _, err := mail.ParseAddress(contact.Email); err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "L'adresse email est invalide", nil, 0)
			return
		}
	}

	now := time.Now()
	contact.ID = bson.NewObjectID()
	if contact.Source == "" {
		contact.Source = schemas.CONTACT_SOURCE_MANUAL
	}
	contact.CreatedAt = now
	contact.UpdatedAt = now

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

	if _, err = collection.InsertOne(ctx, contact); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_CONTACT_TO_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", contact, 0)
}
