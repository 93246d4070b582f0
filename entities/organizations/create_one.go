package organizations

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

// Error codes 220-239.
const (
	ORGANIZATIONS_INVALID_REQUEST_DATA = iota + 220
	CANNOT_INSERT_ORGANIZATION_TO_MONGODB
	CANNOT_FIND_ORGANIZATIONS_IN_MONGODB
	CANNOT_FIND_ORGANIZATION_BY_ID_IN_MONGODB
	CANNOT_UPDATE_ORGANIZATION_IN_MONGODB
)

func CreateOne(w http.ResponseWriter, r *http.Request) {
	organization := &schemas.Organization{}
	if err := json.NewDecoder(r.Body).Decode(&organization); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, ORGANIZATIONS_INVALID_REQUEST_DATA)
		return
	}

	if organization.Name == "" {
		utils.SendResponse(w, http.StatusBadRequest, "Le nom de l'organisation est obligatoire", nil, 0)
		return
	}

	now := time.Now()
	organization.ID = bson.NewObjectID()
	organization.CreatedAt = now
	organization.UpdatedAt = now

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

	if _, err = collection.InsertOne(ctx, organization); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_ORGANIZATION_TO_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", organization, 0)
}
