package users

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Error codes 240-259.
const (
	USERS_INVALID_REQUEST_DATA = iota + 240
	CANNOT_FIND_USERS_IN_MONGODB
	CANNOT_FIND_USER_BY_ID_IN_MONGODB
	CANNOT_UPDATE_USER_IN_MONGODB
)

func GetAll(w http.ResponseWriter, r *http.Request) {
	filter := bson.D{}

	if role := r.URL.Query().Get("role"); role != "" {
		filter = append(filter, bson.E{Key: "role", Value: role})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_USERS)

	findOpts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_USERS_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	users := []schemas.User{}
	if err := cursor.All(ctx, &users); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_USERS_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", users, 0)
}
