package tasks

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

func GetAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := bson.D{}

	if contactStr := query.Get("contact_id"); contactStr != "" {
		contactID, err := bson.ObjectIDFromHex(contactStr)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		filter = append(filter, bson.E{Key: "contact_id", Value: contactID})
	}

	if ownerStr := query.Get("owner_id"); ownerStr != "" {
		ownerID, err := bson.ObjectIDFromHex(ownerStr)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		filter = append(filter, bson.E{Key: "owner_id", Value: ownerID})
	}

	if status := query.Get("status"); status != "" {
		filter = append(filter, bson.E{Key: "status", Value: status})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_TASKS)

	findOpts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_TASKS_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	tasks := []schemas.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_TASKS_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", tasks, 0)
}
