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

// Error codes 200-219.
const (
	TASKS_INVALID_REQUEST_DATA = iota + 200
	CANNOT_INSERT_TASK_TO_MONGODB
	CANNOT_FIND_TASKS_IN_MONGODB
	CANNOT_UPDATE_TASK_IN_MONGODB
)

func isValidTaskType(t string) bool {
	return t == schemas.TASK_TYPE_MEETING || t == schemas.TASK_TYPE_EMAIL || t == schemas.TASK_TYPE_CALL
}

func CreateOne(w http.ResponseWriter, r *http.Request) {
	task := &schemas.Task{}
	if err := json.NewDecoder(r.Body).Decode(&task); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, TASKS_INVALID_REQUEST_DATA)
		return
	}

	if task.ContactID.IsZero() {
		utils.SendResponse(w, http.StatusBadRequest, "L'identifiant du contact est obligatoire", nil, 0)
		return
	}
	if !isValidTaskType(task.Type) {
		utils.SendResponse(w, http.StatusBadRequest, "Type de tâche invalide", nil, 0)
		return
	}
	if task.DueDate.IsZero() {
		utils.SendResponse(w, http.StatusBadRequest, "La date d'échéance est obligatoire", nil, 0)
		return
	}

	now := time.Now()
	task.ID = bson.NewObjectID()
	task.Status = schemas.TASK_STATUS_OPEN
	task.CreatedAt = now
	task.UpdatedAt = now

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

	if _, err = collection.InsertOne(ctx, task); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_TASK_TO_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", task, 0)
}
