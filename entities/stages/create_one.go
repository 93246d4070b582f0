package stages

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

// Error codes 120-139.
const (
	STAGES_INVALID_REQUEST_DATA = iota + 120
	CANNOT_INSERT_STAGE_TO_MONGODB
	CANNOT_FIND_STAGE_BY_ID_IN_MONGODB
	CANNOT_UPDATE_STAGE_IN_MONGODB
	CANNOT_DELETE_STAGE_IN_MONGODB
)

// CreateOne appends a stage at the end of the pipeline ladder.
func CreateOne(w http.ResponseWriter, r *http.Request) {
	pipelineIDStr := r.PathValue("id")
	pipelineID, err := bson.ObjectIDFromHex(pipelineIDStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	stage := &schemas.PipelineStage{}
	if err := json.NewDecoder(r.Body).Decode(&stage); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, STAGES_INVALID_REQUEST_DATA)
		return
	}

	if stage.Name == "" {
		utils.SendResponse(w, http.StatusBadRequest, "Le nom de l'étape est obligatoire", nil, 0)
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

	db := mongoClient.Database(database.GetDB())

	count, err := db.Collection(database.COLLECTION_PIPELINES).
		CountDocuments(ctx, bson.D{{Key: "_id", Value: pipelineID}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_STAGE_TO_MONGODB)
		return
	}
	if count == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable", nil, 0)
		return
	}

	collection := db.Collection(database.COLLECTION_PIPELINE_STAGES)

	existing, err := collection.CountDocuments(ctx, bson.D{{Key: "pipeline_id", Value: pipelineID}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_STAGE_TO_MONGODB)
		return
	}

	now := time.Now()
	stage.ID = bson.NewObjectID()
	stage.PipelineID = pipelineID
	stage.Order = int(existing)
	stage.CreatedAt = now
	stage.UpdatedAt = now

	if _, err = collection.InsertOne(ctx, stage); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_STAGE_TO_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", stage, 0)
}
