package pipelines

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"errors"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func GetOne(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
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

	pipeline := &schemas.Pipeline{}
	err = db.Collection(database.COLLECTION_PIPELINES).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(pipeline)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_PIPELINE_BY_ID_IN_MONGODB)
		}
		return
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := db.Collection(database.COLLECTION_PIPELINE_STAGES).
		Find(ctx, bson.D{{Key: "pipeline_id", Value: id}}, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGES_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	stages := []schemas.PipelineStage{}
	if err := cursor.All(ctx, &stages); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGES_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", map[string]any{
		"pipeline": pipeline,
		"stages":   stages,
	}, 0)
}
