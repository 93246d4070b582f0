package analytics

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

// Error codes 280-299.
const (
	CANNOT_AGGREGATE_ANALYTICS = iota + 280
)

type stageCount struct {
	StageID   string `json:"stage_id"`
	StageName string `json:"stage_name"`
	Order     int    `json:"order"`
	Count     int64  `json:"count"`
	Won       int64  `json:"won"`
	Lost      int64  `json:"lost"`
}

// GetStageDistribution counts how many contacts sit in each stage of the
// pipeline, split by lifecycle status.
func GetStageDistribution(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	pipelineID, err := bson.ObjectIDFromHex(idStr)
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

	findOpts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := db.Collection(database.COLLECTION_PIPELINE_STAGES).
		Find(ctx, bson.D{{Key: "pipeline_id", Value: pipelineID}}, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}
	stages := []schemas.PipelineStage{}
	if err := cursor.All(ctx, &stages); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "pipeline_id", Value: pipelineID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "stage_id", Value: "$current_stage_id"},
				{Key: "status", Value: "$status"},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err = db.Collection(database.COLLECTION_PIPELINE_STATES).Aggregate(ctx, pipeline)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}
	defer cursor.Close(ctx)

	type groupKey struct {
		StageID bson.ObjectID `bson:"stage_id"`
		Status  string        `bson:"status"`
	}
	counts := map[bson.ObjectID]*stageCount{}
	for _, stage := range stages {
		counts[stage.ID] = &stageCount{
			StageID:   stage.ID.Hex(),
			StageName: stage.Name,
			Order:     stage.Order,
		}
	}

	for cursor.Next(ctx) {
		var doc struct {
			ID    groupKey `bson:"_id"`
			Count int64    `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		entry, ok := counts[doc.ID.StageID]
		if !ok {
			continue
		}
		entry.Count += doc.Count
		switch doc.ID.Status {
		case schemas.PIPELINE_STATUS_WON:
			entry.Won += doc.Count
		case schemas.PIPELINE_STATUS_LOST:
			entry.Lost += doc.Count
		}
	}

	distribution := make([]stageCount, 0, len(stages))
	for _, stage := range stages {
		distribution = append(distribution, *counts[stage.ID])
	}

	utils.SendResponse(w, http.StatusOK, "", distribution, 0)
}
