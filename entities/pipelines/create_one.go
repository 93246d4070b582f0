package pipelines

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

type createPipelineRequest struct {
	Name           string                  `json:"name"`
	StageType      string                  `json:"stage_type"`
	IsDefault      bool                    `json:"is_default"`
	StaleAfterDays int                     `json:"stale_after_days"`
	Stages         []schemas.PipelineStage `json:"stages"`
}

// defaultLadder is seeded when the request brings no custom stages.
func defaultLadder() []schemas.PipelineStage {
	return []schemas.PipelineStage{
		{Name: "Prospect", Color: "#94a3b8", IsDefault: true},
		{Name: "Contacté", Color: "#60a5fa"},
		{Name: "Qualification", Color: "#a78bfa"},
		{Name: "Démo planifiée", Color: "#f59e0b", RequiresNextStep: true},
		{Name: "Proposition", Color: "#f97316"},
		{Name: "Négociation", Color: "#ef4444"},
		{Name: "Gagné", Color: "#22c55e"},
		{Name: "Perdu", Color: "#6b7280"},
	}
}

func CreateOne(w http.ResponseWriter, r *http.Request) {
	req := &createPipelineRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, PIPELINES_INVALID_REQUEST_DATA)
		return
	}

	if req.Name == "" {
		utils.SendResponse(w, http.StatusBadRequest, "Le nom du pipeline est obligatoire", nil, 0)
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
	collection := db.Collection(database.COLLECTION_PIPELINES)

	now := time.Now()

	// A single pipeline carries the default flag. Clearing the previous
	// holder before inserting keeps the invariant even when two creations
	// race.
	if req.IsDefault {
		_, err = collection.UpdateMany(ctx,
			bson.D{{Key: "is_default", Value: true}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "is_default", Value: false},
				{Key: "updated_at", Value: now},
			}}})
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_UPDATE_PIPELINE_IN_MONGODB)
			return
		}
	}

	pipeline := &schemas.Pipeline{
		ID:             bson.NewObjectID(),
		Name:           req.Name,
		StageType:      req.StageType,
		IsDefault:      req.IsDefault,
		StaleAfterDays: req.StaleAfterDays,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err = collection.InsertOne(ctx, pipeline); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_PIPELINE_TO_MONGODB)
		return
	}

	stages := req.Stages
	if len(stages) == 0 {
		stages = defaultLadder()
	}

	stageDocs := make([]any, 0, len(stages))
	for i := range stages {
		stages[i].ID = bson.NewObjectID()
		stages[i].PipelineID = pipeline.ID
		stages[i].Order = i
		stages[i].CreatedAt = now
		stages[i].UpdatedAt = now
		stageDocs = append(stageDocs, stages[i])
	}

	stagesCollection := db.Collection(database.COLLECTION_PIPELINE_STAGES)
	if _, err = stagesCollection.InsertMany(ctx, stageDocs); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_PIPELINE_TO_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusCreated, "", map[string]any{
		"pipeline": pipeline,
		"stages":   stages,
	}, 0)
}
