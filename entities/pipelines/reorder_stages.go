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

type reorderStagesRequest struct {
	StageIDs []string `json:"stage_ids"`
}

// ReorderStages rewrites the order of every stage of the pipeline in a single
// bulk write. The request must list each stage of the pipeline exactly once;
// partial permutations are rejected so a lost update cannot leave two stages
// with the same position.
func ReorderStages(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &reorderStagesRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, PIPELINES_INVALID_REQUEST_DATA)
		return
	}

	if len(req.StageIDs) == 0 {
		utils.SendResponse(w, http.StatusBadRequest, "La liste des étapes est vide", nil, 0)
		return
	}

	stageIDs := make([]bson.ObjectID, 0, len(req.StageIDs))
	seen := make(map[string]bool)
	for _, raw := range req.StageIDs {
		stageID, err := bson.ObjectIDFromHex(raw)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		if seen[raw] {
			utils.SendResponse(w, http.StatusBadRequest, "La liste des étapes contient des doublons", nil, 0)
			return
		}
		seen[raw] = true
		stageIDs = append(stageIDs, stageID)
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_PIPELINE_STAGES)

	cursor, err := collection.Find(ctx, bson.D{{Key: "pipeline_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGES_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	existing := []schemas.PipelineStage{}
	if err := cursor.All(ctx, &existing); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGES_IN_MONGODB)
		return
	}

	if len(existing) == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable ou sans étapes", nil, 0)
		return
	}

	if len(stageIDs) != len(existing) {
		utils.SendResponse(w, http.StatusBadRequest,
			"La liste doit contenir toutes les étapes du pipeline", nil, 0)
		return
	}

	belongs := make(map[bson.ObjectID]bool, len(existing))
	for _, stage := range existing {
		belongs[stage.ID] = true
	}
	for _, stageID := range stageIDs {
		if !belongs[stageID] {
			utils.SendResponse(w, http.StatusBadRequest,
				"Une des étapes n'appartient pas à ce pipeline", nil, 0)
			return
		}
	}

	now := time.Now()

	models := make([]mongo.WriteModel, 0, len(stageIDs))
	for i, stageID := range stageIDs {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: stageID}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{
				{Key: "order", Value: i},
				{Key: "updated_at", Value: now},
			}}}))
	}

	if _, err = collection.BulkWrite(ctx, models); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_REORDER_STAGES_IN_MONGODB)
		return
	}

	InvalidateBoardCache(ctx, id)
	BroadcastBoardUpdate(BoardWSMessage{Action: "stages_reordered", PipelineID: idStr})

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
