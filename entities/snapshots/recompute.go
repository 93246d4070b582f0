package snapshots

import (
	"api/database"
	"api/engine"
	"api/storage"
	"api/utils"
	"context"
	"encoding/json"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type recomputeRequest struct {
	ContactID  string `json:"contact_id"`
	PipelineID string `json:"pipeline_id"`
}

// Recompute rebuilds snapshots synchronously. With contact_id it recomputes
// that contact (one pipeline or all of its rows); without it the whole base
// is rebuilt, which is the manual backfill path.
func Recompute(w http.ResponseWriter, r *http.Request) {
	req := &recomputeRequest{}
	if r.Body != nil {
		// An empty body means a full rebuild.
		_ = json.NewDecoder(r.Body).Decode(&req)
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

	store := storage.NewMongoStore(mongoClient)
	eng := engine.New(store, engine.SystemClock(), nil)

	if req.ContactID == "" {
		count, err := eng.RecomputeAll(ctx)
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_RECOMPUTE_METRICS)
			return
		}
		utils.SendResponse(w, http.StatusOK, "", map[string]any{"contacts": count}, 0)
		return
	}

	contactID, err := bson.ObjectIDFromHex(req.ContactID)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	var pipelineID *bson.ObjectID
	if req.PipelineID != "" {
		parsed, err := bson.ObjectIDFromHex(req.PipelineID)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		pipelineID = &parsed
	}

	if pipelineID != nil {
		err = eng.Recompute(ctx, contactID, pipelineID)
	} else {
		err = eng.RecomputeContact(ctx, contactID)
	}
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_RECOMPUTE_METRICS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
