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

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const boardCacheTTL = 30 * time.Second

type BoardEntry struct {
	Contact  schemas.Contact              `json:"contact"`
	State    schemas.ContactPipelineState `json:"state"`
	Snapshot *schemas.MetricsSnapshot     `json:"snapshot,omitempty"`
}

type BoardColumn struct {
	Stage   schemas.PipelineStage `json:"stage"`
	Entries []BoardEntry          `json:"entries"`
}

type Board struct {
	Pipeline schemas.Pipeline `json:"pipeline"`
	Columns  []BoardColumn    `json:"columns"`
}

func boardCacheKey(pipelineID bson.ObjectID) string {
	return "crm:board:" + pipelineID.Hex()
}

func openRedis() *redis.Client {
	redisURI := os.Getenv(utils.REDIS_URI)
	if redisURI == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil
	}
	return redis.NewClient(opts)
}

// InvalidateBoardCache drops the cached board of the pipeline. Callers that
// change placements or stages invoke it right after the write.
func InvalidateBoardCache(ctx context.Context, pipelineID bson.ObjectID) {
	rdb := openRedis()
	if rdb == nil {
		return
	}
	defer rdb.Close()
	rdb.Del(ctx, boardCacheKey(pipelineID))
}

// GetBoard assembles the kanban view of one pipeline: every stage with the
// contacts currently placed in it, joined with their health snapshots. The
// unfiltered board is served from redis when fresh; filters always hit mongo.
func GetBoard(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	staleOnly := r.URL.Query().Get("stale") == "true"
	noNextStepOnly := r.URL.Query().Get("no_next_step") == "true"
	ownerFilter := r.URL.Query().Get("owner_id")
	filtered := staleOnly || noNextStepOnly || ownerFilter != ""

	ctx, cancel := context.WithTimeout(context.Background(), database.MONGO_TIMEOUT)
	defer cancel()

	var rdb *redis.Client
	if !filtered {
		rdb = openRedis()
		if rdb != nil {
			defer rdb.Close()
			if cached, err := rdb.Get(ctx, boardCacheKey(id)).Result(); err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(cached))
				return
			}
		}
	}

	mongoURI := os.Getenv(utils.MONGODB_URI)
	opts := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(opts)
	if err != nil {
		utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.CANNOT_CONNECT_TO_MONGODB)
		return
	}
	defer mongoClient.Disconnect(ctx)

	db := mongoClient.Database(database.GetDB())

	pipeline := schemas.Pipeline{}
	err = db.Collection(database.COLLECTION_PIPELINES).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&pipeline)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.SendResponse(w, http.StatusNotFound, "Pipeline introuvable", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
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
	stages := []schemas.PipelineStage{}
	if err := cursor.All(ctx, &stages); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_STAGES_IN_MONGODB)
		return
	}

	cursor, err = db.Collection(database.COLLECTION_PIPELINE_STATES).
		Find(ctx, bson.D{{Key: "pipeline_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
		return
	}
	states := []schemas.ContactPipelineState{}
	if err := cursor.All(ctx, &states); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
		return
	}

	contactIDs := make([]bson.ObjectID, 0, len(states))
	for _, state := range states {
		contactIDs = append(contactIDs, state.ContactID)
	}

	contacts := map[bson.ObjectID]schemas.Contact{}
	if len(contactIDs) > 0 {
		cursor, err = db.Collection(database.COLLECTION_CONTACTS).
			Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: contactIDs}}}})
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
			return
		}
		list := []schemas.Contact{}
		if err := cursor.All(ctx, &list); err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
			return
		}
		for _, contact := range list {
			contacts[contact.ID] = contact
		}
	}

	snapshots := map[bson.ObjectID]*schemas.MetricsSnapshot{}
	if len(contactIDs) > 0 {
		cursor, err = db.Collection(database.COLLECTION_METRICS_SNAPSHOTS).
			Find(ctx, bson.D{
				{Key: "contact_id", Value: bson.D{{Key: "$in", Value: contactIDs}}},
				{Key: "pipeline_id", Value: id},
			})
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
			return
		}
		list := []schemas.MetricsSnapshot{}
		if err := cursor.All(ctx, &list); err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_BUILD_BOARD_FROM_MONGODB)
			return
		}
		for i := range list {
			snapshots[list[i].ContactID] = &list[i]
		}
	}

	entriesByStage := map[bson.ObjectID][]BoardEntry{}
	for _, state := range states {
		contact, ok := contacts[state.ContactID]
		if !ok {
			continue
		}
		snapshot := snapshots[state.ContactID]

		if staleOnly && (snapshot == nil || !snapshot.StaleFlag) {
			continue
		}
		if noNextStepOnly && (snapshot == nil || !snapshot.NextStepMissing) {
			continue
		}
		if ownerFilter != "" && (contact.OwnerID == nil || contact.OwnerID.Hex() != ownerFilter) {
			continue
		}

		entriesByStage[state.CurrentStageID] = append(entriesByStage[state.CurrentStageID], BoardEntry{
			Contact:  contact,
			State:    state,
			Snapshot: snapshot,
		})
	}

	board := Board{Pipeline: pipeline, Columns: make([]BoardColumn, 0, len(stages))}
	for _, stage := range stages {
		entries := entriesByStage[stage.ID]
		if entries == nil {
			entries = []BoardEntry{}
		}
		board.Columns = append(board.Columns, BoardColumn{Stage: stage, Entries: entries})
	}

	if !filtered && rdb != nil {
		if payload, err := json.Marshal(schemas.ApiResponse{Data: board}); err == nil {
			rdb.Set(ctx, boardCacheKey(id), payload, boardCacheTTL)
		}
	}

	utils.SendResponse(w, http.StatusOK, "", board, 0)
}
