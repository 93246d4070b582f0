package analytics

import (
	"api/database"
	"api/utils"
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetActivitySummary aggregates the interaction volume by type over a
// trailing window (30 days by default) and counts the contacts currently
// flagged stale or without a planned next step.
func GetActivitySummary(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 && n <= 365 {
			days = n
		}
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

	since := time.Now().AddDate(0, 0, -days)

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "occurred_at", Value: bson.D{{Key: "$gte", Value: since}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := db.Collection(database.COLLECTION_INTERACTIONS).Aggregate(ctx, pipeline)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}
	defer cursor.Close(ctx)

	byType := map[string]int64{}
	for cursor.Next(ctx) {
		var doc struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		byType[doc.ID] = doc.Count
	}

	stale, err := db.Collection(database.COLLECTION_METRICS_SNAPSHOTS).
		CountDocuments(ctx, bson.D{{Key: "stale_flag", Value: true}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}

	noNextStep, err := db.Collection(database.COLLECTION_METRICS_SNAPSHOTS).
		CountDocuments(ctx, bson.D{{Key: "next_step_missing", Value: true}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", map[string]any{
		"window_days":       days,
		"interactions":      byType,
		"stale_contacts":    stale,
		"next_step_missing": noNextStep,
	}, 0)
}
