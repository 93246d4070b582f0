package analytics

import (
	"api/database"
	"api/utils"
	"context"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type stageConversion struct {
	StageID         string   `json:"stage_id"`
	ContactsReached int64    `json:"contacts_reached"`
	AvgDaysInStage  *float64 `json:"avg_days_in_stage,omitempty"`
}

// GetConversion reads the append-only stage history and reports, per stage,
// how many distinct contacts ever reached it and how long they stayed in the
// previous one on average.
func GetConversion(w http.ResponseWriter, r *http.Request) {
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_STAGE_HISTORY)

	pipeline := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "pipeline_id", Value: pipelineID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$to_stage_id"},
			{Key: "contacts", Value: bson.D{{Key: "$addToSet", Value: "$contact_id"}}},
			{Key: "avg_days", Value: bson.D{{Key: "$avg", Value: "$days_in_prev_stage"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "contacts_reached", Value: bson.D{{Key: "$size", Value: "$contacts"}}},
			{Key: "avg_days", Value: 1},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_AGGREGATE_ANALYTICS)
		return
	}
	defer cursor.Close(ctx)

	conversions := []stageConversion{}
	for cursor.Next(ctx) {
		var doc struct {
			ID              bson.ObjectID `bson:"_id"`
			ContactsReached int64         `bson:"contacts_reached"`
			AvgDays         *float64      `bson:"avg_days"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		conversions = append(conversions, stageConversion{
			StageID:         doc.ID.Hex(),
			ContactsReached: doc.ContactsReached,
			AvgDaysInStage:  doc.AvgDays,
		})
	}

	utils.SendResponse(w, http.StatusOK, "", conversions, 0)
}
