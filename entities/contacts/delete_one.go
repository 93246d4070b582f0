package contacts

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

// DeleteOne removes the contact and all rows keyed on it: placements,
// interactions, tasks, snapshots, history and the Sellsy link. History is
// normally append-only; full contact deletion is the one sanctioned
// exception, for data removal requests.
func DeleteOne(w http.ResponseWriter, r *http.Request) {
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

	result, err := db.Collection(database.COLLECTION_CONTACTS).
		DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_CONTACT_IN_MONGODB)
		return
	}

	if result.DeletedCount == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
		return
	}

	related := []string{
		database.COLLECTION_PIPELINE_STATES,
		database.COLLECTION_STAGE_HISTORY,
		database.COLLECTION_INTERACTIONS,
		database.COLLECTION_TASKS,
		database.COLLECTION_METRICS_SNAPSHOTS,
		database.COLLECTION_SELLSY_LINKS,
	}
	for _, name := range related {
		if _, err = db.Collection(name).
			DeleteMany(ctx, bson.D{{Key: "contact_id", Value: id}}); err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_DELETE_CONTACT_IN_MONGODB)
			return
		}
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
