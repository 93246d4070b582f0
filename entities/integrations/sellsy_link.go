package integrations

import (
	"api/database"
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

type linkSellsyRequest struct {
	SellsyPersonID string `json:"sellsy_person_id"`
	OpportunityID  string `json:"opportunity_id"`
}

// LinkSellsy attaches a Sellsy opportunity to a contact. One link per
// contact; relinking replaces the previous opportunity and the next sync
// fills the mirror fields.
func LinkSellsy(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	contactID, err := bson.ObjectIDFromHex(idStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	req := &linkSellsyRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, INTEGRATIONS_INVALID_REQUEST_DATA)
		return
	}
	if req.OpportunityID == "" {
		utils.SendResponse(w, http.StatusBadRequest, "L'identifiant de l'opportunité est obligatoire", nil, 0)
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

	count, err := db.Collection(database.COLLECTION_CONTACTS).
		CountDocuments(ctx, bson.D{{Key: "_id", Value: contactID}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_SYNC_SELLSY)
		return
	}
	if count == 0 {
		utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
		return
	}

	updateOpts := options.UpdateOne().SetUpsert(true)
	_, err = db.Collection(database.COLLECTION_SELLSY_LINKS).UpdateOne(ctx,
		bson.D{{Key: "contact_id", Value: contactID}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "sellsy_person_id", Value: req.SellsyPersonID},
				{Key: "opportunity_id", Value: req.OpportunityID},
				{Key: "synced_at", Value: time.Time{}},
			}},
			{Key: "$setOnInsert", Value: bson.D{
				{Key: "_id", Value: bson.NewObjectID()},
			}},
		},
		updateOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_SYNC_SELLSY)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", nil, 0)
}
