package interactions

import (
	"api/database"
	"api/engine"
	"api/schemas"
	"api/storage"
	"api/utils"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Error codes 160-179.
const (
	INTERACTIONS_INVALID_REQUEST_DATA = iota + 160
	CANNOT_INSERT_INTERACTION_TO_MONGODB
	CANNOT_FIND_INTERACTIONS_IN_MONGODB
)

// CreateOne ingests one touchpoint. Interactions are immutable; there is no
// update or delete counterpart. A duplicate external_id is answered with 200
// and ingested=false instead of an error so connectors can replay safely.
func CreateOne(schedule engine.ScheduleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interaction := &schemas.Interaction{}
		if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, INTERACTIONS_INVALID_REQUEST_DATA)
			return
		}

		if interaction.ContactID.IsZero() {
			utils.SendResponse(w, http.StatusBadRequest, "L'identifiant du contact est obligatoire", nil, 0)
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

		count, err := mongoClient.Database(database.GetDB()).
			Collection(database.COLLECTION_CONTACTS).
			CountDocuments(ctx, bson.D{{Key: "_id", Value: interaction.ContactID}})
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_INTERACTION_TO_MONGODB)
			return
		}
		if count == 0 {
			utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
			return
		}

		store := storage.NewMongoStore(mongoClient)
		eng := engine.New(store, engine.SystemClock(), schedule)

		ingested, err := eng.RecordInteraction(ctx, interaction)
		if err != nil {
			if errors.Is(err, engine.ErrInvalidInteractionType) {
				utils.SendResponse(w, http.StatusBadRequest, "Type d'interaction invalide", nil, 0)
				return
			}
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_INSERT_INTERACTION_TO_MONGODB)
			return
		}

		status := http.StatusCreated
		if !ingested {
			status = http.StatusOK
		}
		utils.SendResponse(w, status, "", map[string]any{
			"ingested":    ingested,
			"interaction": interaction,
		}, 0)
	}
}
