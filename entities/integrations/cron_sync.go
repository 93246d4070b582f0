package integrations

import (
	"api/database"
	"api/engine"
	"api/schemas"
	"api/storage"
	"api/utils"
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const cronSyncTimeout = 5 * time.Minute

type cronUserResult struct {
	UserID   string `json:"user_id"`
	Ingested int    `json:"ingested,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CronSync is the nightly job endpoint: it runs the Gmail import for every
// user with the connector enabled, refreshes the Sellsy links and finishes
// with a full metrics rebuild. One failing user is reported in the response
// but never interrupts the others. The scheduler authenticates with the
// shared CRON_SECRET bearer token.
func CronSync(schedule engine.ScheduleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := os.Getenv(utils.CRON_SECRET)
		authorization := r.Header.Get("Authorization")
		if secret == "" || authorization != "Bearer "+secret {
			utils.SendResponse(w, http.StatusUnauthorized, "", nil, CRON_UNAUTHORIZED)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), cronSyncTimeout)
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

		cursor, err := db.Collection(database.COLLECTION_INTEGRATION_SETTINGS).
			Find(ctx, bson.D{{Key: "gmail_enabled", Value: true}})
		if err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_SETTINGS_IN_MONGODB)
			return
		}
		allSettings := []schemas.IntegrationSettings{}
		if err := cursor.All(ctx, &allSettings); err != nil {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_SETTINGS_IN_MONGODB)
			return
		}

		results := make([]cronUserResult, 0, len(allSettings))
		for i := range allSettings {
			settings := &allSettings[i]
			result := cronUserResult{UserID: settings.UserID.Hex()}

			ingested, err := syncGmailForUser(ctx, mongoClient, schedule, settings)
			if err != nil {
				log.Printf("[cron] gmail pour %s: %v", settings.UserID.Hex(), err)
				result.Error = err.Error()
			} else {
				result.Ingested = ingested
			}
			results = append(results, result)
		}

		sellsyUpdated := 0
		var sellsyError string
		if strings.TrimSpace(os.Getenv(utils.SELLSY_CLIENT_ID)) != "" {
			sellsyUpdated, err = syncSellsyLinks(ctx, mongoClient, schedule)
			if err != nil {
				log.Printf("[cron] sellsy: %v", err)
				sellsyError = err.Error()
			}
		}

		store := storage.NewMongoStore(mongoClient)
		eng := engine.New(store, engine.SystemClock(), nil)
		recomputed, err := eng.RecomputeAll(ctx)
		if err != nil {
			log.Printf("[cron] recalcul global: %v", err)
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, SNAPSHOT_RECOMPUTE_FAILED)
			return
		}

		response := map[string]any{
			"users":          results,
			"sellsy_updated": sellsyUpdated,
			"recomputed":     recomputed,
		}
		if sellsyError != "" {
			response["sellsy_error"] = sellsyError
		}

		utils.SendResponse(w, http.StatusOK, "", response, 0)
	}
}
