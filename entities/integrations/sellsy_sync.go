package integrations

import (
	"api/database"
	"api/engine"
	"api/schemas"
	"api/storage"
	"api/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	sellsyTokenURL = "https://login.sellsy.com/oauth2/access-tokens"
	sellsyAPIURL   = "https://api.sellsy.com/v2"
)

type sellsyOpportunity struct {
	ID        int      `json:"id"`
	StageName string   `json:"step_name"`
	Amount    *float64 `json:"amount"`
	DueDate   *string  `json:"due_date"`
}

func sellsyAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", os.Getenv(utils.SELLSY_CLIENT_ID))
	form.Set("client_secret", os.Getenv(utils.SELLSY_CLIENT_SECRET))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sellsyTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("jeton Sellsy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jeton Sellsy: statut %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

func fetchSellsyOpportunity(ctx context.Context, token, opportunityID string) (*sellsyOpportunity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		sellsyAPIURL+"/opportunities/"+opportunityID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opportunité %s: statut %d", opportunityID, resp.StatusCode)
	}

	opportunity := &sellsyOpportunity{}
	if err := json.NewDecoder(resp.Body).Decode(opportunity); err != nil {
		return nil, err
	}
	return opportunity, nil
}

// syncSellsyLinks refreshes every linked opportunity: the mirror fields are
// rewritten on the link row and a stage change on the Sellsy side is ingested
// as a SELLSY_EVENT interaction.
func syncSellsyLinks(ctx context.Context, mongoClient *mongo.Client, schedule engine.ScheduleFunc) (int, error) {
	token, err := sellsyAccessToken(ctx)
	if err != nil {
		return 0, err
	}

	db := mongoClient.Database(database.GetDB())
	collection := db.Collection(database.COLLECTION_SELLSY_LINKS)

	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	links := []schemas.SellsyLink{}
	if err := cursor.All(ctx, &links); err != nil {
		return 0, err
	}

	store := storage.NewMongoStore(mongoClient)
	eng := engine.New(store, engine.SystemClock(), schedule)

	updated := 0
	for _, link := range links {
		if link.OpportunityID == "" {
			continue
		}

		opportunity, err := fetchSellsyOpportunity(ctx, token, link.OpportunityID)
		if err != nil {
			log.Printf("[sellsy] opportunité %s: %v", link.OpportunityID, err)
			continue
		}

		var closeDate *time.Time
		if opportunity.DueDate != nil {
			if parsed, err := time.Parse("2006-01-02", *opportunity.DueDate); err == nil {
				closeDate = &parsed
			}
		}

		now := time.Now()
		stageChanged := opportunity.StageName != "" && opportunity.StageName != link.SellsyStage

		_, err = collection.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: link.ID}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "sellsy_stage", Value: opportunity.StageName},
				{Key: "sellsy_amount", Value: opportunity.Amount},
				{Key: "sellsy_close_date", Value: closeDate},
				{Key: "synced_at", Value: now},
			}}})
		if err != nil {
			log.Printf("[sellsy] mise à jour du lien %s: %v", link.ID.Hex(), err)
			continue
		}
		updated++

		if stageChanged {
			externalID := fmt.Sprintf("sellsy:%s:%s:%s",
				link.OpportunityID, opportunity.StageName, now.Format("2006-01-02"))
			_, err = eng.RecordInteraction(ctx, &schemas.Interaction{
				ContactID:  link.ContactID,
				Type:       schemas.INTERACTION_SELLSY_EVENT,
				OccurredAt: now,
				Source:     schemas.INTERACTION_SOURCE_SELLSY,
				ExternalID: externalID,
				Summary:    "Opportunité Sellsy: " + opportunity.StageName,
			})
			if err != nil {
				log.Printf("[sellsy] interaction pour %s: %v", link.ContactID.Hex(), err)
			}
		} else if schedule != nil {
			// No new interaction but the mirror fields moved; the snapshots
			// still need a refresh.
			schedule(link.ContactID, nil)
		}
	}

	return updated, nil
}

// SyncSellsy refreshes all Sellsy opportunity links on demand.
func SyncSellsy(schedule engine.ScheduleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		updated, err := syncSellsyLinks(ctx, mongoClient, schedule)
		if err != nil {
			log.Printf("[sellsy] synchronisation: %v", err)
			utils.SendResponse(w, http.StatusBadGateway, "", nil, CANNOT_SYNC_SELLSY)
			return
		}

		utils.SendResponse(w, http.StatusOK, "", map[string]any{"updated": updated}, 0)
	}
}
