package integrations

import (
	"api/database"
	"api/engine"
	"api/schemas"
	"api/storage"
	"api/utils"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailSyncWindowDays = 7

func gmailOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv(utils.GOOGLE_CLIENT_ID),
		ClientSecret: os.Getenv(utils.GOOGLE_CLIENT_SECRET),
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}
}

func newGmailService(ctx context.Context, settings *schemas.IntegrationSettings) (*gmail.Service, error) {
	if settings.GoogleAccessToken == "" && settings.GoogleRefreshToken == "" {
		return nil, fmt.Errorf("aucun jeton Google pour l'utilisateur %s", settings.UserID.Hex())
	}

	token := &oauth2.Token{
		AccessToken:  settings.GoogleAccessToken,
		RefreshToken: settings.GoogleRefreshToken,
	}
	client := gmailOAuthConfig().Client(ctx, token)

	return gmail.NewService(ctx, option.WithHTTPClient(client))
}

// syncGmailForUser pulls the recent inbox and sent messages of one user and
// ingests them as EMAIL_IN / EMAIL_OUT interactions for the contacts whose
// address appears in the headers. The Gmail message id is the external id,
// so replaying a window never duplicates.
func syncGmailForUser(ctx context.Context, mongoClient *mongo.Client, schedule engine.ScheduleFunc, settings *schemas.IntegrationSettings) (int, error) {
	service, err := newGmailService(ctx, settings)
	if err != nil {
		return 0, err
	}

	profile, err := service.Users.GetProfile("me").Do()
	if err != nil {
		return 0, fmt.Errorf("profil Gmail inaccessible: %w", err)
	}
	selfAddress := strings.ToLower(profile.EmailAddress)

	db := mongoClient.Database(database.GetDB())
	store := storage.NewMongoStore(mongoClient)
	eng := engine.New(store, engine.SystemClock(), schedule)

	contactsByEmail := map[string]bson.ObjectID{}
	cursor, err := db.Collection(database.COLLECTION_CONTACTS).
		Find(ctx, bson.D{{Key: "email", Value: bson.D{{Key: "$ne", Value: ""}}}})
	if err != nil {
		return 0, err
	}
	contacts := []schemas.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		return 0, err
	}
	for _, contact := range contacts {
		contactsByEmail[strings.ToLower(contact.Email)] = contact.ID
	}

	query := fmt.Sprintf("newer_than:%dd", gmailSyncWindowDays)

	ingested := 0
	pageToken := ""
	for {
		call := service.Users.Messages.List("me").Q(query).MaxResults(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return ingested, fmt.Errorf("liste des messages Gmail: %w", err)
		}

		for _, ref := range list.Messages {
			message, err := service.Users.Messages.Get("me", ref.Id).
				Format("metadata").MetadataHeaders("From", "To", "Subject").Do()
			if err != nil {
				log.Printf("[gmail] message %s illisible: %v", ref.Id, err)
				continue
			}

			var from, to, subject string
			if message.Payload != nil {
				for _, header := range message.Payload.Headers {
					switch header.Name {
					case "From":
						from = strings.ToLower(header.Value)
					case "To":
						to = strings.ToLower(header.Value)
					case "Subject":
						subject = header.Value
					}
				}
			}

			interactionType := schemas.INTERACTION_EMAIL_IN
			counterpart := from
			if strings.Contains(from, selfAddress) {
				interactionType = schemas.INTERACTION_EMAIL_OUT
				counterpart = to
			}

			var contactID bson.ObjectID
			found := false
			for email, id := range contactsByEmail {
				if strings.Contains(counterpart, email) {
					contactID = id
					found = true
					break
				}
			}
			if !found {
				continue
			}

			occurredAt := time.UnixMilli(message.InternalDate)

			ok, err := eng.RecordInteraction(ctx, &schemas.Interaction{
				ContactID:  contactID,
				Type:       interactionType,
				OccurredAt: occurredAt,
				Source:     schemas.INTERACTION_SOURCE_GMAIL,
				ExternalID: "gmail:" + message.Id,
				Summary:    subject,
			})
			if err != nil {
				log.Printf("[gmail] ingestion du message %s: %v", message.Id, err)
				continue
			}
			if ok {
				ingested++
			}
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	now := time.Now()
	_, err = db.Collection(database.COLLECTION_INTEGRATION_SETTINGS).UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: settings.UserID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "last_gmail_sync_at", Value: now},
			{Key: "updated_at", Value: now},
		}}})
	if err != nil {
		return ingested, err
	}

	return ingested, nil
}

// SyncGmail runs a Gmail import for the calling user.
func SyncGmail(schedule engine.ScheduleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(r)
		if !ok {
			utils.SendResponse(w, http.StatusUnauthorized, "Session invalide", nil, 0)
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

		settings := &schemas.IntegrationSettings{}
		err = mongoClient.Database(database.GetDB()).
			Collection(database.COLLECTION_INTEGRATION_SETTINGS).
			FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(settings)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "La synchronisation Gmail n'est pas configurée", nil, 0)
			return
		}
		if !settings.GmailEnabled {
			utils.SendResponse(w, http.StatusBadRequest, "La synchronisation Gmail est désactivée", nil, 0)
			return
		}

		ingested, err := syncGmailForUser(ctx, mongoClient, schedule, settings)
		if err != nil {
			log.Printf("[gmail] synchronisation pour %s: %v", userID.Hex(), err)
			utils.SendResponse(w, http.StatusBadGateway, "", nil, CANNOT_SYNC_GMAIL)
			return
		}

		utils.SendResponse(w, http.StatusOK, "", map[string]any{"ingested": ingested}, 0)
	}
}
