package main

import (
	"api/engine"
	"api/entities/analytics"
	"api/entities/contacts"
	"api/entities/history"
	"api/entities/integrations"
	"api/entities/interactions"
	"api/entities/organizations"
	"api/entities/pipelines"
	"api/entities/snapshots"
	"api/entities/stages"
	"api/entities/tasks"
	"api/entities/users"
	"api/middlewares"
	"api/schemas"
	"api/storage"
	"api/utils"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func main() {
	utils.LoadEnvVariables()

	env := os.Getenv(utils.ENV)
	if env == utils.ENV_RELEASE {
		fmt.Printf("\033[1;31;47m[ATTENTION] Environnement de PRODUCTION !\033[0m\n")
	} else {
		fmt.Printf("[INFO] Environnement actuel : %s\n", env)
	}

	// The request handlers open their own short-lived connections; this
	// client only serves the background recompute queue.
	mongoURI := os.Getenv(utils.MONGODB_URI)
	mongoClient, err := mongo.Connect(options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("[MongoDB] connexion impossible: %v", err)
	}

	queueStore := storage.NewMongoStore(mongoClient)
	queueEngine := engine.New(queueStore, engine.SystemClock(), nil)
	queue := engine.NewRecomputeQueue(queueEngine.Recompute, 0, 0)
	defer queue.Close()

	schedule := queue.Enqueue

	mux := http.NewServeMux()

	auth := func(h http.HandlerFunc) http.Handler {
		return middlewares.SessionAuth(h)
	}
	manager := func(h http.HandlerFunc) http.Handler {
		return middlewares.SessionAuth(middlewares.RequireRole(schemas.ROLE_MANAGER, h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middlewares.SessionAuth(middlewares.RequireRole(schemas.ROLE_ADMIN, h))
	}

	mux.Handle("GET /v1/users", auth(users.GetAll))
	mux.Handle("GET /v1/users/{id}", auth(users.GetOne))
	mux.Handle("PATCH /v1/users/{id}", admin(users.UpdateOne))

	mux.Handle("GET /v1/organizations", auth(organizations.GetAll))
	mux.Handle("GET /v1/organizations/{id}", auth(organizations.GetOne))
	mux.Handle("POST /v1/organizations", auth(organizations.CreateOne))
	mux.Handle("PATCH /v1/organizations/{id}", auth(organizations.UpdateOne))

	mux.Handle("GET /v1/contacts", auth(contacts.GetAll))
	mux.Handle("GET /v1/contacts/{id}", auth(contacts.GetOne))
	mux.Handle("POST /v1/contacts", auth(contacts.CreateOne))
	mux.Handle("PATCH /v1/contacts/{id}", auth(contacts.UpdateOne))
	mux.Handle("DELETE /v1/contacts/{id}", manager(contacts.DeleteOne))
	mux.Handle("POST /v1/contacts/{id}/stage", auth(contacts.ChangeStage(schedule)))
	mux.Handle("GET /v1/contacts/{id}/history", auth(history.GetAll))
	mux.Handle("GET /v1/contacts/{id}/metrics", auth(snapshots.GetOne))
	mux.Handle("POST /v1/contacts/{id}/sellsy-link", auth(integrations.LinkSellsy))

	mux.Handle("GET /v1/pipelines", auth(pipelines.GetAll))
	mux.Handle("GET /v1/pipelines/{id}", auth(pipelines.GetOne))
	mux.Handle("POST /v1/pipelines", manager(pipelines.CreateOne))
	mux.Handle("PATCH /v1/pipelines/{id}", manager(pipelines.UpdateOne))
	mux.Handle("DELETE /v1/pipelines/{id}", admin(pipelines.DeleteOne))
	mux.Handle("GET /v1/pipelines/{id}/board", auth(pipelines.GetBoard))
	mux.Handle("POST /v1/pipelines/{id}/stages", manager(stages.CreateOne))
	mux.Handle("PATCH /v1/pipelines/{id}/stages/reorder", manager(pipelines.ReorderStages))
	mux.Handle("PATCH /v1/stages/{id}", manager(stages.UpdateOne))
	mux.Handle("DELETE /v1/stages/{id}", manager(stages.DeleteOne))

	mux.Handle("GET /v1/interactions", auth(interactions.GetAll))
	mux.Handle("POST /v1/interactions", auth(interactions.CreateOne(schedule)))

	mux.Handle("GET /v1/tasks", auth(tasks.GetAll))
	mux.Handle("POST /v1/tasks", auth(tasks.CreateOne))
	mux.Handle("PATCH /v1/tasks/{id}", auth(tasks.UpdateOne))

	mux.Handle("POST /v1/metrics/recompute", manager(snapshots.Recompute))

	mux.Handle("GET /v1/analytics/pipelines/{id}/distribution", auth(analytics.GetStageDistribution))
	mux.Handle("GET /v1/analytics/pipelines/{id}/conversion", auth(analytics.GetConversion))
	mux.Handle("GET /v1/analytics/activity", auth(analytics.GetActivitySummary))

	mux.Handle("GET /v1/integrations/settings", auth(integrations.GetSettings))
	mux.Handle("PUT /v1/integrations/settings", auth(integrations.UpdateSettings))
	mux.Handle("POST /v1/integrations/gmail/sync", auth(integrations.SyncGmail(schedule)))
	mux.Handle("POST /v1/integrations/sellsy/sync", manager(integrations.SyncSellsy(schedule)))
	mux.Handle("POST /v1/integrations/legacy/import", admin(integrations.ImportLegacyContacts))

	// Authenticated by the CRON_SECRET bearer token, not by session.
	mux.Handle("POST /v1/cron/sync", http.HandlerFunc(integrations.CronSync(schedule)))

	mux.HandleFunc("/v1/ws/board", pipelines.BoardWebSocketHandler)

	fmt.Printf("Serveur démarré sur le port %s à %s\n",
		os.Getenv(utils.PORT), time.Now().Format("2006-01-02 15:04:05"))
	err = http.ListenAndServe(fmt.Sprintf(":%s", os.Getenv(utils.PORT)),
		middlewares.RequestID(middlewares.Cors(mux)))
	if err != nil {
		log.Fatalf("[HTTP] serveur arrêté: %v", err)
	}
}
