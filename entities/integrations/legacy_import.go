package integrations

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ImportLegacyContacts copies the contact base of the previous system from
// its MySQL database. Rows are upserted on old_id, so the import can be run
// repeatedly while the migration is in flight.
func ImportLegacyContacts(w http.ResponseWriter, r *http.Request) {
	mysqlURI := os.Getenv(utils.MYSQL_URI)
	if mysqlURI == "" {
		utils.SendResponse(w, http.StatusBadRequest, "L'import legacy n'est pas configuré", nil, 0)
		return
	}

	sqlDB, err := database.OpenLegacyMySQL(mysqlURI)
	if err != nil {
		utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.CANNOT_CONNECT_TO_MYSQL)
		return
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), database.MONGO_TIMEOUT)
	defer cancel()

	rows, err := sqlDB.QueryContext(ctx,
		"SELECT id, first_name, last_name, email, phone FROM contacts WHERE deleted_at IS NULL")
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_IMPORT_LEGACY_CONTACTS)
		return
	}
	defer rows.Close()

	mongoURI := os.Getenv(utils.MONGODB_URI)
	opts := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(opts)
	if err != nil {
		utils.SendResponse(w, http.StatusBadGateway, "", nil, utils.CANNOT_CONNECT_TO_MONGODB)
		return
	}
	defer mongoClient.Disconnect(ctx)

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_CONTACTS)

	imported := 0
	for rows.Next() {
		var oldID, firstname, lastname, email, phone string
		if err := rows.Scan(&oldID, &firstname, &lastname, &email, &phone); err != nil {
			log.Printf("[legacy] ligne illisible: %v", err)
			continue
		}

		now := time.Now()
		updateOpts := options.UpdateOne().SetUpsert(true)
		_, err = collection.UpdateOne(ctx,
			bson.D{{Key: "old_id", Value: oldID}},
			bson.D{
				{Key: "$set", Value: bson.D{
					{Key: "firstname", Value: firstname},
					{Key: "lastname", Value: lastname},
					{Key: "email", Value: email},
					{Key: "phone", Value: phone},
					{Key: "updated_at", Value: now},
				}},
				{Key: "$setOnInsert", Value: bson.D{
					{Key: "_id", Value: bson.NewObjectID()},
					{Key: "source", Value: schemas.CONTACT_SOURCE_IMPORT},
					{Key: "created_at", Value: now},
				}},
			},
			updateOpts)
		if err != nil {
			log.Printf("[legacy] upsert du contact %s: %v", oldID, err)
			continue
		}
		imported++
	}
	if err := rows.Err(); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_IMPORT_LEGACY_CONTACTS)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", map[string]any{"imported": imported}, 0)
}
