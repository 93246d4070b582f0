package organizations

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"errors"
	"net/http"
	"os"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetOne returns the organization with its contacts.
func GetOne(w http.ResponseWriter, r *http.Request) {
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

	organization := &schemas.Organization{}
	err = db.Collection(database.COLLECTION_ORGANIZATIONS).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(organization)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendResponse(w, http.StatusNotFound, "Organisation introuvable", nil, 0)
		} else {
			utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_ORGANIZATION_BY_ID_IN_MONGODB)
		}
		return
	}

	cursor, err := db.Collection(database.COLLECTION_CONTACTS).
		Find(ctx, bson.D{{Key: "org_id", Value: id}})
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_ORGANIZATION_BY_ID_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	contacts := []schemas.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_ORGANIZATION_BY_ID_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", map[string]any{
		"organization": organization,
		"contacts":     contacts,
	}, 0)
}
