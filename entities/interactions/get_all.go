package interactions

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// GetAll lists the interactions of one contact, most recent first.
func GetAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	contactIDStr := query.Get("contact_id")
	if contactIDStr == "" {
		utils.SendResponse(w, http.StatusBadRequest, "Le paramètre contact_id est obligatoire", nil, 0)
		return
	}
	contactID, err := bson.ObjectIDFromHex(contactIDStr)
	if err != nil {
		utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
		return
	}

	page := 1
	if p := query.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	pageSize := 50
	if p := query.Get("pageSize"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			pageSize = n
			if pageSize > 200 {
				pageSize = 200
			}
		}
	}

	filter := bson.D{{Key: "contact_id", Value: contactID}}

	if interactionType := query.Get("type"); interactionType != "" {
		if !schemas.IsValidInteractionType(interactionType) {
			utils.SendResponse(w, http.StatusBadRequest, "Type d'interaction invalide", nil, 0)
			return
		}
		filter = append(filter, bson.E{Key: "type", Value: interactionType})
	}

	if sinceStr := query.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "Le paramètre since doit être une date RFC3339", nil, 0)
			return
		}
		filter = append(filter, bson.E{Key: "occurred_at", Value: bson.D{{Key: "$gte", Value: since}}})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_INTERACTIONS)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_INTERACTIONS_IN_MONGODB)
		return
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_INTERACTIONS_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	interactions := []schemas.Interaction{}
	if err := cursor.All(ctx, &interactions); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_INTERACTIONS_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", schemas.PaginatedResponse{
		Data:     interactions,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, 0)
}
