package contacts

import (
	"api/database"
	"api/schemas"
	"api/utils"
	"context"
	"net/http"
	"os"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func GetAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if p := query.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	pageSize := 25
	if p := query.Get("pageSize"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			pageSize = n
			if pageSize > 100 {
				pageSize = 100
			}
		}
	}

	filter := bson.D{}

	if search := query.Get("search"); search != "" {
		regex := bson.D{{Key: "$regex", Value: search}, {Key: "$options", Value: "i"}}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "firstname", Value: regex}},
			bson.D{{Key: "lastname", Value: regex}},
			bson.D{{Key: "email", Value: regex}},
		}})
	}

	if owner := query.Get("owner_id"); owner != "" {
		ownerID, err := bson.ObjectIDFromHex(owner)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		filter = append(filter, bson.E{Key: "owner_id", Value: ownerID})
	}

	if tag := query.Get("tag"); tag != "" {
		filter = append(filter, bson.E{Key: "tags", Value: tag})
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

	collection := mongoClient.Database(database.GetDB()).Collection(database.COLLECTION_CONTACTS)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACTS_IN_MONGODB)
		return
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := collection.Find(ctx, filter, findOpts)
	if err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACTS_IN_MONGODB)
		return
	}
	defer cursor.Close(ctx)

	contacts := []schemas.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACTS_IN_MONGODB)
		return
	}

	utils.SendResponse(w, http.StatusOK, "", schemas.PaginatedResponse{
		Data:     contacts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, 0)
}
