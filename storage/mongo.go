package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"api/database"
	"api/schemas"
)

// MongoStore implements engine.Store over the application database.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(client *mongo.Client) *MongoStore {
	return &MongoStore{db: client.Database(database.GetDB())}
}

func (s *MongoStore) FindPipeline(ctx context.Context, id bson.ObjectID) (*schemas.Pipeline, error) {
	pipeline := &schemas.Pipeline{}
	err := s.db.Collection(database.COLLECTION_PIPELINES).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(pipeline)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (s *MongoStore) FindStage(ctx context.Context, id bson.ObjectID) (*schemas.PipelineStage, error) {
	stage := &schemas.PipelineStage{}
	err := s.db.Collection(database.COLLECTION_PIPELINE_STAGES).
		FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(stage)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *MongoStore) FindPipelineState(ctx context.Context, contactID, pipelineID bson.ObjectID) (*schemas.ContactPipelineState, error) {
	state := &schemas.ContactPipelineState{}
	filter := bson.D{
		{Key: "contact_id", Value: contactID},
		{Key: "pipeline_id", Value: pipelineID},
	}
	err := s.db.Collection(database.COLLECTION_PIPELINE_STATES).FindOne(ctx, filter).Decode(state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *MongoStore) CreatePipelineState(ctx context.Context, state *schemas.ContactPipelineState) error {
	_, err := s.db.Collection(database.COLLECTION_PIPELINE_STATES).InsertOne(ctx, state)
	return err
}

func (s *MongoStore) UpdatePipelineState(ctx context.Context, state *schemas.ContactPipelineState) error {
	filter := bson.D{{Key: "_id", Value: state.ID}}
	_, err := s.db.Collection(database.COLLECTION_PIPELINE_STATES).ReplaceOne(ctx, filter, state)
	return err
}

func (s *MongoStore) ListPipelineStates(ctx context.Context, contactID bson.ObjectID) ([]schemas.ContactPipelineState, error) {
	cursor, err := s.db.Collection(database.COLLECTION_PIPELINE_STATES).
		Find(ctx, bson.D{{Key: "contact_id", Value: contactID}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var states []schemas.ContactPipelineState
	if err := cursor.All(ctx, &states); err != nil {
		return nil, err
	}
	return states, nil
}

func (s *MongoStore) TouchPipelineStates(ctx context.Context, contactID bson.ObjectID, at time.Time) error {
	filter := bson.D{{Key: "contact_id", Value: contactID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "last_activity_at", Value: at},
		{Key: "updated_at", Value: at},
	}}}
	_, err := s.db.Collection(database.COLLECTION_PIPELINE_STATES).UpdateMany(ctx, filter, update)
	return err
}

func (s *MongoStore) AppendStageHistory(ctx context.Context, entry *schemas.ContactStageHistory) error {
	_, err := s.db.Collection(database.COLLECTION_STAGE_HISTORY).InsertOne(ctx, entry)
	return err
}

func (s *MongoStore) AppendAuditLog(ctx context.Context, entry *schemas.AuditLog) error {
	_, err := s.db.Collection(database.COLLECTION_AUDIT_LOGS).InsertOne(ctx, entry)
	return err
}

func (s *MongoStore) InsertInteraction(ctx context.Context, interaction *schemas.Interaction) error {
	_, err := s.db.Collection(database.COLLECTION_INTERACTIONS).InsertOne(ctx, interaction)
	return err
}

func (s *MongoStore) FindInteractionByExternalID(ctx context.Context, externalID string) (*schemas.Interaction, error) {
	interaction := &schemas.Interaction{}
	err := s.db.Collection(database.COLLECTION_INTERACTIONS).
		FindOne(ctx, bson.D{{Key: "external_id", Value: externalID}}).Decode(interaction)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return interaction, nil
}

func (s *MongoStore) FindInteractionsSince(ctx context.Context, contactID bson.ObjectID, since time.Time) ([]schemas.Interaction, error) {
	filter := bson.D{
		{Key: "contact_id", Value: contactID},
		{Key: "occurred_at", Value: bson.D{{Key: "$gte", Value: since}}},
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})

	cursor, err := s.db.Collection(database.COLLECTION_INTERACTIONS).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var interactions []schemas.Interaction
	if err := cursor.All(ctx, &interactions); err != nil {
		return nil, err
	}
	return interactions, nil
}

func (s *MongoStore) NextOpenMeetingTask(ctx context.Context, contactID bson.ObjectID, from time.Time) (*schemas.Task, error) {
	filter := bson.D{
		{Key: "contact_id", Value: contactID},
		{Key: "type", Value: schemas.TASK_TYPE_MEETING},
		{Key: "status", Value: schemas.TASK_STATUS_OPEN},
		{Key: "due_date", Value: bson.D{{Key: "$gte", Value: from}}},
	}
	findOpts := options.FindOne().SetSort(bson.D{{Key: "due_date", Value: 1}})

	task := &schemas.Task{}
	err := s.db.Collection(database.COLLECTION_TASKS).FindOne(ctx, filter, findOpts).Decode(task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *MongoStore) FindSellsyLink(ctx context.Context, contactID bson.ObjectID) (*schemas.SellsyLink, error) {
	link := &schemas.SellsyLink{}
	err := s.db.Collection(database.COLLECTION_SELLSY_LINKS).
		FindOne(ctx, bson.D{{Key: "contact_id", Value: contactID}}).Decode(link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *MongoStore) UpsertSnapshot(ctx context.Context, snapshot *schemas.MetricsSnapshot) error {
	// Whole-row replace: stale fields from a previous computation must not
	// survive when a source signal disappears.
	filter := bson.D{
		{Key: "contact_id", Value: snapshot.ContactID},
		{Key: "pipeline_id", Value: snapshot.PipelineID},
	}
	replaceOpts := options.Replace().SetUpsert(true)

	_, err := s.db.Collection(database.COLLECTION_METRICS_SNAPSHOTS).
		ReplaceOne(ctx, filter, snapshot, replaceOpts)
	return err
}

func (s *MongoStore) ListContactIDs(ctx context.Context) ([]bson.ObjectID, error) {
	findOpts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.db.Collection(database.COLLECTION_CONTACTS).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []bson.ObjectID
	for cursor.Next(ctx) {
		var doc struct {
			ID bson.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
