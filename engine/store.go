package engine

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
)

// Store is the data access the engines need, and nothing more. Lookups
// return (nil, nil) when the record does not exist; errors are reserved for
// the store itself failing. The mongo implementation lives in the storage
// package; tests use an in-memory fake.
type Store interface {
	FindPipeline(ctx context.Context, id bson.ObjectID) (*schemas.Pipeline, error)
	FindStage(ctx context.Context, id bson.ObjectID) (*schemas.PipelineStage, error)

	FindPipelineState(ctx context.Context, contactID, pipelineID bson.ObjectID) (*schemas.ContactPipelineState, error)
	CreatePipelineState(ctx context.Context, state *schemas.ContactPipelineState) error
	UpdatePipelineState(ctx context.Context, state *schemas.ContactPipelineState) error
	ListPipelineStates(ctx context.Context, contactID bson.ObjectID) ([]schemas.ContactPipelineState, error)

	// TouchPipelineStates bumps last_activity_at on every pipeline state of
	// the contact, without moving stages.
	TouchPipelineStates(ctx context.Context, contactID bson.ObjectID, at time.Time) error

	AppendStageHistory(ctx context.Context, entry *schemas.ContactStageHistory) error
	AppendAuditLog(ctx context.Context, entry *schemas.AuditLog) error

	InsertInteraction(ctx context.Context, interaction *schemas.Interaction) error
	FindInteractionByExternalID(ctx context.Context, externalID string) (*schemas.Interaction, error)

	// FindInteractionsSince returns the contact's interactions with
	// occurred_at >= since, most recent first.
	FindInteractionsSince(ctx context.Context, contactID bson.ObjectID, since time.Time) ([]schemas.Interaction, error)

	// NextOpenMeetingTask returns the earliest OPEN task of type MEETING with
	// due_date >= from, or nil.
	NextOpenMeetingTask(ctx context.Context, contactID bson.ObjectID, from time.Time) (*schemas.Task, error)

	FindSellsyLink(ctx context.Context, contactID bson.ObjectID) (*schemas.SellsyLink, error)

	// UpsertSnapshot replaces the whole snapshot row keyed by
	// (contact_id, pipeline_id), where a nil pipeline id addresses the global
	// row.
	UpsertSnapshot(ctx context.Context, snapshot *schemas.MetricsSnapshot) error

	ListContactIDs(ctx context.Context) ([]bson.ObjectID, error)
}
