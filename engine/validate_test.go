package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
)

func TestCheckStageRequirements(t *testing.T) {
	ownerID := bson.NewObjectID()
	nextStepAt := time.Now().AddDate(0, 0, 2)

	tests := []struct {
		name    string
		stage   *schemas.PipelineStage
		contact *schemas.Contact
		state   *schemas.ContactPipelineState
		missing []string
	}{
		{
			name:    "étape nulle",
			stage:   nil,
			missing: nil,
		},
		{
			name:    "aucune exigence",
			stage:   &schemas.PipelineStage{},
			contact: &schemas.Contact{},
			missing: nil,
		},
		{
			name:    "propriétaire manquant",
			stage:   &schemas.PipelineStage{RequiresOwner: true},
			contact: &schemas.Contact{},
			missing: []string{REQUIREMENT_OWNER},
		},
		{
			name:    "propriétaire présent",
			stage:   &schemas.PipelineStage{RequiresOwner: true},
			contact: &schemas.Contact{OwnerID: &ownerID},
			missing: nil,
		},
		{
			name:    "prochaine étape manquante sans état",
			stage:   &schemas.PipelineStage{RequiresNextStep: true},
			contact: &schemas.Contact{},
			missing: []string{REQUIREMENT_NEXT_STEP},
		},
		{
			name:    "prochaine étape par date",
			stage:   &schemas.PipelineStage{RequiresNextStep: true},
			contact: &schemas.Contact{},
			state:   &schemas.ContactPipelineState{NextStepAt: &nextStepAt},
			missing: nil,
		},
		{
			name:    "prochaine étape par type",
			stage:   &schemas.PipelineStage{RequiresNextStep: true},
			contact: &schemas.Contact{},
			state:   &schemas.ContactPipelineState{NextStepType: "RELANCE"},
			missing: nil,
		},
		{
			name:    "email absent",
			stage:   &schemas.PipelineStage{RequiresEmail: true},
			contact: &schemas.Contact{},
			missing: []string{REQUIREMENT_EMAIL},
		},
		{
			name:    "email mal formé",
			stage:   &schemas.PipelineStage{RequiresEmail: true},
			contact: &schemas.Contact{Email: "pas-un-email"},
			missing: []string{REQUIREMENT_EMAIL},
		},
		{
			name:    "email valide",
			stage:   &schemas.PipelineStage{RequiresEmail: true},
			contact: &schemas.Contact{Email: "jeanne@exemple.fr"},
			missing: nil,
		},
		{
			name:    "contact nul sur étape exigeante",
			stage:   &schemas.PipelineStage{RequiresOwner: true, RequiresEmail: true},
			contact: nil,
			missing: []string{REQUIREMENT_OWNER, REQUIREMENT_EMAIL},
		},
		{
			name:    "toutes les exigences en échec",
			stage:   &schemas.PipelineStage{RequiresOwner: true, RequiresNextStep: true, RequiresEmail: true},
			contact: &schemas.Contact{},
			missing: []string{REQUIREMENT_OWNER, REQUIREMENT_NEXT_STEP, REQUIREMENT_EMAIL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckStageRequirements(tt.stage, tt.contact, tt.state)
			assert.Equal(t, tt.missing, got)
		})
	}
}
