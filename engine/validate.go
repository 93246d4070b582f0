package engine

import (
	"net/mail"

	"api/schemas"
)

// Requirement names surfaced to the UI when a pre-flight check fails.
const (
	REQUIREMENT_OWNER     = "owner_required"
	REQUIREMENT_NEXT_STEP = "next_step_required"
	REQUIREMENT_EMAIL     = "valid_email_required"
)

// CheckStageRequirements reports which declarative requirements of the
// target stage the contact does not currently meet. This is the advisory
// pre-flight pass: the transition engine itself never enforces these flags,
// keeping the move-and-record mechanism free of UI validation policy.
func CheckStageRequirements(stage *schemas.PipelineStage, contact *schemas.Contact, state *schemas.ContactPipelineState) []string {
	if stage == nil {
		return nil
	}

	var missing []string

	if stage.RequiresOwner && (contact == nil || contact.OwnerID == nil) {
		missing = append(missing, REQUIREMENT_OWNER)
	}

	if stage.RequiresNextStep {
		hasNextStep := state != nil && (state.NextStepAt != nil || state.NextStepType != "")
		if !hasNextStep {
			missing = append(missing, REQUIREMENT_NEXT_STEP)
		}
	}

	if stage.RequiresEmail {
		valid := false
		if contact != nil && contact.Email != "" {
			_, err := mail.ParseAddress(contact.Email)
			valid = err == nil
		}
		if !valid {
			missing = append(missing, REQUIREMENT_EMAIL)
		}
	}

	return missing
}
