package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"api/schemas"
	"api/utils"
)

const (
	INTERACTIONS_WINDOW_DAYS = 90
	// Demos decay slower than the other counters: they are rare, high-value
	// signals, so they keep counting for twice the window.
	DEMOS_WINDOW_DAYS = 180

	recomputeAllWorkers = 4
)

// Recompute derives the full MetricsSnapshot for a contact from the
// interaction log, task list, Sellsy link and pipeline config, and replaces
// the stored row. A nil pipelineID computes the pipeline-agnostic global
// snapshot. The function is idempotent for unchanged inputs.
func (e *Engine) Recompute(ctx context.Context, contactID bson.ObjectID, pipelineID *bson.ObjectID) error {
	now := e.clock.Now()
	window90 := now.AddDate(0, 0, -INTERACTIONS_WINDOW_DAYS)
	window180 := now.AddDate(0, 0, -DEMOS_WINDOW_DAYS)

	interactions, err := e.store.FindInteractionsSince(ctx, contactID, window180)
	if err != nil {
		return err
	}

	var interactions90, emailsOut, emailsIn, meetings, demos, calls []schemas.Interaction
	for _, i := range interactions {
		if !i.OccurredAt.Before(window90) {
			interactions90 = append(interactions90, i)

			switch i.Type {
			case schemas.INTERACTION_EMAIL_OUT:
				emailsOut = append(emailsOut, i)
			case schemas.INTERACTION_EMAIL_IN:
				emailsIn = append(emailsIn, i)
			case schemas.INTERACTION_MEETING:
				meetings = append(meetings, i)
			case schemas.INTERACTION_CALL:
				calls = append(calls, i)
			}
		}
		if i.Type == schemas.INTERACTION_DEMO {
			demos = append(demos, i)
		}
	}

	lastInteractionAt := firstOccurredAt(interactions)
	lastEmailOutAt := firstOccurredAt(emailsOut)
	lastEmailInAt := firstOccurredAt(emailsIn)
	lastMeetingAt := firstOccurredAt(meetings)
	lastDemoAt := firstOccurredAt(demos)

	var lastEmailAt *time.Time
	if lastEmailOutAt != nil || lastEmailInAt != nil {
		lastEmailAt = lastEmailOutAt
		if lastEmailAt == nil || (lastEmailInAt != nil && lastEmailInAt.After(*lastEmailAt)) {
			lastEmailAt = lastEmailInAt
		}
	}

	// Coarse single-pair heuristic: only the most recent email of each
	// direction is compared, no thread reconstruction.
	replyDetected := lastEmailOutAt != nil && lastEmailInAt != nil &&
		lastEmailInAt.After(*lastEmailOutAt)
	var lastReplyAt *time.Time
	if replyDetected {
		lastReplyAt = lastEmailInAt
	}

	var daysSinceLastActivity *int
	if lastInteractionAt != nil {
		days := utils.DaysBetween(*lastInteractionAt, now)
		daysSinceLastActivity = &days
	}

	staleAfterDays := schemas.DEFAULT_STALE_AFTER_DAYS
	if pipelineID != nil {
		pipeline, err := e.store.FindPipeline(ctx, *pipelineID)
		if err != nil {
			return err
		}
		if pipeline != nil {
			staleAfterDays = pipeline.StaleThreshold()
		}
	}
	// Absence of any recorded activity is not staleness; only measured
	// inactivity beyond the threshold counts.
	staleFlag := daysSinceLastActivity != nil && *daysSinceLastActivity > staleAfterDays

	nextStepMissing := false
	if pipelineID != nil {
		state, err := e.store.FindPipelineState(ctx, contactID, *pipelineID)
		if err != nil {
			return err
		}
		if state != nil {
			stage, err := e.store.FindStage(ctx, state.CurrentStageID)
			if err != nil {
				return err
			}
			if stage != nil && stage.RequiresNextStep {
				nextStepMissing = state.NextStepAt == nil && state.NextStepType == ""
			}
		}
	}

	var nextMeetingAt *time.Time
	nextMeetingTask, err := e.store.NextOpenMeetingTask(ctx, contactID, now)
	if err != nil {
		return err
	}
	if nextMeetingTask != nil {
		due := nextMeetingTask.DueDate
		nextMeetingAt = &due
	}

	snapshot := &schemas.MetricsSnapshot{
		ContactID:  contactID,
		PipelineID: pipelineID,

		InteractionsCount: len(interactions90),
		EmailsOutCount:    len(emailsOut),
		EmailsInCount:     len(emailsIn),
		MeetingsCount:     len(meetings),
		DemosCount:        len(demos),
		CallsCount:        len(calls),

		LastInteractionAt: lastInteractionAt,
		LastEmailAt:       lastEmailAt,
		LastEmailOutAt:    lastEmailOutAt,
		LastEmailInAt:     lastEmailInAt,
		LastMeetingAt:     lastMeetingAt,
		LastDemoAt:        lastDemoAt,
		NextMeetingAt:     nextMeetingAt,

		ReplyDetected:         replyDetected,
		LastReplyAt:           lastReplyAt,
		DaysSinceLastActivity: daysSinceLastActivity,
		StaleFlag:             staleFlag,
		NextStepMissing:       nextStepMissing,

		UpdatedAt: now,
	}

	sellsyLink, err := e.store.FindSellsyLink(ctx, contactID)
	if err != nil {
		return err
	}
	if sellsyLink != nil {
		snapshot.SellsyStage = sellsyLink.SellsyStage
		snapshot.SellsyAmount = sellsyLink.SellsyAmount
		snapshot.SellsyCloseDate = sellsyLink.SellsyCloseDate
	}

	return e.store.UpsertSnapshot(ctx, snapshot)
}

// RecomputeAll rebuilds the snapshot of every contact: once per pipeline the
// contact is placed in, or once globally when it is in none. One contact
// failing is logged and skipped, never aborting the batch. Returns the
// number of contacts processed.
func (e *Engine) RecomputeAll(ctx context.Context) (int, error) {
	contactIDs, err := e.store.ListContactIDs(ctx)
	if err != nil {
		return 0, err
	}

	jobs := make(chan bson.ObjectID)
	var wg sync.WaitGroup

	for range recomputeAllWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for contactID := range jobs {
				if err := e.RecomputeContact(ctx, contactID); err != nil {
					log.Printf("[metrics] recompute failed for contact %s: %v", contactID.Hex(), err)
				}
			}
		}()
	}

	for _, id := range contactIDs {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return len(contactIDs), nil
}

// RecomputeContact rebuilds every snapshot row of one contact.
func (e *Engine) RecomputeContact(ctx context.Context, contactID bson.ObjectID) error {
	states, err := e.store.ListPipelineStates(ctx, contactID)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		return e.Recompute(ctx, contactID, nil)
	}

	for _, state := range states {
		pipelineID := state.PipelineID
		if err := e.Recompute(ctx, contactID, &pipelineID); err != nil {
			return err
		}
	}
	return nil
}

// firstOccurredAt takes the head of a most-recent-first slice.
func firstOccurredAt(interactions []schemas.Interaction) *time.Time {
	if len(interactions) == 0 {
		return nil
	}
	at := interactions[0].OccurredAt
	return &at
}
