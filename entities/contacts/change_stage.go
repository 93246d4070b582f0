package contacts

import (
	"api/database"
	"api/engine"
	"api/entities/pipelines"
	"api/middlewares"
	"api/schemas"
	"api/storage"
	"api/utils"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type changeStageRequest struct {
	PipelineID   string     `json:"pipeline_id"`
	StageID      string     `json:"stage_id"`
	Status       string     `json:"status"`
	Reason       string     `json:"reason"`
	NextStepAt   *time.Time `json:"next_step_at"`
	NextStepType string     `json:"next_step_type"`
	// Force moves the contact even when the target stage requirements are
	// not met. Managers use it for corrections.
	Force bool `json:"force"`
}

// ChangeStage moves a contact to another stage. The declarative requirements
// of the target stage are checked first and reported as a 422 with the list
// of violations, unless force is set.
func ChangeStage(schedule engine.ScheduleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := r.PathValue("id")
		contactID, err := bson.ObjectIDFromHex(idStr)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}

		req := &changeStageRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, CONTACTS_INVALID_REQUEST_DATA)
			return
		}

		pipelineID, err := bson.ObjectIDFromHex(req.PipelineID)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}
		stageID, err := bson.ObjectIDFromHex(req.StageID)
		if err != nil {
			utils.SendResponse(w, http.StatusBadRequest, "", nil, utils.INVALID_ID_FORMAT)
			return
		}

		var actingUserID bson.ObjectID
		if user, ok := middlewares.CurrentUser(r); ok {
			if parsed, err := bson.ObjectIDFromHex(user.ID); err == nil {
				actingUserID = parsed
			}
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

		contact := &schemas.Contact{}
		err = db.Collection(database.COLLECTION_CONTACTS).
			FindOne(ctx, bson.D{{Key: "_id", Value: contactID}}).Decode(contact)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.SendResponse(w, http.StatusNotFound, "Contact introuvable", nil, 0)
			} else {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_FIND_CONTACT_BY_ID_IN_MONGODB)
			}
			return
		}

		store := storage.NewMongoStore(mongoClient)
		eng := engine.New(store, engine.SystemClock(), schedule)

		// Next step fields arrive with the move so a stage gated on them can
		// be satisfied in the same request.
		if req.NextStepAt != nil || req.NextStepType != "" {
			state, err := store.FindPipelineState(ctx, contactID, pipelineID)
			if err != nil {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_CHANGE_CONTACT_STAGE)
				return
			}
			if state != nil {
				if req.NextStepAt != nil {
					state.NextStepAt = req.NextStepAt
				}
				if req.NextStepType != "" {
					state.NextStepType = req.NextStepType
				}
				if err := store.UpdatePipelineState(ctx, state); err != nil {
					utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_CHANGE_CONTACT_STAGE)
					return
				}
			}
		}

		if !req.Force {
			stage, err := store.FindStage(ctx, stageID)
			if err != nil {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_CHANGE_CONTACT_STAGE)
				return
			}
			state, err := store.FindPipelineState(ctx, contactID, pipelineID)
			if err != nil {
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_CHANGE_CONTACT_STAGE)
				return
			}
			if violations := engine.CheckStageRequirements(stage, contact, state); len(violations) > 0 {
				utils.SendResponse(w, http.StatusUnprocessableEntity,
					"Les conditions de l'étape ne sont pas remplies",
					map[string]any{"violations": violations}, 0)
				return
			}
		}

		state, err := eng.Transition(ctx, engine.TransitionInput{
			ContactID:    contactID,
			PipelineID:   pipelineID,
			StageID:      stageID,
			ActingUserID: actingUserID,
			Reason:       req.Reason,
			Status:       req.Status,
		})
		if err != nil {
			switch {
			case engine.IsNotFound(err):
				utils.SendResponse(w, http.StatusNotFound, err.Error(), nil, 0)
			case errors.Is(err, engine.ErrStageOutsidePipeline):
				utils.SendResponse(w, http.StatusBadRequest, "L'étape n'appartient pas à ce pipeline", nil, 0)
			case errors.Is(err, engine.ErrInvalidStatus):
				utils.SendResponse(w, http.StatusBadRequest, "Statut invalide", nil, 0)
			default:
				utils.SendResponse(w, http.StatusInternalServerError, "", nil, CANNOT_CHANGE_CONTACT_STAGE)
			}
			return
		}

		pipelines.InvalidateBoardCache(ctx, pipelineID)
		pipelines.BroadcastBoardUpdate(pipelines.BoardWSMessage{
			Action:     "contact_moved",
			PipelineID: pipelineID.Hex(),
			ContactID:  contactID.Hex(),
			StageID:    stageID.Hex(),
		})

		utils.SendResponse(w, http.StatusOK, "", state, 0)
	}
}
