package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/domain/repository"
	"github.com/outageops/sobot/presentation/blocks"
	"github.com/slack-go/slack"
)

// InteractionHandler dispatches view submissions by callback id.
type InteractionHandler struct {
	orchestrator *Orchestrator
	slackRepo    repository.SlackRepositoryer
	jiraServer   string
}

func NewInteractionHandler(orchestrator *Orchestrator, slackRepo repository.SlackRepositoryer, jiraServer string) *InteractionHandler {
	return &InteractionHandler{
		orchestrator: orchestrator,
		slackRepo:    slackRepo,
		jiraServer:   jiraServer,
	}
}

func (h *InteractionHandler) Handle(ctx context.Context, w http.ResponseWriter, payload []byte) {
	var callback slack.InteractionCallback
	if err := json.Unmarshal(payload, &callback); err != nil {
		slog.Error("Failed to parse interaction payload", slog.Any("err", err))
		http.Error(w, "malformed payload", http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeViewSubmission {
		// Block actions and the rest carry no work here, ack and move on.
		w.WriteHeader(http.StatusOK)
		return
	}

	switch callback.View.CallbackID {
	case blocks.CreateIncidentCallbackID:
		h.handleCreation(ctx, w, &callback)
	case blocks.LookupCallbackID:
		h.handleLookup(ctx, w, &callback)
	case blocks.StatusUpdateCallbackID:
		h.handleStatusUpdate(ctx, w, &callback)
	default:
		slog.Warn("Unknown view callback", slog.String("callback_id", callback.View.CallbackID))
		http.Error(w, "unknown callback", http.StatusBadRequest)
	}
}

func (h *InteractionHandler) handleCreation(ctx context.Context, w http.ResponseWriter, callback *slack.InteractionCallback) {
	form, err := ExtractCreationForm(callback.View.State.Values)
	if err != nil {
		h.ackValidationError(w, err)
		return
	}

	result, err := h.orchestrator.CreateIncident(ctx, form, callback.TriggerID)
	if err != nil {
		var required *entity.RequiredStepError
		if errors.As(err, &required) {
			ackUpdate(w, blocks.FailureView(required.Step+" failed"))
			return
		}
		slog.Error("Unexpected creation failure", slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("Incident created",
		slog.String("so_number", result.Incident.SONumber),
		slog.String("ticket_key", result.Incident.ExternalTicketKey),
		slog.Any("steps", result.Steps))
	ackClear(w)
}

func (h *InteractionHandler) handleLookup(ctx context.Context, w http.ResponseWriter, callback *slack.InteractionCallback) {
	form, err := ExtractLookupForm(callback.View.State.Values)
	if err != nil {
		h.ackValidationError(w, err)
		return
	}

	incident, err := h.orchestrator.Lookup(ctx, form.SONumber)
	if err != nil {
		slog.Error("Lookup failed", slog.String("so_number", form.SONumber), slog.Any("err", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if incident == nil {
		ackUpdate(w, blocks.NotFoundView(form.SONumber))
		return
	}

	// Deliver the summary privately. A DM to a user id opens the
	// conversation implicitly.
	message := blocks.IncidentDetailsMessage(incident, h.jiraServer)
	if err := h.slackRepo.PostMessage(ctx, callback.User.ID, message); err != nil {
		slog.Error("Failed to deliver incident summary", slog.Any("err", err))
		ackErrors(w, map[string]string{
			"so_number": "Failed to deliver the incident summary, please try again",
		})
		return
	}
	ackClear(w)
}

func (h *InteractionHandler) handleStatusUpdate(ctx context.Context, w http.ResponseWriter, callback *slack.InteractionCallback) {
	form, err := ExtractStatusUpdateForm(callback.View.State.Values)
	if err != nil {
		h.ackValidationError(w, err)
		return
	}

	incident, err := h.orchestrator.UpdateStatus(ctx, form)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrIncidentNotFound):
			ackErrors(w, map[string]string{
				"so_number": fmt.Sprintf("No incident found for SO Number: %s", form.SONumber),
			})
		case errors.Is(err, ErrNoStatuspageReference):
			ackErrors(w, map[string]string{
				"so_number": "This incident was never published to the status page",
			})
		default:
			slog.Error("Status update failed",
				slog.String("so_number", form.SONumber),
				slog.String("new_status", form.NewStatus),
				slog.Any("err", err))
			ackErrors(w, map[string]string{
				"status_update_block": "Failed to update the status page, the stored status is unchanged",
			})
		}
		return
	}

	ackUpdate(w, blocks.StatusUpdatedView(incident.SONumber, form.NewStatus))
}

func (h *InteractionHandler) ackValidationError(w http.ResponseWriter, err error) {
	var validation *entity.ValidationError
	if errors.As(err, &validation) {
		ackErrors(w, map[string]string{validation.Field: validation.Reason})
		return
	}
	http.Error(w, "malformed payload", http.StatusBadRequest)
}
