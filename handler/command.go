package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/outageops/sobot/domain/repository"
	"github.com/outageops/sobot/presentation/blocks"
)

// CommandHandler opens the right modal for each slash command.
type CommandHandler struct {
	slackRepo repository.SlackRepositoryer
	config    *repository.Config
}

func NewCommandHandler(slackRepo repository.SlackRepositoryer, config *repository.Config) *CommandHandler {
	return &CommandHandler{
		slackRepo: slackRepo,
		config:    config,
	}
}

func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request, form url.Values) {
	command := form.Get("command")
	triggerID := form.Get("trigger_id")
	if triggerID == "" {
		http.Error(w, "missing trigger_id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch command {
	case "/create-incident":
		view := blocks.CreateIncidentModal(
			h.config.Products(ctx),
			h.config.Severities(ctx),
			h.config.Components(ctx),
			h.config.Teams(ctx),
		)
		if err := h.slackRepo.OpenView(triggerID, view); err != nil {
			ackEphemeral(w, "Failed to open the incident form, please try again.")
			return
		}
		ackEphemeral(w, "Incident form opened.")
	case "/get-incident":
		if err := h.slackRepo.OpenView(triggerID, blocks.LookupModal()); err != nil {
			ackEphemeral(w, "Failed to open the lookup form, please try again.")
			return
		}
		ackEphemeral(w, "Lookup form opened.")
	case "/update-incident":
		if err := h.slackRepo.OpenView(triggerID, blocks.StatusUpdateModal()); err != nil {
			ackEphemeral(w, "Failed to open the status update form, please try again.")
			return
		}
		ackEphemeral(w, "Status update form opened.")
	default:
		slog.Warn("Unknown command", slog.String("command", command))
		http.Error(w, "unknown command", http.StatusBadRequest)
	}
}
