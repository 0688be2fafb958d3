package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"
)

// Modal acknowledgment bodies. Slack closes, annotates, or replaces
// the open modal based on response_action.

type viewAck struct {
	ResponseAction string                  `json:"response_action"`
	Errors         map[string]string       `json:"errors,omitempty"`
	View           *slack.ModalViewRequest `json:"view,omitempty"`
}

func ackClear(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, viewAck{ResponseAction: "clear"})
}

func ackErrors(w http.ResponseWriter, errors map[string]string) {
	writeJSON(w, http.StatusOK, viewAck{ResponseAction: "errors", Errors: errors})
}

func ackUpdate(w http.ResponseWriter, view slack.ModalViewRequest) {
	writeJSON(w, http.StatusOK, viewAck{ResponseAction: "update", View: &view})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", slog.Any("err", err))
	}
}

type commandAck struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

func ackEphemeral(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, commandAck{ResponseType: "ephemeral", Text: text})
}
