package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/outageops/sobot/domain/repository"
	"github.com/slack-go/slack"
)

// OAuthHandler finishes the app installation flow and stores the
// granted token sealed at rest.
type OAuthHandler struct {
	tokens       repository.TokenRepositoryer
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   *http.Client
}

func NewOAuthHandler(tokens repository.TokenRepositoryer, clientID, clientSecret, redirectURI string) *OAuthHandler {
	return &OAuthHandler{
		tokens:       tokens,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   http.DefaultClient,
	}
}

func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	resp, err := slack.GetOAuthV2Response(h.httpClient, h.clientID, h.clientSecret, code, h.redirectURI)
	if err != nil {
		slog.Error("OAuth exchange failed", slog.Any("err", err))
		http.Error(w, "oauth exchange failed", http.StatusBadGateway)
		return
	}

	token := resp.AccessToken
	if resp.AuthedUser.AccessToken != "" {
		token = resp.AuthedUser.AccessToken
	}
	saved, err := h.tokens.SaveToken(r.Context(), resp.AuthedUser.ID, token)
	if err != nil {
		slog.Error("Failed to save token", slog.Any("err", err))
		http.Error(w, "failed to save token", http.StatusInternalServerError)
		return
	}

	slog.Info("Installation completed",
		slog.String("user_id", saved.UserID),
		slog.String("role", string(saved.Role)))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Installation complete. You can close this window.")
}
