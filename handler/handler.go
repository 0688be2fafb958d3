package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/domain/repository"
	"github.com/slack-go/slack"
)

// Server verifies every inbound webhook before dispatching it. The
// signature check happens on the raw body, ahead of any parsing or
// state change.
type Server struct {
	signingSecret string
	commands      *CommandHandler
	interactions  *InteractionHandler
	oauth         *OAuthHandler
	now           func() time.Time
}

func NewServer(signingSecret string, commands *CommandHandler, interactions *InteractionHandler, oauth *OAuthHandler) *Server {
	return &Server{
		signingSecret: signingSecret,
		commands:      commands,
		interactions:  interactions,
		oauth:         oauth,
		now:           time.Now,
	}
}

func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /slack/commands", s.handleCommands)
	mux.HandleFunc("POST /slack/interactions", s.handleInteractions)
	mux.HandleFunc("POST /slack/events", s.handleEvents)
	if s.oauth != nil {
		mux.HandleFunc("GET /slack/oauth/callback", s.oauth.Callback)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// verifiedBody reads the request and rejects it unless the Slack
// signature is valid and fresh.
func (s *Server) verifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}

	err = VerifySlackRequest(
		s.signingSecret,
		body,
		r.Header.Get("X-Slack-Signature"),
		r.Header.Get("X-Slack-Request-Timestamp"),
		s.now(),
	)
	if err != nil {
		var authErr *entity.AuthenticationError
		if errors.As(err, &authErr) {
			slog.Warn("Rejected unauthenticated request", slog.String("reason", authErr.Reason))
			http.Error(w, "invalid signature", http.StatusUnauthorized)
		} else {
			http.Error(w, "bad request", http.StatusBadRequest)
		}
		return nil, false
	}
	return body, true
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verifiedBody(w, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	s.commands.Handle(w, r, form)
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verifiedBody(w, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	payload := form.Get("payload")
	if payload == "" {
		http.Error(w, "missing payload", http.StatusBadRequest)
		return
	}
	s.interactions.Handle(r.Context(), w, []byte(payload))
}

// handleEvents answers the URL-verification handshake Slack performs
// when the events endpoint is registered. Other events are
// acknowledged without work.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := s.verifiedBody(w, r)
	if !ok {
		return
	}
	var event struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if event.Type == "url_verification" {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, event.Challenge)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Serve wires the repositories together and runs the HTTP server
// until the context is canceled.
func Serve(ctx context.Context, configPath string) error {
	config, err := repository.NewConfigRepository(configPath)
	if err != nil {
		return err
	}

	webAPI := slack.New(os.Getenv("SLACK_BOT_TOKEN"))
	authTest, err := webAPI.AuthTest()
	if err != nil {
		return fmt.Errorf("SLACK_BOT_TOKEN is invalid: %w", err)
	}
	slog.Info("Bot ID", slog.String("bot_id", authTest.UserID))

	incidentDB, err := repository.NewIncidentDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}

	slackRepository := repository.NewSlackRepository(webAPI)
	repo := repository.NewRepository(incidentDB, config, config)

	jiraRepository := repository.NewJiraRepository(
		config.Jira.Server,
		config.Jira.Email,
		os.Getenv("JIRA_API_KEY"),
		config.Jira.Project,
		config.Jira.IssueType,
	)
	statuspageRepository := repository.NewStatuspageRepository(
		config.Statuspage.URL,
		config.Statuspage.PageID,
		config.Statuspage.ComponentID,
		os.Getenv("STATUSPAGE_API_KEY"),
	)
	opsgenieRepository := repository.NewOpsgenieRepository(
		config.Opsgenie.URL,
		os.Getenv("OPSGENIE_API_KEY"),
	)

	orchestrator := NewOrchestrator(
		repo,
		jiraRepository,
		slackRepository,
		statuspageRepository,
		opsgenieRepository,
		config.GeneralOutagesChannel,
		config.ChannelPrefix,
		config.Jira.Server,
	)

	var oauthHandler *OAuthHandler
	if os.Getenv("SLACK_CLIENT_ID") != "" && os.Getenv("SLACK_CLIENT_SECRET") != "" {
		tokenRepository, err := repository.NewTokenRepository(incidentDB.Conn(), os.Getenv("TOKEN_ENCRYPTION_KEY"))
		if err != nil {
			return err
		}
		oauthHandler = NewOAuthHandler(
			tokenRepository,
			os.Getenv("SLACK_CLIENT_ID"),
			os.Getenv("SLACK_CLIENT_SECRET"),
			os.Getenv("SLACK_REDIRECT_URI"),
		)
	}

	server := NewServer(
		os.Getenv("SLACK_SIGNING_SECRET"),
		NewCommandHandler(slackRepository, config),
		NewInteractionHandler(orchestrator, slackRepository, config.Jira.Server),
		oauthHandler,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.HTTPPort),
		Handler:           server.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
