package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/domain/repository"
)

func testCreationForm() *entity.CreationForm {
	return &entity.CreationForm{
		AffectedProducts:    []string{"Checkout"},
		Severity:            []string{"SEV1"},
		SuspectedOwningTeam: []string{"Payments"},
		StartTime:           time.Date(2024, 12, 10, 10, 0, 0, 0, time.UTC),
		EndTime:             time.Date(2024, 12, 10, 11, 0, 0, 0, time.UTC),
		CustomerAffected:    true,
		Description:         "checkout is down",
	}
}

func TestJiraCreateTicket(t *testing.T) {
	var captured struct {
		Fields struct {
			Project struct {
				Key string `json:"key"`
			} `json:"project"`
			Summary   string `json:"summary"`
			IssueType struct {
				Name string `json:"name"`
			} `json:"issuetype"`
		} `json:"fields"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "api-key", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"key": "SO-101"})
	}))
	defer server.Close()

	repo := repository.NewJiraRepository(server.URL, "bot@example.com", "api-key", "SO", "Service Outage")
	key, err := repo.CreateTicket(context.Background(), "SO-0042", testCreationForm())
	require.NoError(t, err)
	assert.Equal(t, "SO-101", key)

	assert.Equal(t, "SO", captured.Fields.Project.Key)
	assert.Equal(t, "Service Outage", captured.Fields.IssueType.Name)
	assert.Contains(t, captured.Fields.Summary, "SO-0042")
	assert.Contains(t, captured.Fields.Summary, "Checkout")
}

func TestJiraCreateTicketServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := repository.NewJiraRepository(server.URL, "bot@example.com", "api-key", "SO", "Service Outage")
	_, err := repo.CreateTicket(context.Background(), "SO-0042", testCreationForm())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestJiraSearchLatestKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("jql"), "project = SO")
		json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]string{{"key": "SO-250"}},
		})
	}))
	defer server.Close()

	repo := repository.NewJiraRepository(server.URL, "bot@example.com", "api-key", "SO", "Service Outage")
	key, err := repo.SearchLatestKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SO-250", key)
}

func TestJiraSearchLatestKeyEmptyProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"issues": []map[string]string{}})
	}))
	defer server.Close()

	repo := repository.NewJiraRepository(server.URL, "bot@example.com", "api-key", "SO", "Service Outage")
	key, err := repo.SearchLatestKey(context.Background())
	require.NoError(t, err)
	assert.Empty(t, key)
}
