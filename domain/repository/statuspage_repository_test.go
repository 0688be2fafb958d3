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

type statuspageCapture struct {
	Incident struct {
		ID                   string            `json:"id"`
		Name                 string            `json:"name"`
		Status               string            `json:"status"`
		Body                 string            `json:"body"`
		Components           map[string]string `json:"components"`
		DeliverNotifications bool              `json:"deliver_notifications"`
	} `json:"incident"`
}

func TestStatuspageCreateIncident(t *testing.T) {
	var captured statuspageCapture

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/page-1/incidents", r.URL.Path)
		assert.Equal(t, "Bearer sp-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "sp-incident-1"})
	}))
	defer server.Close()

	repo := repository.NewStatuspageRepository(server.URL, "page-1", "comp-1", "sp-key")
	incident := &entity.Incident{
		SONumber:            "SO-0042",
		AffectedProducts:    entity.StringList{"Checkout"},
		Severity:            entity.StringList{"SEV1"},
		SuspectedOwningTeam: entity.StringList{"Payments"},
		StartTime:           time.Date(2024, 12, 10, 10, 0, 0, 0, time.UTC),
		CustomerAffected:    true,
		Description:         "checkout is down",
	}

	id, err := repo.CreateStatuspageIncident(context.Background(), incident)
	require.NoError(t, err)
	assert.Equal(t, "sp-incident-1", id)

	assert.Equal(t, "🚨 Incident Report: SO-0042 🚨", captured.Incident.Name)
	assert.Equal(t, "investigating", captured.Incident.Status)
	assert.Equal(t, "degraded_performance", captured.Incident.Components["comp-1"])
	assert.True(t, captured.Incident.DeliverNotifications)
	assert.Contains(t, captured.Incident.Body, "*SO Number:* SO-0042")
	assert.Contains(t, captured.Incident.Body, "*Customer Affected:* Yes")
	assert.Contains(t, captured.Incident.Body, "*Message:* No additional message")
}

func TestStatuspageCreateIncidentServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	repo := repository.NewStatuspageRepository(server.URL, "page-1", "comp-1", "sp-key")
	_, err := repo.CreateStatuspageIncident(context.Background(), &entity.Incident{SONumber: "SO-0042"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestStatuspageUpdateIncident(t *testing.T) {
	var captured statuspageCapture

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/page-1/incidents/sp-incident-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	repo := repository.NewStatuspageRepository(server.URL, "page-1", "comp-1", "sp-key")
	err := repo.UpdateStatuspageIncident(context.Background(), "sp-incident-1", "identified", "root cause found")
	require.NoError(t, err)

	assert.Equal(t, "identified", captured.Incident.Status)
	assert.Equal(t, "degraded_performance", captured.Incident.Components["comp-1"])
	assert.Contains(t, captured.Incident.Body, "Status updated to 'Identified'.")
	assert.Contains(t, captured.Incident.Body, "root cause found")
}

func TestStatuspageUpdateResolvedRestoresComponent(t *testing.T) {
	var captured statuspageCapture

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	repo := repository.NewStatuspageRepository(server.URL, "page-1", "comp-1", "sp-key")
	err := repo.UpdateStatuspageIncident(context.Background(), "sp-incident-1", "resolved", "")
	require.NoError(t, err)

	assert.Equal(t, "operational", captured.Incident.Components["comp-1"])
	assert.Contains(t, captured.Incident.Body, "No additional information provided.")
}
