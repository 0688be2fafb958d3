package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/domain/repository"
)

func TestOpsgenieCreateAlert(t *testing.T) {
	var captured map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/alerts", r.URL.Path)
		assert.Equal(t, "GenieKey og-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	repo := repository.NewOpsgenieRepository(server.URL, "og-key")
	err := repo.CreateAlert(context.Background(), &entity.Incident{
		SONumber:         "SO-0042",
		Severity:         entity.StringList{"SEV1"},
		AffectedProducts: entity.StringList{"Checkout"},
		Description:      "checkout is down",
	})
	require.NoError(t, err)

	assert.Equal(t, "Service Outage Alert", captured["message"])
	assert.Equal(t, "P1", captured["priority"])
	assert.Contains(t, captured["description"], "SO Number: SO-0042")
	assert.Contains(t, captured["description"], "Severity: SEV1")
}

func TestOpsgenieCreateAlertServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer server.Close()

	repo := repository.NewOpsgenieRepository(server.URL, "og-key")
	err := repo.CreateAlert(context.Background(), &entity.Incident{SONumber: "SO-0042"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}
