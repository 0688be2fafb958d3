package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/outageops/sobot/domain/entity"
)

type AlertRepositoryer interface {
	CreateAlert(ctx context.Context, incident *entity.Incident) error
}

// OpsgenieRepository pages the on-call rotation.
type OpsgenieRepository struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewOpsgenieRepository(url, apiKey string) *OpsgenieRepository {
	return &OpsgenieRepository{
		url:    strings.TrimSuffix(url, "/"),
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (r *OpsgenieRepository) CreateAlert(ctx context.Context, incident *entity.Incident) error {
	payload := map[string]string{
		"message": "Service Outage Alert",
		"description": fmt.Sprintf(
			"An incident has been created with the following details:\nSO Number: %s\nSeverity: %s\nAffected products: %s\nDescription: %s",
			incident.SONumber,
			incident.Severity.Join(", "),
			incident.AffectedProducts.Join(", "),
			incident.Description,
		),
		"priority": "P1",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/v2/alerts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build alert request error: %w", err)
	}
	req.Header.Set("Authorization", "GenieKey "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create alert error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("create alert error: status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
