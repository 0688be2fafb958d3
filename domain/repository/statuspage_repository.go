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

type StatuspageRepositoryer interface {
	CreateStatuspageIncident(ctx context.Context, incident *entity.Incident) (string, error)
	UpdateStatuspageIncident(ctx context.Context, statuspageID, newStatus, additionalInfo string) error
}

// StatuspageRepository publishes incidents to the public status page.
type StatuspageRepository struct {
	url         string
	pageID      string
	componentID string
	apiKey      string
	httpClient  *http.Client
}

func NewStatuspageRepository(url, pageID, componentID, apiKey string) *StatuspageRepository {
	return &StatuspageRepository{
		url:         strings.TrimSuffix(url, "/"),
		pageID:      pageID,
		componentID: componentID,
		apiKey:      apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type statuspageIncident struct {
	ID                   string            `json:"id,omitempty"`
	Name                 string            `json:"name,omitempty"`
	Status               string            `json:"status"`
	Body                 string            `json:"body"`
	Components           map[string]string `json:"components,omitempty"`
	ComponentIDs         []string          `json:"component_ids,omitempty"`
	DeliverNotifications bool              `json:"deliver_notifications,omitempty"`
}

type statuspagePayload struct {
	Incident statuspageIncident `json:"incident"`
}

func (r *StatuspageRepository) CreateStatuspageIncident(ctx context.Context, incident *entity.Incident) (string, error) {
	message := incident.Message
	if message == "" {
		message = "No additional message"
	}
	customerAffected := "No"
	if incident.CustomerAffected {
		customerAffected = "Yes"
	}
	body := fmt.Sprintf(
		"*Incident Summary:*\n"+
			"----------------------------------\n"+
			"*SO Number:* %s\n"+
			"*Severity Level:* %s\n"+
			"*Affected Products:* %s\n"+
			"*Suspected Teams:* %s\n"+
			"*Start Time:* %s\n"+
			"*Affected Components:* %s\n"+
			"\n"+
			"*Additional Details:*\n"+
			"----------------------------------\n"+
			"*Description:* %s\n"+
			"*Message:* %s\n"+
			"*Customer Affected:* %s",
		incident.SONumber,
		incident.Severity.Join(", "),
		incident.AffectedProducts.Join(", "),
		incident.SuspectedOwningTeam.Join(", "),
		incident.StartTime.Format(time.RFC3339),
		incident.AffectedComponents.Join(", "),
		incident.Description,
		message,
		customerAffected,
	)

	payload := statuspagePayload{
		Incident: statuspageIncident{
			Name:                 fmt.Sprintf("🚨 Incident Report: %s 🚨", incident.SONumber),
			Status:               string(entity.StatusInvestigating),
			Body:                 body,
			Components:           map[string]string{r.componentID: "degraded_performance"},
			ComponentIDs:         []string{r.componentID},
			DeliverNotifications: true,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/incidents", r.url, r.pageID)
	if err := r.do(ctx, http.MethodPost, endpoint, payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("statuspage response missing incident id")
	}
	return created.ID, nil
}

func (r *StatuspageRepository) UpdateStatuspageIncident(ctx context.Context, statuspageID, newStatus, additionalInfo string) error {
	if additionalInfo == "" {
		additionalInfo = "No additional information provided."
	}
	component := "degraded_performance"
	if newStatus == string(entity.StatusResolved) {
		component = "operational"
	}
	payload := statuspagePayload{
		Incident: statuspageIncident{
			ID:         statuspageID,
			Status:     newStatus,
			Body:       fmt.Sprintf("Status updated to '%s'.\n\n%s", capitalize(newStatus), additionalInfo),
			Components: map[string]string{r.componentID: component},
		},
	}
	endpoint := fmt.Sprintf("%s/%s/incidents/%s", r.url, r.pageID, statuspageID)
	return r.do(ctx, http.MethodPatch, endpoint, payload, nil)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (r *StatuspageRepository) do(ctx context.Context, method, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal statuspage payload error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build statuspage request error: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("statuspage request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("statuspage request error: status=%d body=%s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode statuspage response error: %w", err)
	}
	return nil
}
