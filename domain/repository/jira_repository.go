package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/outageops/sobot/domain/entity"
)

type TicketRepositoryer interface {
	CreateTicket(ctx context.Context, soNumber string, form *entity.CreationForm) (string, error)
	SearchLatestKey(ctx context.Context) (string, error)
}

// JiraRepository creates the tracking ticket for every incident.
type JiraRepository struct {
	server     string
	email      string
	apiKey     string
	project    string
	issueType  string
	httpClient *http.Client
}

func NewJiraRepository(server, email, apiKey, project, issueType string) *JiraRepository {
	return &JiraRepository{
		server:    strings.TrimSuffix(server, "/"),
		email:     email,
		apiKey:    apiKey,
		project:   project,
		issueType: issueType,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type jiraIssueFields struct {
	Project     jiraProject   `json:"project"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	IssueType   jiraIssueType `json:"issuetype"`
}

type jiraProject struct {
	Key string `json:"key"`
}

type jiraIssueType struct {
	Name string `json:"name"`
}

func (r *JiraRepository) CreateTicket(ctx context.Context, soNumber string, form *entity.CreationForm) (string, error) {
	summary := fmt.Sprintf("%s: %s - %s", soNumber, strings.Join(form.AffectedProducts, ", "), form.Description)
	description := fmt.Sprintf(
		"Severity: %s\nSuspected owning team: %s\nStart: %s\nEnd: %s\nCustomer affected: %t\n\n%s",
		strings.Join(form.Severity, ", "),
		strings.Join(form.SuspectedOwningTeam, ", "),
		form.StartTime.Format(time.RFC3339),
		form.EndTime.Format(time.RFC3339),
		form.CustomerAffected,
		form.Description,
	)

	payload := map[string]jiraIssueFields{
		"fields": {
			Project:     jiraProject{Key: r.project},
			Summary:     summary,
			Description: description,
			IssueType:   jiraIssueType{Name: r.issueType},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal ticket payload error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.server+"/rest/api/2/issue", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build ticket request error: %w", err)
	}
	req.SetBasicAuth(r.email, r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create ticket error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("create ticket error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode ticket response error: %w", err)
	}
	if created.Key == "" {
		return "", fmt.Errorf("ticket response missing key")
	}
	return created.Key, nil
}

// SearchLatestKey returns the key of the most recently created ticket
// in the incident project.
func (r *JiraRepository) SearchLatestKey(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("jql", fmt.Sprintf("project = %s ORDER BY created DESC", r.project))
	query.Set("maxResults", "1")
	query.Set("fields", "key")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.server+"/rest/api/2/search?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build search request error: %w", err)
	}
	req.SetBasicAuth(r.email, r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search tickets error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("search tickets error: status=%d body=%s", resp.StatusCode, string(b))
	}

	var result struct {
		Issues []struct {
			Key string `json:"key"`
		} `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode search response error: %w", err)
	}
	if len(result.Issues) == 0 {
		return "", nil
	}
	return result.Issues[0].Key, nil
}
