package handler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/outageops/sobot/domain/entity"
	"github.com/outageops/sobot/domain/repository"
	"github.com/outageops/sobot/presentation/blocks"
)

// Pipeline step names, recorded per incident in the SagaResult.
const (
	StepCreateTicket    = "create_ticket"
	StepPersist         = "persist"
	StepReporterAck     = "reporter_ack"
	StepIncidentChannel = "incident_channel"
	StepGeneralChannel  = "general_channel"
	StepTeamChannel     = "team_channel"
	StepStatuspageSync  = "statuspage_sync"
	StepAlert           = "alert"
)

type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

type StepResult struct {
	Step   string
	Status StepStatus
	Err    string
}

// SagaResult records which best-effort steps succeeded, instead of
// losing that after logging. Required-step failures never produce one,
// they abort with a RequiredStepError.
type SagaResult struct {
	Incident          *entity.Incident
	IncidentChannelID string
	Steps             []StepResult
}

func (r *SagaResult) record(step string, status StepStatus, err error) {
	result := StepResult{Step: step, Status: status}
	if err != nil {
		result.Err = err.Error()
	}
	r.Steps = append(r.Steps, result)
}

func (r *SagaResult) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Orchestrator drives a validated candidate through the creation
// pipeline and serves the lookup and status-update flows.
type Orchestrator struct {
	repo           repository.Repository
	tickets        repository.TicketRepositoryer
	slackRepo      repository.SlackRepositoryer
	statuspage     repository.StatuspageRepositoryer
	alerts         repository.AlertRepositoryer
	generalChannel string
	channelPrefix  string
	jiraServer     string
}

func NewOrchestrator(
	repo repository.Repository,
	tickets repository.TicketRepositoryer,
	slackRepo repository.SlackRepositoryer,
	statuspage repository.StatuspageRepositoryer,
	alerts repository.AlertRepositoryer,
	generalChannel string,
	channelPrefix string,
	jiraServer string,
) *Orchestrator {
	return &Orchestrator{
		repo:           repo,
		tickets:        tickets,
		slackRepo:      slackRepo,
		statuspage:     statuspage,
		alerts:         alerts,
		generalChannel: generalChannel,
		channelPrefix:  channelPrefix,
		jiraServer:     jiraServer,
	}
}

// CreateIncident runs the ordered pipeline. Ticket creation and
// persistence are required and abort the saga. Everything after is
// best effort, each step's outcome lands in the SagaResult.
func (o *Orchestrator) CreateIncident(ctx context.Context, form *entity.CreationForm, triggerID string) (*SagaResult, error) {
	soNumber, err := o.nextSONumber(ctx)
	if err != nil {
		return nil, &entity.RequiredStepError{Step: StepCreateTicket, Err: err}
	}

	ticketKey, err := o.tickets.CreateTicket(ctx, soNumber, form)
	if err != nil {
		slog.Error("Ticket creation failed, candidate retained for manual recovery",
			slog.String("so_number", soNumber),
			slog.Any("form", form),
			slog.Any("err", err))
		return nil, &entity.RequiredStepError{Step: StepCreateTicket, Err: err}
	}

	incident := o.buildIncident(soNumber, ticketKey, form)
	if err := o.repo.CreateIncident(ctx, incident); err != nil {
		if err == repository.ErrDuplicateSONumber {
			// A concurrent creation won the number, the unique index
			// is the arbiter. Allocate once more and retry.
			incident, err = o.retryPersist(ctx, ticketKey, form)
		}
		if err != nil {
			slog.Error("Persisting incident failed, external ticket is orphaned",
				slog.String("ticket_key", ticketKey),
				slog.Any("err", err))
			return nil, &entity.RequiredStepError{Step: StepPersist, Err: err}
		}
	}

	result := &SagaResult{Incident: incident}
	result.record(StepCreateTicket, StepOK, nil)
	result.record(StepPersist, StepOK, nil)

	o.acknowledgeReporter(result, triggerID, incident)
	o.fanOutNotifications(ctx, result, incident)
	o.syncStatuspage(ctx, result, incident)
	o.createAlert(ctx, result, incident)

	return result, nil
}

func (o *Orchestrator) nextSONumber(ctx context.Context) (string, error) {
	max, err := o.repo.MaxSONumber(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate so_number error: %w", err)
	}
	return fmt.Sprintf("SO-%04d", max+1), nil
}

func (o *Orchestrator) retryPersist(ctx context.Context, ticketKey string, form *entity.CreationForm) (*entity.Incident, error) {
	soNumber, err := o.nextSONumber(ctx)
	if err != nil {
		return nil, err
	}
	incident := o.buildIncident(soNumber, ticketKey, form)
	if err := o.repo.CreateIncident(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

func (o *Orchestrator) buildIncident(soNumber, ticketKey string, form *entity.CreationForm) *entity.Incident {
	return &entity.Incident{
		SONumber:              soNumber,
		AffectedProducts:      form.AffectedProducts,
		Severity:              form.Severity,
		SuspectedOwningTeam:   form.SuspectedOwningTeam,
		StartTime:             form.StartTime,
		EndTime:               form.EndTime,
		CustomerAffected:      form.CustomerAffected,
		AffectedComponents:    form.AffectedComponents,
		Description:           form.Description,
		Message:               form.Message,
		NotifyStatuspage:      form.NotifyStatuspage,
		CreateSeparateChannel: form.CreateSeparateChannel,
		Status:                entity.StatusCreated,
		ExternalTicketKey:     ticketKey,
	}
}

func (o *Orchestrator) acknowledgeReporter(result *SagaResult, triggerID string, incident *entity.Incident) {
	if triggerID == "" {
		result.record(StepReporterAck, StepSkipped, nil)
		return
	}
	err := o.slackRepo.OpenView(triggerID, blocks.SuccessView(incident, o.jiraServer))
	if err != nil {
		slog.Warn("Reporter acknowledgment failed", slog.Any("err", err))
		result.record(StepReporterAck, StepFailed, err)
		return
	}
	result.record(StepReporterAck, StepOK, nil)
}

// fanOutNotifications attempts three independent targets. A target's
// failure is recorded and must not prevent the others.
func (o *Orchestrator) fanOutNotifications(ctx context.Context, result *SagaResult, incident *entity.Incident) {
	channelName := incident.ChannelName(o.channelPrefix)
	channelID, ensureErr := o.slackRepo.EnsureChannel(ctx, channelName)
	if ensureErr == nil {
		result.IncidentChannelID = channelID
	}

	teamChannelID, teamMapped := "", false
	if team := incident.OwningTeam(); team != "" {
		teamChannelID, teamMapped = o.repo.ChannelForTeam(ctx, team)
	}

	type target struct {
		step      string
		channelID string
		text      string
		skip      bool
		err       error
	}
	targets := []*target{
		{
			step:      StepIncidentChannel,
			channelID: channelID,
			text:      blocks.IncidentChannelMessage(incident, o.jiraServer),
			err:       ensureErr,
		},
		{
			step:      StepGeneralChannel,
			channelID: o.generalChannel,
			text:      blocks.BroadcastMessage(incident, channelID, channelName),
		},
		{
			step:      StepTeamChannel,
			channelID: teamChannelID,
			text:      blocks.BroadcastMessage(incident, channelID, channelName),
			skip:      !teamMapped,
		},
	}

	var wg sync.WaitGroup
	for _, t := range targets {
		if t.skip || t.err != nil {
			continue
		}
		wg.Add(1)
		go func(t *target) {
			defer wg.Done()
			t.err = o.slackRepo.PostMessage(ctx, t.channelID, t.text)
		}(t)
	}
	wg.Wait()

	for _, t := range targets {
		switch {
		case t.skip:
			result.record(t.step, StepSkipped, nil)
		case t.err != nil:
			slog.Warn("Notification target failed", slog.String("step", t.step), slog.Any("err", t.err))
			result.record(t.step, StepFailed, t.err)
		default:
			result.record(t.step, StepOK, nil)
		}
	}
}

func (o *Orchestrator) syncStatuspage(ctx context.Context, result *SagaResult, incident *entity.Incident) {
	if !incident.NotifyStatuspage {
		result.record(StepStatuspageSync, StepSkipped, nil)
		return
	}

	statuspageID, err := o.statuspage.CreateStatuspageIncident(ctx, incident)
	if err != nil {
		slog.Error("Statuspage sync failed", slog.String("so_number", incident.SONumber), slog.Any("err", err))
		if markErr := o.repo.MarkSyncFailed(ctx, incident.SONumber); markErr != nil {
			slog.Error("Failed to mark incident as sync failed", slog.Any("err", markErr))
		} else {
			incident.Status = entity.StatusSyncFailed
		}
		result.record(StepStatuspageSync, StepFailed, err)
		return
	}

	if err := o.repo.SetStatuspageIncidentID(ctx, incident.SONumber, statuspageID); err != nil {
		slog.Error("Failed to store statuspage incident id", slog.Any("err", err))
		result.record(StepStatuspageSync, StepFailed, err)
		return
	}
	incident.StatuspageIncidentID = statuspageID
	result.record(StepStatuspageSync, StepOK, nil)
}

func (o *Orchestrator) createAlert(ctx context.Context, result *SagaResult, incident *entity.Incident) {
	if err := o.alerts.CreateAlert(ctx, incident); err != nil {
		slog.Warn("Alert creation failed", slog.String("so_number", incident.SONumber), slog.Any("err", err))
		result.record(StepAlert, StepFailed, err)
		return
	}
	result.record(StepAlert, StepOK, nil)
}

// Lookup is a point query. A missing incident returns (nil, nil).
func (o *Orchestrator) Lookup(ctx context.Context, soNumber string) (*entity.Incident, error) {
	return o.repo.FindBySONumber(ctx, soNumber)
}

var ErrNoStatuspageReference = fmt.Errorf("incident has no statuspage reference")

// UpdateStatus synchronizes the status page under the row lock before
// the local status is committed, so the two stores cannot diverge.
// The status value itself is validated by the form extractor before
// this is called.
func (o *Orchestrator) UpdateStatus(ctx context.Context, form *entity.StatusUpdateForm) (*entity.Incident, error) {
	return o.repo.UpdateStatusTx(ctx, form.SONumber, func(incident *entity.Incident) error {
		if incident.StatuspageIncidentID == "" {
			return ErrNoStatuspageReference
		}
		if err := o.statuspage.UpdateStatuspageIncident(ctx, incident.StatuspageIncidentID, form.NewStatus, form.AdditionalInfo); err != nil {
			return fmt.Errorf("statuspage update error: %w", err)
		}
		incident.Status = entity.Status(form.NewStatus)
		return nil
	})
}
