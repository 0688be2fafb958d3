package repository

import (
	"context"

	"github.com/outageops/sobot/domain/entity"
)

type IncidentRepository interface {
	CreateIncident(context.Context, *entity.Incident) error
	FindBySONumber(context.Context, string) (*entity.Incident, error)
	MaxSONumber(context.Context) (int, error)
	SetStatuspageIncidentID(ctx context.Context, soNumber, statuspageID string) error
	MarkSyncFailed(ctx context.Context, soNumber string) error
	UpdateStatusTx(ctx context.Context, soNumber string, fn func(*entity.Incident) error) (*entity.Incident, error)
}

type OptionRepository interface {
	Products(context.Context) []entity.Option
	Severities(context.Context) []entity.Option
	Components(context.Context) []entity.Option
}

type TeamDirectory interface {
	Teams(context.Context) []entity.TeamChannel
	ChannelForTeam(ctx context.Context, name string) (string, bool)
}

type Repository interface {
	IncidentRepository
	OptionRepository
	TeamDirectory
}

type RepositoryFacade struct {
	IncidentRepository
	OptionRepository
	TeamDirectory
}

func NewRepository(incidentRepository IncidentRepository, optionRepository OptionRepository, teamDirectory TeamDirectory) Repository {
	return RepositoryFacade{
		IncidentRepository: incidentRepository,
		OptionRepository:   optionRepository,
		TeamDirectory:      teamDirectory,
	}
}
