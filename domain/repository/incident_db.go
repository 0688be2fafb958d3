package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/outageops/sobot/domain/entity"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrDuplicateSONumber = fmt.Errorf("so_number already taken")
	ErrIncidentNotFound  = fmt.Errorf("incident not found")
)

// IncidentDB is the relational store. The unique index on so_number is
// the final arbiter for identifier allocation.
type IncidentDB struct {
	db *gorm.DB
}

func NewIncidentDB(dsn string) (*IncidentDB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database error: %w", err)
	}
	if err := db.AutoMigrate(&entity.Incident{}, &entity.UserToken{}); err != nil {
		return nil, fmt.Errorf("migrate database error: %w", err)
	}
	return &IncidentDB{db: db}, nil
}

// NewIncidentDBWithConn wraps an already opened connection. Used by
// tests to run against sqlite.
func NewIncidentDBWithConn(db *gorm.DB) (*IncidentDB, error) {
	if err := db.AutoMigrate(&entity.Incident{}, &entity.UserToken{}); err != nil {
		return nil, fmt.Errorf("migrate database error: %w", err)
	}
	return &IncidentDB{db: db}, nil
}

func (r *IncidentDB) Conn() *gorm.DB {
	return r.db
}

func (r *IncidentDB) CreateIncident(ctx context.Context, incident *entity.Incident) error {
	if err := r.db.WithContext(ctx).Create(incident).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateSONumber
		}
		return fmt.Errorf("create incident error: %w", err)
	}
	return nil
}

func (r *IncidentDB) FindBySONumber(ctx context.Context, soNumber string) (*entity.Incident, error) {
	var incident entity.Incident
	err := r.db.WithContext(ctx).Where("so_number = ?", soNumber).First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find incident error: %w", err)
	}
	return &incident, nil
}

// MaxSONumber returns the numeric part of the newest identifier, zero
// when the store is empty.
func (r *IncidentDB) MaxSONumber(ctx context.Context) (int, error) {
	var incident entity.Incident
	err := r.db.WithContext(ctx).Order("id desc").First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("query latest incident error: %w", err)
	}
	parts := strings.SplitN(incident.SONumber, "-", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed so_number %q", incident.SONumber)
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed so_number %q: %w", incident.SONumber, err)
	}
	return n, nil
}

func (r *IncidentDB) SetStatuspageIncidentID(ctx context.Context, soNumber, statuspageID string) error {
	result := r.db.WithContext(ctx).Model(&entity.Incident{}).
		Where("so_number = ?", soNumber).
		Update("statuspage_incident_id", statuspageID)
	if result.Error != nil {
		return fmt.Errorf("set statuspage incident id error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

func (r *IncidentDB) MarkSyncFailed(ctx context.Context, soNumber string) error {
	result := r.db.WithContext(ctx).Model(&entity.Incident{}).
		Where("so_number = ?", soNumber).
		Update("status", entity.StatusSyncFailed)
	if result.Error != nil {
		return fmt.Errorf("mark sync failed error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

// UpdateStatusTx loads the incident under a row lock, runs fn, and
// commits the status only if fn returns nil. fn performs the external
// synchronization, so the local row never diverges from the remote
// status page.
func (r *IncidentDB) UpdateStatusTx(ctx context.Context, soNumber string, fn func(*entity.Incident) error) (*entity.Incident, error) {
	var incident entity.Incident
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("so_number = ?", soNumber)
		// sqlite has no SELECT FOR UPDATE, its single-writer lock
		// covers the test path.
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&incident).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIncidentNotFound
			}
			return fmt.Errorf("lock incident error: %w", err)
		}
		if err := fn(&incident); err != nil {
			return err
		}
		if err := tx.Model(&incident).Update("status", incident.Status).Error; err != nil {
			return fmt.Errorf("commit status error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &incident, nil
}
