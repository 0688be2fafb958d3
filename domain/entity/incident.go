package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	// Set at creation time. Only the statuspage sync step may flip
	// a fresh incident to StatusSyncFailed.
	StatusCreated    Status = "CREATED"
	StatusSyncFailed Status = "SYNC_FAILED"

	StatusInvestigating Status = "investigating"
	StatusIdentified    Status = "identified"
	StatusMonitoring    Status = "monitoring"
	StatusResolved      Status = "resolved"
)

// UpdatableStatuses is the fixed set accepted by an explicit status update.
func UpdatableStatuses() []Status {
	return []Status{
		StatusInvestigating,
		StatusIdentified,
		StatusMonitoring,
		StatusResolved,
	}
}

func IsUpdatableStatus(s string) bool {
	for _, v := range UpdatableStatuses() {
		if string(v) == s {
			return true
		}
	}
	return false
}

// StatusSetDescription renders the allowed set for user-facing errors.
func StatusSetDescription() string {
	return strings.Join(UpdatableStatusNames(), ", ")
}

func UpdatableStatusNames() []string {
	statuses := UpdatableStatuses()
	names := make([]string, 0, len(statuses))
	for _, v := range statuses {
		names = append(names, string(v))
	}
	return names
}

// StringList is stored as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list error: %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported string list source type %T", value)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(raw, l)
}

func (l StringList) Join(sep string) string {
	return strings.Join(l, sep)
}

type Incident struct {
	ID                    uint       `gorm:"primaryKey"`
	SONumber              string     `gorm:"column:so_number;size:32;uniqueIndex;not null"`
	AffectedProducts      StringList `gorm:"type:text"`
	Severity              StringList `gorm:"type:text"`
	SuspectedOwningTeam   StringList `gorm:"type:text"`
	StartTime             time.Time
	EndTime               time.Time
	CustomerAffected      bool
	AffectedComponents    StringList `gorm:"type:text"`
	Description           string     `gorm:"size:250"`
	Message               string     `gorm:"size:250"`
	NotifyStatuspage      bool
	CreateSeparateChannel bool
	Status                Status `gorm:"size:50;index"`
	ExternalTicketKey     string `gorm:"size:64;uniqueIndex"`
	StatuspageIncidentID  string `gorm:"size:64"`
	CreatedAt             time.Time
}

// ChannelName is the dedicated channel for this incident. Slack only
// accepts lowercase channel names.
func (i *Incident) ChannelName(prefix string) string {
	return strings.ToLower(prefix + i.SONumber)
}

func (i *Incident) OwningTeam() string {
	if len(i.SuspectedOwningTeam) == 0 {
		return ""
	}
	return i.SuspectedOwningTeam[0]
}
