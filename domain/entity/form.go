package entity

import "time"

// CreationForm is the validated payload of the incident creation modal.
type CreationForm struct {
	AffectedProducts      []string
	Severity              []string
	SuspectedOwningTeam   []string
	StartTime             time.Time
	EndTime               time.Time
	CustomerAffected      bool
	AffectedComponents    []string
	Description           string
	Message               string
	NotifyStatuspage      bool
	CreateSeparateChannel bool
}

type LookupForm struct {
	SONumber string
}

type StatusUpdateForm struct {
	SONumber       string
	NewStatus      string
	AdditionalInfo string
}
