package handler

import (
	"fmt"
	"time"

	"github.com/outageops/sobot/domain/entity"
	"github.com/slack-go/slack"
)

const datetimeLayout = "2006-01-02T15:04:05"

// Checkbox option values inside the creation modal.
const (
	customerAffectedValue      = "p1_customer_affected"
	statuspageNotificationFlag = "statuspage_notification"
	separateChannelFlag        = "separate_channel_creation"
)

type formValues map[string]map[string]slack.BlockAction

// ExtractCreationForm validates the creation modal submission and
// fails on the first missing or malformed required field.
func ExtractCreationForm(values formValues) (*entity.CreationForm, error) {
	start, err := extractDatetime(values, "start_time", "start_date_action", "start_time_picker", "start_time_picker_action")
	if err != nil {
		return nil, err
	}
	end, err := extractDatetime(values, "end_time", "end_date_action", "end_time_picker", "end_time_picker_action")
	if err != nil {
		return nil, err
	}

	products := extractMultiSelect(values, "affected_products", "affected_products_action")
	if len(products) == 0 {
		return nil, &entity.ValidationError{Field: "affected_products", Reason: "at least one affected product is required"}
	}

	severity := extractSingleSelect(values, "severity", "severity_action")
	if severity == "" {
		return nil, &entity.ValidationError{Field: "severity", Reason: "severity is required"}
	}

	teams := extractMultiSelect(values, "suspected_owning_team", "suspected_owning_team_action")
	if len(teams) == 0 {
		return nil, &entity.ValidationError{Field: "suspected_owning_team", Reason: "at least one suspected owning team is required"}
	}

	description := values["description"]["description_action"].Value
	if description == "" {
		return nil, &entity.ValidationError{Field: "description", Reason: "description is required"}
	}

	return &entity.CreationForm{
		AffectedProducts:      products,
		Severity:              []string{severity},
		SuspectedOwningTeam:   teams,
		StartTime:             start,
		EndTime:               end,
		CustomerAffected:      extractCheckbox(values, "p1_customer_affected", "p1_customer_affected_action", customerAffectedValue),
		AffectedComponents:    extractMultiSelect(values, "suspected_affected_components", "suspected_affected_components_action"),
		Description:           description,
		Message:               values["message_for_sp"]["message_for_sp_action"].Value,
		NotifyStatuspage:      extractCheckbox(values, "flags_for_statuspage_notification", "flags_for_statuspage_notification_action", statuspageNotificationFlag),
		CreateSeparateChannel: extractCheckbox(values, "flags_for_statuspage_notification", "flags_for_statuspage_notification_action", separateChannelFlag),
	}, nil
}

func ExtractLookupForm(values formValues) (*entity.LookupForm, error) {
	soNumber := values["so_number"]["so_number_action"].Value
	if soNumber == "" {
		return nil, &entity.ValidationError{Field: "so_number", Reason: "SO Number is required"}
	}
	return &entity.LookupForm{SONumber: soNumber}, nil
}

func ExtractStatusUpdateForm(values formValues) (*entity.StatusUpdateForm, error) {
	soNumber := values["so_number"]["so_number_action"].Value
	if soNumber == "" {
		return nil, &entity.ValidationError{Field: "so_number", Reason: "SO Number is required"}
	}
	newStatus := extractSingleSelect(values, "status_update_block", "status_action")
	if newStatus == "" {
		return nil, &entity.ValidationError{Field: "status_update_block", Reason: "status is required"}
	}
	// The allowed set is checked here so an invalid status never
	// reaches the status page.
	if !entity.IsUpdatableStatus(newStatus) {
		return nil, &entity.ValidationError{
			Field:  "status_update_block",
			Reason: fmt.Sprintf("invalid status, must be one of: %s", entity.StatusSetDescription()),
		}
	}
	return &entity.StatusUpdateForm{
		SONumber:       soNumber,
		NewStatus:      newStatus,
		AdditionalInfo: values["additional_info_block"]["additional_info_action"].Value,
	}, nil
}

func extractDatetime(values formValues, dateBlock, dateAction, timeBlock, timeAction string) (time.Time, error) {
	date := values[dateBlock][dateAction].SelectedDate
	clock := values[timeBlock][timeAction].SelectedTime
	if date == "" || clock == "" {
		return time.Time{}, &entity.ValidationError{Field: dateBlock, Reason: "date and time are required"}
	}
	t, err := time.Parse(datetimeLayout, fmt.Sprintf("%sT%s:00", date, clock))
	if err != nil {
		return time.Time{}, &entity.ValidationError{Field: dateBlock, Reason: "invalid datetime format"}
	}
	return t, nil
}

// extractMultiSelect preserves the submission order. An empty
// selection is an empty list, not an error.
func extractMultiSelect(values formValues, blockID, actionID string) []string {
	selected := []string{}
	for _, option := range values[blockID][actionID].SelectedOptions {
		selected = append(selected, option.Value)
	}
	return selected
}

func extractSingleSelect(values formValues, blockID, actionID string) string {
	return values[blockID][actionID].SelectedOption.Value
}

func extractCheckbox(values formValues, blockID, actionID, optionValue string) bool {
	for _, option := range values[blockID][actionID].SelectedOptions {
		if option.Value == optionValue {
			return true
		}
	}
	return false
}
