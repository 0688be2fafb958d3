package blocks

import (
	"github.com/outageops/sobot/domain/entity"
	"github.com/slack-go/slack"
)

const (
	CreateIncidentCallbackID = "incident_form"
	LookupCallbackID         = "so_lookup_form"
	StatusUpdateCallbackID   = "statuspage_update"
)

// CreateIncidentModal builds the incident report form. Block and
// action ids are load-bearing, the submission extractor matches on
// them.
func CreateIncidentModal(products, severities, components []entity.Option, teams []entity.TeamChannel) slack.ModalViewRequest {
	productOptions := optionObjects(products)
	severityOptions := optionObjects(severities)
	componentOptions := optionObjects(components)

	teamOptions := make([]*slack.OptionBlockObject, 0, len(teams))
	for _, team := range teams {
		teamOptions = append(teamOptions, slack.NewOptionBlockObject(
			team.Name,
			slack.NewTextBlockObject("plain_text", team.Name, false, false),
			nil,
		))
	}

	blockSet := []slack.Block{
		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "affected_products",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "🛠️ Affected products",
			},
			Element: &slack.MultiSelectBlockElement{
				Type:        slack.MultiOptTypeStatic,
				ActionID:    "affected_products_action",
				Options:     productOptions,
				Placeholder: slack.NewTextBlockObject("plain_text", "Select products", false, false),
			},
			Optional: false,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "severity",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "⚠️ Severity",
			},
			Element: &slack.SelectBlockElement{
				Type:        slack.OptTypeStatic,
				ActionID:    "severity_action",
				Options:     severityOptions,
				Placeholder: slack.NewTextBlockObject("plain_text", "Select severity", false, false),
			},
			Optional: false,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "suspected_owning_team",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "👥 Suspected owning team",
			},
			Element: &slack.MultiSelectBlockElement{
				Type:        slack.MultiOptTypeStatic,
				ActionID:    "suspected_owning_team_action",
				Options:     teamOptions,
				Placeholder: slack.NewTextBlockObject("plain_text", "Select teams", false, false),
			},
			Optional: false,
		},

		slack.NewDividerBlock(),

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "start_time",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Start date",
			},
			Element: &slack.DatePickerBlockElement{
				Type:     slack.METDatepicker,
				ActionID: "start_date_action",
			},
			Optional: false,
		},
		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "start_time_picker",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Start time",
			},
			Element: &slack.TimePickerBlockElement{
				Type:     slack.METTimepicker,
				ActionID: "start_time_picker_action",
			},
			Optional: false,
		},
		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "end_time",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "End date",
			},
			Element: &slack.DatePickerBlockElement{
				Type:     slack.METDatepicker,
				ActionID: "end_date_action",
			},
			Optional: false,
		},
		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "end_time_picker",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "End time",
			},
			Element: &slack.TimePickerBlockElement{
				Type:     slack.METTimepicker,
				ActionID: "end_time_picker_action",
			},
			Optional: false,
		},

		slack.NewDividerBlock(),

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "p1_customer_affected",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Customer impact",
			},
			Element: &slack.CheckboxGroupsBlockElement{
				Type:     slack.METCheckboxGroups,
				ActionID: "p1_customer_affected_action",
				Options: []*slack.OptionBlockObject{
					slack.NewOptionBlockObject(
						"p1_customer_affected",
						slack.NewTextBlockObject("plain_text", "P1 / customer affected", false, false),
						nil,
					),
				},
			},
			Optional: true,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "suspected_affected_components",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Suspected affected components",
			},
			Element: &slack.MultiSelectBlockElement{
				Type:        slack.MultiOptTypeStatic,
				ActionID:    "suspected_affected_components_action",
				Options:     componentOptions,
				Placeholder: slack.NewTextBlockObject("plain_text", "Select components", false, false),
			},
			Optional: true,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "description",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "What happened?",
			},
			Element: &slack.PlainTextInputBlockElement{
				Type:      slack.METPlainTextInput,
				ActionID:  "description_action",
				Multiline: true,
				Placeholder: slack.NewTextBlockObject(
					"plain_text", "Example: users cannot log in", false, false,
				),
			},
			Optional: false,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "message_for_sp",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Message for the status page",
			},
			Element: &slack.PlainTextInputBlockElement{
				Type:      slack.METPlainTextInput,
				ActionID:  "message_for_sp_action",
				Multiline: true,
			},
			Optional: true,
		},

		&slack.InputBlock{
			Type:    slack.MBTInput,
			BlockID: "flags_for_statuspage_notification",
			Label: &slack.TextBlockObject{
				Type: "plain_text",
				Text: "Notifications",
			},
			Element: &slack.CheckboxGroupsBlockElement{
				Type:     slack.METCheckboxGroups,
				ActionID: "flags_for_statuspage_notification_action",
				Options: []*slack.OptionBlockObject{
					slack.NewOptionBlockObject(
						"statuspage_notification",
						slack.NewTextBlockObject("plain_text", "Publish to the status page", false, false),
						nil,
					),
					slack.NewOptionBlockObject(
						"separate_channel_creation",
						slack.NewTextBlockObject("plain_text", "Create a separate channel", false, false),
						nil,
					),
				},
			},
			Optional: true,
		},
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: CreateIncidentCallbackID,
		Title:      slack.NewTextBlockObject("plain_text", "Report an Incident", false, false),
		Submit:     slack.NewTextBlockObject("plain_text", "Submit", false, false),
		Close:      slack.NewTextBlockObject("plain_text", "Cancel", false, false),
		Blocks:     slack.Blocks{BlockSet: blockSet},
	}
}

func optionObjects(options []entity.Option) []*slack.OptionBlockObject {
	objects := make([]*slack.OptionBlockObject, 0, len(options))
	for _, option := range options {
		objects = append(objects, slack.NewOptionBlockObject(
			option.Name,
			slack.NewTextBlockObject("plain_text", option.Name, false, false),
			nil,
		))
	}
	return objects
}
