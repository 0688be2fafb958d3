package blocks

import (
	"fmt"

	"github.com/outageops/sobot/domain/entity"
	"github.com/slack-go/slack"
)

func StatusUpdateModal() slack.ModalViewRequest {
	statusOptions := make([]*slack.OptionBlockObject, 0, len(entity.UpdatableStatuses()))
	for _, status := range entity.UpdatableStatuses() {
		statusOptions = append(statusOptions, slack.NewOptionBlockObject(
			string(status),
			slack.NewTextBlockObject("plain_text", string(status), false, false),
			nil,
		))
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: StatusUpdateCallbackID,
		Title:      slack.NewTextBlockObject("plain_text", "Status Update", false, false),
		Submit:     slack.NewTextBlockObject("plain_text", "Update", false, false),
		Close:      slack.NewTextBlockObject("plain_text", "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				&slack.InputBlock{
					Type:    slack.MBTInput,
					BlockID: "so_number",
					Label: &slack.TextBlockObject{
						Type: "plain_text",
						Text: "SO Number",
					},
					Element: &slack.PlainTextInputBlockElement{
						Type:     slack.METPlainTextInput,
						ActionID: "so_number_action",
						Placeholder: slack.NewTextBlockObject(
							"plain_text", "SO-0042", false, false,
						),
					},
					Optional: false,
				},
				&slack.InputBlock{
					Type:    slack.MBTInput,
					BlockID: "status_update_block",
					Label: &slack.TextBlockObject{
						Type: "plain_text",
						Text: "New status",
					},
					Element: &slack.SelectBlockElement{
						Type:        slack.OptTypeStatic,
						ActionID:    "status_action",
						Options:     statusOptions,
						Placeholder: slack.NewTextBlockObject("plain_text", "Select status", false, false),
					},
					Optional: false,
				},
				&slack.InputBlock{
					Type:    slack.MBTInput,
					BlockID: "additional_info_block",
					Label: &slack.TextBlockObject{
						Type: "plain_text",
						Text: "Additional information",
					},
					Element: &slack.PlainTextInputBlockElement{
						Type:      slack.METPlainTextInput,
						ActionID:  "additional_info_action",
						Multiline: true,
					},
					Optional: true,
				},
			},
		},
	}
}

func StatusUpdatedView(soNumber, newStatus string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject("plain_text", "Status Update", false, false),
		Close: slack.NewTextBlockObject("plain_text", "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject("mrkdwn",
						fmt.Sprintf("Status of SO Number: *%s* has been updated to *%s*.", soNumber, newStatus),
						false, false),
					nil, nil,
				),
			},
		},
	}
}
