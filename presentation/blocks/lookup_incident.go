package blocks

import (
	"fmt"

	"github.com/slack-go/slack"
)

func LookupModal() slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: LookupCallbackID,
		Title:      slack.NewTextBlockObject("plain_text", "SO Lookup", false, false),
		Submit:     slack.NewTextBlockObject("plain_text", "Look up", false, false),
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
			},
		},
	}
}

// NotFoundView replaces the lookup modal when the identifier does not
// exist. Not an error, only the requester sees it.
func NotFoundView(soNumber string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject("plain_text", "SO Lookup", false, false),
		Close: slack.NewTextBlockObject("plain_text", "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject("mrkdwn",
						fmt.Sprintf("No incident found for SO Number: *%s*.", soNumber),
						false, false),
					nil, nil,
				),
			},
		},
	}
}
