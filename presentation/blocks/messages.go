package blocks

import (
	"fmt"
	"time"

	"github.com/outageops/sobot/domain/entity"
	"github.com/slack-go/slack"
)

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func jiraLink(jiraServer, ticketKey string) string {
	return fmt.Sprintf("%s/browse/%s", jiraServer, ticketKey)
}

// IncidentChannelMessage opens the dedicated incident channel.
func IncidentChannelMessage(incident *entity.Incident, jiraServer string) string {
	return fmt.Sprintf(
		"🚨 *New Incident Created* 🚨\n\n"+
			"*Incident Summary:*\n"+
			"----------------------------------\n"+
			"*SO Number:* %s\n"+
			"*Severity Level:* %s\n"+
			"*Affected Products:* %s\n"+
			"*Customer Impact:* %s\n"+
			"*Suspected Owning Team:* %s\n"+
			"\n"+
			"*Time Details:*\n"+
			"----------------------------------\n"+
			"Start Time: %s\n"+
			"\n"+
			"*Additional Information:*\n"+
			"----------------------------------\n"+
			"🔗 *Jira Link:* %s",
		incident.SONumber,
		incident.Severity.Join(", "),
		incident.AffectedProducts.Join(", "),
		yesNo(incident.CustomerAffected),
		incident.SuspectedOwningTeam.Join(", "),
		incident.StartTime.Format(time.RFC3339),
		jiraLink(jiraServer, incident.ExternalTicketKey),
	)
}

// BroadcastMessage goes to the general outages channel and, when
// mapped, the owning team's channel. It points readers at the
// dedicated channel, by id when it exists and by name otherwise.
func BroadcastMessage(incident *entity.Incident, channelID, channelName string) string {
	channelRef := "#" + channelName
	if channelID != "" {
		channelRef = fmt.Sprintf("<#%s>", channelID)
	}
	return fmt.Sprintf(
		"🚨 *New Incident Created* 🚨\n\n"+
			"Incident Summary\n"+
			"------------------------\n"+
			"SO Number: %s\n"+
			"Severity: %s\n"+
			"Affected Products: %s\n"+
			"Customer Impact: %s\n"+
			"Suspected Owning Team: %s\n\n"+
			"*Time Details:*\n"+
			"------------------------\n"+
			"Start Time: %s\n"+
			"*Additional Information:*\n"+
			"----------------------------------\n"+
			"Join the discussion in the newly created incident channel: %s",
		incident.SONumber,
		incident.Severity.Join(", "),
		incident.AffectedProducts.Join(", "),
		yesNo(incident.CustomerAffected),
		incident.SuspectedOwningTeam.Join(", "),
		incident.StartTime.Format(time.RFC3339),
		channelRef,
	)
}

// IncidentDetailsMessage is the private summary sent on lookup.
func IncidentDetailsMessage(incident *entity.Incident, jiraServer string) string {
	return fmt.Sprintf(
		"🚨 *Incident Details* 🚨:\n\n"+
			"*SO Number:* %s\n"+
			"*Severity:* %s\n"+
			"*Affected Products:* %s\n"+
			"*Suspected Owning Team:* %s\n"+
			"*Start Time:* %s\n"+
			"*End Time:* %s\n"+
			"*Customer Affected:* %s\n"+
			"*Status:* %s\n"+
			"*Description:* %s\n"+
			"*Jira Link:* %s\n",
		incident.SONumber,
		incident.Severity.Join(", "),
		incident.AffectedProducts.Join(", "),
		incident.SuspectedOwningTeam.Join(", "),
		incident.StartTime.Format(time.RFC3339),
		incident.EndTime.Format(time.RFC3339),
		yesNo(incident.CustomerAffected),
		incident.Status,
		incident.Description,
		jiraLink(jiraServer, incident.ExternalTicketKey),
	)
}

// SuccessView acknowledges the reporter right after the required
// pipeline steps succeed.
func SuccessView(incident *entity.Incident, jiraServer string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject("plain_text", "Incident Created", false, false),
		Close: slack.NewTextBlockObject("plain_text", "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject("mrkdwn",
						fmt.Sprintf(
							"✅ Incident *%s* has been created.\n\n*Severity:* %s\n*Jira:* %s",
							incident.SONumber,
							incident.Severity.Join(", "),
							jiraLink(jiraServer, incident.ExternalTicketKey),
						),
						false, false),
					nil, nil,
				),
			},
		},
	}
}

// FailureView tells the reporter a required step failed and the
// submission must be retried.
func FailureView(reason string) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject("plain_text", "Incident Creation Failed", false, false),
		Close: slack.NewTextBlockObject("plain_text", "Close", false, false),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewSectionBlock(
					slack.NewTextBlockObject("mrkdwn",
						fmt.Sprintf("❌ The incident could not be created: %s\n\nPlease resubmit the form.", reason),
						false, false),
					nil, nil,
				),
			},
		},
	}
}
