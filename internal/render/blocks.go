// Package render builds the Slack message fragments for an approval run.
// Everything here is a pure function of request state.
package render

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/pipegate/slack-approve/internal/approval"
)

// Action IDs carried by the interactive buttons. The dispatcher routes
// incoming block actions by these.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// StatusLine renders the required count plus the remaining and confirmed
// approver mentions. Group mentions come first among the remaining approvers,
// matching the order the run was configured with.
func StatusLine(req *approval.Request) string {
	remaining := make([]string, 0, len(req.GroupMentions())+len(req.Outstanding()))
	remaining = append(remaining, req.GroupMentions()...)
	for _, id := range req.Outstanding() {
		remaining = append(remaining, userMention(id))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Required approvals: %d", req.Required())
	if len(remaining) > 0 {
		fmt.Fprintf(&b, "\nRemaining Approvers: %s", strings.Join(remaining, ", "))
	}
	if confirmed := req.Confirmed(); len(confirmed) > 0 {
		mentions := make([]string, len(confirmed))
		for i, id := range confirmed {
			mentions[i] = userMention(id)
		}
		fmt.Fprintf(&b, "\nApprovers: %s", strings.Join(mentions, ", "))
	}
	return b.String()
}

// ApprovalBlocks renders the status line plus the approve/reject button pair.
// Both buttons carry the run's correlation token as their value so that
// controls left over from another run attempt are ignored by the dispatcher.
func ApprovalBlocks(req *approval.Request) []slack.Block {
	return []slack.Block{
		statusSection(req),
		slack.NewActionBlock(
			"approval_actions",
			slack.NewButtonBlockElement(
				ActionApprove,
				req.Token(),
				slack.NewTextBlockObject(slack.PlainTextType, "Approve", false, false),
			).WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(
				ActionReject,
				req.Token(),
				slack.NewTextBlockObject(slack.PlainTextType, "Reject", false, false),
			).WithStyle(slack.StyleDanger),
		),
	}
}

// ApprovedBlocks renders the terminal form of the reply message once the
// required approval count has been reached.
func ApprovedBlocks(req *approval.Request) []slack.Block {
	return []slack.Block{
		statusSection(req),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "Approved ✅", false, false),
			nil, nil,
		),
	}
}

// RejectedBlocks renders the terminal form of the reply message after a
// reject. An empty userID means the run was cancelled rather than rejected
// by a person.
func RejectedBlocks(userID string) []slack.Block {
	text := "Cancelled ❌"
	if userID != "" {
		text = fmt.Sprintf("Rejected by %s ❌", userMention(userID))
	}
	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

func statusSection(req *approval.Request) slack.Block {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, StatusLine(req), false, false),
		nil, nil,
	)
}

func userMention(id string) string {
	return "<@" + id + ">"
}
