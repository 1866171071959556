package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
)

// Payload is a configured message body. Only the fields below are
// recognized; a non-empty payload is always used wholesale, never merged
// field by field with another one.
type Payload struct {
	Text   string       `json:"text"`
	Blocks slack.Blocks `json:"blocks"`
}

// ParsePayload decodes a configured payload blob. An empty blob yields an
// empty payload; malformed JSON is an error the caller treats as fatal.
func ParsePayload(raw string) (Payload, error) {
	var p Payload
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("parse message payload: %w", err)
	}
	return p, nil
}

// Empty reports whether the payload carries no content.
func (p Payload) Empty() bool {
	return p.Text == "" && len(p.Blocks.BlockSet) == 0
}

// MsgOptions converts the payload into slack message options.
func (p Payload) MsgOptions() []slack.MsgOption {
	var opts []slack.MsgOption
	if p.Text != "" {
		opts = append(opts, slack.MsgOptionText(p.Text, false))
	}
	if len(p.Blocks.BlockSet) > 0 {
		opts = append(opts, slack.MsgOptionBlocks(p.Blocks.BlockSet...))
	}
	return opts
}

// DefaultMainPayload is the generated fallback for the primary message when
// no base payload is configured.
func DefaultMainPayload(repository, workflow, runURL string) Payload {
	text := fmt.Sprintf("Approval requested for workflow %q in %s", workflow, repository)
	if runURL != "" {
		text += "\n" + runURL
	}
	return Payload{Text: text}
}
