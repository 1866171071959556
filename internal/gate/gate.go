// Package gate drives one approval run: it posts the gate messages, serves
// interactive Slack actions and turns the first terminal transition into a
// process outcome.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/pipegate/slack-approve/internal/approval"
	"github.com/pipegate/slack-approve/internal/config"
	"github.com/pipegate/slack-approve/internal/render"
)

// API is the slice of the Slack client the gate needs for outbound calls.
// *slack.Client satisfies it.
type API interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
}

// Outcome is the terminal result of a run.
type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomeRejected  Outcome = "rejected"
	OutcomeCancelled Outcome = "cancelled"
)

// ExitCode maps the outcome onto the process exit semantics the invoking
// workflow observes.
func (o Outcome) ExitCode() int {
	if o == OutcomeApproved {
		return 0
	}
	return 1
}

// Gate owns the run-scoped state: the approval request, the parsed payloads
// and the two posted message timestamps.
type Gate struct {
	cfg *config.Config
	api API
	req *approval.Request

	basePayload    render.Payload
	successPayload render.Payload
	failPayload    render.Payload

	mainTS  string
	replyTS string
}

// New parses the configured payloads and builds a gate. Malformed payload
// JSON fails here, before anything is posted.
func New(cfg *config.Config, api API, req *approval.Request) (*Gate, error) {
	base, err := render.ParsePayload(cfg.Gate.BaseMessagePayload)
	if err != nil {
		return nil, fmt.Errorf("base message payload: %w", err)
	}
	success, err := render.ParsePayload(cfg.Gate.SuccessMessagePayload)
	if err != nil {
		return nil, fmt.Errorf("success message payload: %w", err)
	}
	fail, err := render.ParsePayload(cfg.Gate.FailMessagePayload)
	if err != nil {
		return nil, fmt.Errorf("fail message payload: %w", err)
	}
	if base.Empty() {
		base = render.DefaultMainPayload(cfg.Run.Repository, cfg.Run.Workflow, cfg.Run.RunURL())
	}
	return &Gate{
		cfg:            cfg,
		api:            api,
		req:            req,
		basePayload:    base,
		successPayload: success,
		failPayload:    fail,
	}, nil
}

// Post publishes the primary message (or refreshes the one named by the
// base-message-ts input) and the thread reply carrying the approval
// controls, then emits both timestamps as run outputs.
func (g *Gate) Post(ctx context.Context) error {
	channel := g.cfg.Slack.ChannelID

	if prior := g.cfg.Gate.BaseMessageTS; prior != "" {
		_, ts, _, err := g.api.UpdateMessageContext(ctx, channel, prior, g.basePayload.MsgOptions()...)
		if err != nil {
			return fmt.Errorf("update main message: %w", err)
		}
		g.mainTS = ts
	} else {
		_, ts, err := g.api.PostMessageContext(ctx, channel, g.basePayload.MsgOptions()...)
		if err != nil {
			return fmt.Errorf("post main message: %w", err)
		}
		g.mainTS = ts
	}

	opts := []slack.MsgOption{
		slack.MsgOptionTS(g.mainTS),
		slack.MsgOptionBlocks(render.ApprovalBlocks(g.req)...),
	}
	_, ts, err := g.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("post reply message: %w", err)
	}
	g.replyTS = ts

	if err := writeOutputs(g.cfg.Run.OutputPath, g.mainTS, g.replyTS); err != nil {
		slog.Warn("failed to write run outputs", "error", err)
	}

	slog.Info("approval gate posted",
		"channel", channel,
		"main_ts", g.mainTS,
		"reply_ts", g.replyTS,
		"required", g.req.Required(),
		"approvers", len(g.req.Outstanding()))
	return nil
}

// MainTS returns the primary message timestamp, set after Post.
func (g *Gate) MainTS() string { return g.mainTS }

// ReplyTS returns the reply message timestamp, set after Post.
func (g *Gate) ReplyTS() string { return g.replyTS }

// Serve consumes Socket Mode events one at a time until a terminal
// transition or context cancellation. Each action fully mutates state and
// performs its message edits before the next one is looked at, so the
// approval request needs no further serialization here. The first terminal
// event wins; Serve returns and nothing else can edit afterwards.
func (g *Gate) Serve(ctx context.Context, events <-chan socketmode.Event, ack func(socketmode.Request)) Outcome {
	for {
		select {
		case <-ctx.Done():
			// Out-of-band cancellation preempts action processing and
			// finalizes like a reject without an actor.
			g.finish(context.WithoutCancel(ctx), OutcomeCancelled, "")
			return OutcomeCancelled
		case evt, ok := <-events:
			if !ok {
				g.finish(context.WithoutCancel(ctx), OutcomeCancelled, "")
				return OutcomeCancelled
			}
			if outcome, done := g.handleEvent(ctx, evt, ack); done {
				return outcome
			}
		}
	}
}

func (g *Gate) handleEvent(ctx context.Context, evt socketmode.Event, ack func(socketmode.Request)) (Outcome, bool) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		slog.Info("connecting to slack socket mode")
		return "", false
	case socketmode.EventTypeConnected:
		slog.Info("connected to slack socket mode")
		return "", false
	case socketmode.EventTypeConnectionError:
		slog.Warn("slack socket mode connection error", "data", fmt.Sprint(evt.Data))
		return "", false
	case socketmode.EventTypeInteractive:
		// Ack first so the Slack UI never shows a pending spinner, even
		// for actions this run ends up dropping.
		if evt.Request != nil && ack != nil {
			ack(*evt.Request)
		}
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return "", false
		}
		return g.handleInteraction(ctx, callback)
	default:
		return "", false
	}
}

func (g *Gate) handleInteraction(ctx context.Context, callback slack.InteractionCallback) (Outcome, bool) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return "", false
	}

	for _, action := range callback.ActionCallback.BlockActions {
		logger := slog.With(
			"request_id", uuid.NewString(),
			"action_id", action.ActionID,
			"user", callback.User.ID,
		)

		if action.Value != g.req.Token() {
			// Belongs to a different run attempt. Dropped without any
			// state change or message edit.
			logger.Debug("ignoring action with foreign correlation token")
			continue
		}

		switch action.ActionID {
		case render.ActionApprove:
			switch g.req.Approve(callback.User.ID) {
			case approval.DecisionNotEligible:
				logger.Info("dropping approve from ineligible user")
			case approval.DecisionPending:
				logger.Info("approval recorded",
					"confirmed", len(g.req.Confirmed()),
					"required", g.req.Required())
				g.updateReply(ctx, render.ApprovalBlocks(g.req))
			case approval.DecisionSatisfied:
				logger.Info("approval threshold reached")
				g.finish(ctx, OutcomeApproved, "")
				return OutcomeApproved, true
			}
		case render.ActionReject:
			if !g.req.Eligible(callback.User.ID) {
				logger.Info("dropping reject from ineligible user")
				continue
			}
			g.req.Reject(callback.User.ID)
			logger.Info("rejection recorded")
			g.finish(ctx, OutcomeRejected, callback.User.ID)
			return OutcomeRejected, true
		default:
			logger.Debug("ignoring unknown action")
		}
	}
	return "", false
}

// finish performs the two terminal message edits. Edit failures are logged
// and do not change the outcome: approval state is the source of truth and
// message content is only a view of it.
func (g *Gate) finish(ctx context.Context, outcome Outcome, rejectedBy string) {
	channel := g.cfg.Slack.ChannelID

	if payload := g.terminalMainPayload(outcome); !payload.Empty() {
		if _, _, _, err := g.api.UpdateMessageContext(ctx, channel, g.mainTS, payload.MsgOptions()...); err != nil {
			slog.Error("failed to edit main message", "error", err, "outcome", string(outcome))
		}
	}

	var blocks []slack.Block
	if outcome == OutcomeApproved {
		blocks = render.ApprovedBlocks(g.req)
	} else {
		blocks = render.RejectedBlocks(rejectedBy)
	}
	g.updateReply(ctx, blocks)

	slog.Info("approval gate finished", "outcome", string(outcome))
}

// terminalMainPayload picks the payload the primary message is edited to.
// An empty result means the message keeps the originally posted content.
func (g *Gate) terminalMainPayload(outcome Outcome) render.Payload {
	if outcome == OutcomeApproved {
		return g.successPayload
	}
	return g.failPayload
}

func (g *Gate) updateReply(ctx context.Context, blocks []slack.Block) {
	_, _, _, err := g.api.UpdateMessageContext(ctx, g.cfg.Slack.ChannelID, g.replyTS,
		slack.MsgOptionBlocks(blocks...))
	if err != nil {
		slog.Error("failed to edit reply message", "error", err)
	}
}
