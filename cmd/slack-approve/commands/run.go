package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"github.com/spf13/cobra"

	"github.com/pipegate/slack-approve/internal/approval"
	"github.com/pipegate/slack-approve/internal/approver"
	"github.com/pipegate/slack-approve/internal/config"
	"github.com/pipegate/slack-approve/internal/gate"
)

func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post the approval gate and wait for a decision",
		RunE:  runGate,
	}

	return cmd
}

func runGate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := configureLogger(cfg, logLevelOverride); err != nil {
		return err
	}

	api := slack.New(cfg.Slack.BotToken, slack.OptionAppLevelToken(cfg.Slack.AppToken))
	authResp, err := api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth failed: %w", err)
	}
	slog.Info("slack authenticated", "team", authResp.Team, "bot_user_id", authResp.UserID)

	res, err := approver.Resolve(ctx, cfg.Gate.ApproverRefs(), cfg.Gate.MinimumApprovalCount, api)
	if err != nil {
		return fmt.Errorf("resolve approvers: %w", err)
	}
	req := approval.NewRequest(cfg.Run.CorrelationToken(), cfg.Gate.MinimumApprovalCount, res)

	g, err := gate.New(cfg, api, req)
	if err != nil {
		return err
	}

	socketClient := socketmode.New(api)
	go func() {
		if err := socketClient.RunContext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("slack socket mode exited", "error", err)
			cancel()
		}
	}()

	if err := g.Post(ctx); err != nil {
		return err
	}

	outcome := g.Serve(ctx, socketClient.Events, func(req socketmode.Request) {
		socketClient.Ack(req)
	})
	if outcome != gate.OutcomeApproved {
		return fmt.Errorf("approval gate %s", outcome)
	}
	return nil
}
