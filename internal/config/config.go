// Package config reads the gate configuration from the environment, the way
// GitHub Actions delivers step inputs.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config root configuration
type Config struct {
	Slack SlackConfig `mapstructure:"slack"`
	Gate  GateConfig  `mapstructure:"gate"`
	Run   RunConfig   `mapstructure:"run"`
	Log   LogConfig   `mapstructure:"log"`
}

// SlackConfig Slack credentials and target channel
type SlackConfig struct {
	BotToken  string `mapstructure:"bot_token"`
	AppToken  string `mapstructure:"app_token"`
	ChannelID string `mapstructure:"channel_id"`
}

// GateConfig approval gate inputs
type GateConfig struct {
	Approvers             string `mapstructure:"approvers"`
	MinimumApprovalCount  int    `mapstructure:"minimum_approval_count"`
	BaseMessageTS         string `mapstructure:"base_message_ts"`
	BaseMessagePayload    string `mapstructure:"base_message_payload"`
	SuccessMessagePayload string `mapstructure:"success_message_payload"`
	FailMessagePayload    string `mapstructure:"fail_message_payload"`
}

// RunConfig identity of the invoking workflow run
type RunConfig struct {
	Repository string `mapstructure:"repository"`
	Workflow   string `mapstructure:"workflow"`
	RunID      string `mapstructure:"run_id"`
	RunNumber  string `mapstructure:"run_number"`
	RunAttempt string `mapstructure:"run_attempt"`
	ServerURL  string `mapstructure:"server_url"`
	OutputPath string `mapstructure:"output_path"`
}

// LogConfig application logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// envBindings maps config keys to the environment variables GitHub Actions
// sets for this step. INPUT_* names follow the action input names.
var envBindings = map[string]string{
	"slack.bot_token":              "SLACK_BOT_TOKEN",
	"slack.app_token":              "SLACK_APP_TOKEN",
	"slack.channel_id":             "SLACK_CHANNEL_ID",
	"gate.approvers":               "INPUT_APPROVERS",
	"gate.minimum_approval_count":  "INPUT_MINIMUM-APPROVAL-COUNT",
	"gate.base_message_ts":         "INPUT_BASE-MESSAGE-TS",
	"gate.base_message_payload":    "INPUT_BASE-MESSAGE-PAYLOAD",
	"gate.success_message_payload": "INPUT_SUCCESS-MESSAGE-PAYLOAD",
	"gate.fail_message_payload":    "INPUT_FAIL-MESSAGE-PAYLOAD",
	"run.repository":               "GITHUB_REPOSITORY",
	"run.workflow":                 "GITHUB_WORKFLOW",
	"run.run_id":                   "GITHUB_RUN_ID",
	"run.run_number":               "GITHUB_RUN_NUMBER",
	"run.run_attempt":              "GITHUB_RUN_ATTEMPT",
	"run.server_url":               "GITHUB_SERVER_URL",
	"run.output_path":              "GITHUB_OUTPUT",
	"log.level":                    "INPUT_LOG-LEVEL",
	"log.file":                     "INPUT_LOG-FILE",
}

// DefaultConfig returns config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Gate: GateConfig{
			MinimumApprovalCount: 1,
		},
		Run: RunConfig{
			ServerURL: "https://github.com",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the environment on top of defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetDefault("gate.minimum_approval_count", cfg.Gate.MinimumApprovalCount)
	v.SetDefault("run.server_url", cfg.Run.ServerURL)
	v.SetDefault("log.level", cfg.Log.Level)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return cfg, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Slack.BotToken) == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	appToken := strings.TrimSpace(c.Slack.AppToken)
	if appToken == "" {
		return fmt.Errorf("SLACK_APP_TOKEN is required")
	}
	if !strings.HasPrefix(appToken, "xapp-") {
		return fmt.Errorf("SLACK_APP_TOKEN must start with xapp-")
	}
	if strings.TrimSpace(c.Slack.ChannelID) == "" {
		return fmt.Errorf("SLACK_CHANNEL_ID is required")
	}
	if len(c.Gate.ApproverRefs()) == 0 {
		return fmt.Errorf("approvers input is required")
	}
	if c.Gate.MinimumApprovalCount < 1 {
		return fmt.Errorf("minimum approval count must be at least 1, got %d", c.Gate.MinimumApprovalCount)
	}

	level := strings.ToLower(strings.TrimSpace(c.Log.Level))
	if level == "" {
		c.Log.Level = "info"
	} else {
		validLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if !validLevels[level] {
			return fmt.Errorf("log level must be one of debug, info, warn, error; got %q", c.Log.Level)
		}
		c.Log.Level = level
	}

	return nil
}

// ApproverRefs splits the raw comma-separated approvers input.
func (g *GateConfig) ApproverRefs() []string {
	refs := make([]string, 0)
	for _, ref := range strings.Split(g.Approvers, ",") {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// CorrelationToken derives the value interactive actions must carry to be
// honored by this run. It is deterministic per run attempt, so controls
// posted by an earlier attempt no longer match.
func (r *RunConfig) CorrelationToken() string {
	return strings.Join([]string{
		r.Repository,
		r.Workflow,
		r.RunID,
		r.RunNumber,
		r.RunAttempt,
	}, "-")
}

// RunURL returns the browser link to the workflow run, empty when run
// identity is not available.
func (r *RunConfig) RunURL() string {
	if r.Repository == "" || r.RunID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s", strings.TrimSuffix(r.ServerURL, "/"), r.Repository, r.RunID)
}
