// Package config loads and validates the explainbot configuration.
//
// Values come, in increasing priority, from built-in defaults, an optional YAML
// file, a .env file and the environment. Environment keys use the BOT_ prefix
// with dots replaced by underscores (BOT_DISCORD_TOKEN, BOT_EXPLAINER_BASE_URL).
// The variable names used by the original Node deployment (DISCORD_TOKEN,
// SLACK_BOT_TOKEN, FASTAPI_URL, PORT, ...) are accepted as well.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/gapless/explainbot/internal/errors"
)

// Config is the root configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"log"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Explainer ExplainerConfig `mapstructure:"explainer"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DiscordConfig configures the gateway bot. GuildID, when set, registers the
// application commands on one guild only, which Discord applies instantly.
type DiscordConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Token    string `mapstructure:"token"     validate:"required_if=Enabled true"`
	AppID    string `mapstructure:"app_id"    validate:"required_if=Enabled true"`
	GuildID  string `mapstructure:"guild_id"`
	SetupURL string `mapstructure:"setup_url" validate:"omitempty,url"`
	DictURL  string `mapstructure:"dict_url"  validate:"omitempty,url"`
}

// SlackConfig configures the HTTP endpoint Slack delivers commands,
// interactions and events to. An empty SigningSecret disables request
// signature checks, which is only meant for local development.
type SlackConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"      validate:"required_if=Enabled true"`
	SigningSecret string `mapstructure:"signing_secret"`
	Port          int    `mapstructure:"port"           validate:"min=1,max=65535"`
}

type ExplainerConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"min=1s,max=2m"`
}

// MessagesConfig holds every user-visible string.
type MessagesConfig struct {
	Error               string `mapstructure:"error"                validate:"required"`
	NoText              string `mapstructure:"no_text"              validate:"required"`
	Loading             string `mapstructure:"loading"              validate:"required"`
	ExplainMore         string `mapstructure:"explain_more"         validate:"required"`
	GreetingTitle       string `mapstructure:"greeting_title"       validate:"required"`
	GreetingDescription string `mapstructure:"greeting_description" validate:"required"`
}

type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig enables a registered task on a six-field cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// legacyEnv maps config keys to the variable names of the original deployment.
var legacyEnv = map[string]string{
	"discord.token":        "DISCORD_TOKEN",
	"discord.app_id":       "DISCORD_APP_ID",
	"slack.bot_token":      "SLACK_BOT_TOKEN",
	"slack.signing_secret": "SLACK_SIGNING_SECRET",
	"slack.port":           "PORT",
	"explainer.base_url":   "FASTAPI_URL",
}

// Load reads the configuration. path may be empty, in which case config.yaml
// is looked up in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	startTime := time.Now()

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewConfig("failed to read .env", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envKey := "BOT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, legacy); err != nil {
			return nil, apperrors.NewConfig("failed to bind "+key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfig("failed to read config file", err)
		}
		slog.Info("Configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfig("failed to parse configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded",
		"log_level", cfg.Logger.Level,
		"discord_enabled", cfg.Discord.Enabled,
		"slack_enabled", cfg.Slack.Enabled,
		"explainer_base_url", cfg.Explainer.BaseURL,
		"duration_ms", time.Since(startTime).Milliseconds())
	return cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfig("invalid configuration", err)
	}
	if !c.Discord.Enabled && !c.Slack.Enabled {
		return apperrors.NewConfig("invalid configuration", fmt.Errorf("at least one of discord or slack must be enabled"))
	}
	return nil
}
