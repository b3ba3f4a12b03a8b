package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLogLevel         = "info"
	DefaultSlackPort        = 3000
	DefaultExplainerTimeout = 10 * time.Second

	// ReachabilityTask probes the explanation service on a schedule.
	ReachabilityTask         = "explainer_reachability"
	DefaultReachabilityCheck = "0 */5 * * * *"
)

// DefaultMessages are the strings of the original bots.
var DefaultMessages = MessagesConfig{
	Error:               "❌ Sorry. Error occurred. Please try again.",
	NoText:              "❗Please provide a text like: `/explain Hello World`",
	Loading:             "LOADING…",
	ExplainMore:         "Explain more!",
	GreetingTitle:       "👋 Hello! I'm your AI-Powered Explanation Bot.",
	GreetingDescription: "\nI can help you understand complex texts and provide detailed explanations.\n\n- Just use the `/explain` command or\n- *right-click* on any message to get started!",
}

// setDefaults registers every key so that AutomaticEnv can override it during
// Unmarshal; viper only consults the environment for keys it knows.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	v.SetDefault("discord.enabled", false)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.app_id", "")
	v.SetDefault("discord.guild_id", "")
	v.SetDefault("discord.setup_url", "")
	v.SetDefault("discord.dict_url", "")

	v.SetDefault("slack.enabled", false)
	v.SetDefault("slack.bot_token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("slack.port", DefaultSlackPort)

	v.SetDefault("explainer.base_url", "")
	v.SetDefault("explainer.timeout", DefaultExplainerTimeout)

	v.SetDefault("messages.error", DefaultMessages.Error)
	v.SetDefault("messages.no_text", DefaultMessages.NoText)
	v.SetDefault("messages.loading", DefaultMessages.Loading)
	v.SetDefault("messages.explain_more", DefaultMessages.ExplainMore)
	v.SetDefault("messages.greeting_title", DefaultMessages.GreetingTitle)
	v.SetDefault("messages.greeting_description", DefaultMessages.GreetingDescription)

	v.SetDefault("scheduler.tasks", map[string]any{
		ReachabilityTask: map[string]any{
			"enabled":  true,
			"schedule": DefaultReachabilityCheck,
		},
	})
}
