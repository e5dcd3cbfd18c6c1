// Package config holds operator-level configuration for a Parley
// installation: listen address, provider keys, Twilio credentials, the
// escalation destination, and monitor tuning. Values merge from env vars
// (PARLEY_* prefix), an optional parley.config.yaml, and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the PARLEY_ prefix
// (e.g. "support_phone_number" → PARLEY_SUPPORT_PHONE_NUMBER) and to a
// YAML field in parley.config.yaml.
const (
	KeyListenAddr          = "listen_addr"
	KeyDataDir             = "data_dir"
	KeyCompanyName         = "company_name"
	KeySupportPhoneNumber  = "support_phone_number"
	KeyPollIntervalSeconds = "poll_interval_seconds"
	KeyEscalationKeywords  = "escalation_keywords"
	KeyCallIdleTTLMinutes  = "call_idle_ttl_minutes"
	KeyLLMProvider         = "llm_provider"
	KeyLLMModel            = "llm_model"
	KeyOpenAIAPIKey        = "openai_api_key"
	KeyAnthropicAPIKey     = "anthropic_api_key"
	KeyTwilioAccountSID    = "twilio_account_sid"
	KeyTwilioAuthToken     = "twilio_auth_token"
	KeyWebsocketURL        = "websocket_url"
)

// Defaults.
const (
	DefaultListenAddr  = ":8080"
	DefaultCompanyName = "our company"
	DefaultPollSeconds = 2
	DefaultIdleTTLMin  = 10
	DefaultLLMProvider = "openai"
	DefaultLLMModel    = "gpt-4o-mini"
)

// Config holds resolved operator configuration for a Parley process.
type Config struct {
	ListenAddr          string // HTTP listen address
	DataDir             string // Base directory for state (~/.parley)
	CompanyName         string // Used in greeting and announcement text
	SupportPhoneNumber  string // Escalation destination; empty disables escalation
	PollIntervalSeconds int    // Monitor transcript poll interval
	EscalationKeywords  string // Comma-separated fast-path keywords; empty = built-in set
	CallIdleTTLMinutes  int    // Janitor purges calls idle longer than this
	LLMProvider         string // "openai" or "anthropic"
	LLMModel            string // Model for intent extraction
	OpenAIAPIKey        string
	AnthropicAPIKey     string
	TwilioAccountSID    string
	TwilioAuthToken     string
	WebsocketURL        string // Media stream URL advertised in /voice TwiML; empty = derive from request host
}

func init() {
	viper.SetEnvPrefix("PARLEY")
	viper.AutomaticEnv()
	viper.SetDefault(KeyListenAddr, DefaultListenAddr)
	viper.SetDefault(KeyCompanyName, DefaultCompanyName)
	viper.SetDefault(KeyPollIntervalSeconds, DefaultPollSeconds)
	viper.SetDefault(KeyCallIdleTTLMinutes, DefaultIdleTTLMin)
	viper.SetDefault(KeyLLMProvider, DefaultLLMProvider)
	viper.SetDefault(KeyLLMModel, DefaultLLMModel)
}

// Load reads configuration from Viper (env vars, config file, defaults)
// and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:          viper.GetString(KeyListenAddr),
		DataDir:             resolveDataDir(),
		CompanyName:         viper.GetString(KeyCompanyName),
		SupportPhoneNumber:  viper.GetString(KeySupportPhoneNumber),
		PollIntervalSeconds: viper.GetInt(KeyPollIntervalSeconds),
		EscalationKeywords:  viper.GetString(KeyEscalationKeywords),
		CallIdleTTLMinutes:  viper.GetInt(KeyCallIdleTTLMinutes),
		LLMProvider:         viper.GetString(KeyLLMProvider),
		LLMModel:            viper.GetString(KeyLLMModel),
		OpenAIAPIKey:        viper.GetString(KeyOpenAIAPIKey),
		AnthropicAPIKey:     viper.GetString(KeyAnthropicAPIKey),
		TwilioAccountSID:    viper.GetString(KeyTwilioAccountSID),
		TwilioAuthToken:     viper.GetString(KeyTwilioAuthToken),
		WebsocketURL:        viper.GetString(KeyWebsocketURL),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".parley"
	}
	return filepath.Join(home, ".parley")
}

func (c *Config) validate() error {
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be at least 1")
	}
	if c.CallIdleTTLMinutes < 1 {
		return fmt.Errorf("call_idle_ttl_minutes must be at least 1")
	}
	switch c.LLMProvider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm_provider must be openai or anthropic (got %q)", c.LLMProvider)
	}
	return nil
}

// PollInterval returns the monitor poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// CallIdleTTL returns how long an idle call survives before the janitor
// removes it.
func (c *Config) CallIdleTTL() time.Duration {
	return time.Duration(c.CallIdleTTLMinutes) * time.Minute
}

// Keywords returns the configured escalation keyword list, or nil when the
// built-in set should apply.
func (c *Config) Keywords() []string {
	if strings.TrimSpace(c.EscalationKeywords) == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(c.EscalationKeywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// CasesDBPath returns the full path to the case status SQLite database.
func (c *Config) CasesDBPath() string {
	return filepath.Join(c.DataDir, "cases.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}
