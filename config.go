package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSheetBaseURL = "https://docs.google.com/spreadsheets/d"

type Config struct {
	SheetBaseURL string `yaml:"sheet_base_url"`
	SheetID      string `yaml:"sheet_id"`
	SheetTab     string `yaml:"sheet_tab"`

	PollIntervalSeconds        int `yaml:"poll_interval_seconds"`
	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	DBPath     string `yaml:"db_path"`
	ListenAddr string `yaml:"listen_addr"`

	CompanyName   string `yaml:"company_name"`
	FallbackLabel string `yaml:"fallback_label"`
	Timezone      string `yaml:"timezone"`

	SlackBotToken   string `yaml:"slack_bot_token"`
	DigestChannelID string `yaml:"digest_channel_id"`
	DigestSchedule  string `yaml:"digest_schedule"`

	LLMAPIKey     string  `yaml:"llm_api_key"`
	LLMModel      string  `yaml:"llm_model"`
	LLMBatchSize  int     `yaml:"llm_batch_size"`
	LLMConfidence float64 `yaml:"llm_confidence_threshold"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SheetBaseURL, "SHEET_BASE_URL")
	envOverride(&cfg.SheetID, "SHEET_ID")
	envOverride(&cfg.SheetTab, "SHEET_TAB")
	envOverrideInt(&cfg.PollIntervalSeconds, "POLL_INTERVAL_SECONDS")
	envOverrideInt(&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ListenAddr, "LISTEN_ADDR")
	envOverride(&cfg.CompanyName, "COMPANY_NAME")
	envOverride(&cfg.FallbackLabel, "FALLBACK_LABEL")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.DigestChannelID, "DIGEST_CHANNEL_ID")
	envOverride(&cfg.DigestSchedule, "DIGEST_SCHEDULE")
	envOverride(&cfg.LLMAPIKey, "LLM_API_KEY")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverrideInt(&cfg.LLMBatchSize, "LLM_BATCH_SIZE")
	envOverrideFloat(&cfg.LLMConfidence, "LLM_CONFIDENCE_THRESHOLD")

	// Defaults
	if cfg.SheetBaseURL == "" {
		cfg.SheetBaseURL = defaultSheetBaseURL
	}
	if cfg.PollIntervalSeconds == 0 {
		cfg.PollIntervalSeconds = 60
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = int(defaultExternalHTTPTimeout / time.Second)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./mediawatch.db"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.FallbackLabel == "" {
		cfg.FallbackLabel = DefaultFallbackLabel
	}
	if cfg.LLMBatchSize == 0 {
		cfg.LLMBatchSize = 25
	}
	if cfg.LLMConfidence == 0 {
		cfg.LLMConfidence = 0.70
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	// Validate required fields
	if cfg.SheetID == "" {
		log.Fatalf("Required config 'sheet_id' is not set (via config.yaml or env var)")
	}
	if cfg.PollIntervalSeconds < 5 {
		log.Fatalf("invalid poll_interval_seconds '%d': must be >= 5", cfg.PollIntervalSeconds)
	}
	if cfg.LLMBatchSize < 1 {
		log.Fatalf("invalid llm_batch_size '%d': must be >= 1", cfg.LLMBatchSize)
	}
	if cfg.LLMConfidence < 0 || cfg.LLMConfidence > 1 {
		log.Fatalf("invalid llm_confidence_threshold '%f': must be between 0 and 1", cfg.LLMConfidence)
	}
	if cfg.DigestChannelID != "" && cfg.SlackBotToken == "" {
		log.Fatalf("digest_channel_id is set but slack_bot_token is not")
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
		cfg.Timezone = time.Local.String()
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.DigestChannelID != ""
}

func (c Config) LLMConfigured() bool {
	return c.LLMAPIKey != ""
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
