package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Branding  BrandingConfig  `yaml:"branding" json:"branding"`
	Features  FeaturesConfig  `yaml:"features" json:"features"`
	Security  SecurityConfig  `yaml:"security" json:"security"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Chatbot   ChatbotConfig   `yaml:"chatbot" json:"chatbot"`
	Retention RetentionConfig `yaml:"retention" json:"retention"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host           string   `yaml:"host" json:"host"`
	Port           int      `yaml:"port" json:"port"`
	ReadTimeout    int      `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout   int      `yaml:"write_timeout" json:"write_timeout"` // seconds
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" json:"max_upload_bytes"`
}

// BrandingConfig describes the per-deployment identity of the application.
// The same binary ships as MarketPro, MarketPulse or MoneyPulse depending
// on this section.
type BrandingConfig struct {
	AppName     string `yaml:"app_name" json:"app_name"`
	CompanyName string `yaml:"company_name" json:"company_name"`
	ReportTitle string `yaml:"report_title" json:"report_title"`
}

// FeaturesConfig toggles the optional analytics modules per deployment
type FeaturesConfig struct {
	Clustering bool `yaml:"clustering" json:"clustering"`
	Reviews    bool `yaml:"reviews" json:"reviews"`
	Sales      bool `yaml:"sales" json:"sales"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret   string `yaml:"jwt_secret" json:"jwt_secret"`
	TokenExpiry int    `yaml:"token_expiry" json:"token_expiry"` // hours
	RateLimit   int    `yaml:"rate_limit" json:"rate_limit"`     // requests per minute
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format   string `yaml:"format" json:"format"` // json, text
	Output   string `yaml:"output" json:"output"` // stdout, file, both
	FilePath string `yaml:"file_path" json:"file_path"`
}

// StorageConfig holds document store configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
	ModelPath    string `yaml:"model_path" json:"model_path"`
}

// ChatbotConfig holds the Gemini chatbot configuration
type ChatbotConfig struct {
	APIKey  string `yaml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Timeout int    `yaml:"timeout" json:"timeout"` // seconds
}

// RetentionConfig controls periodic cleanup of stored state
type RetentionConfig struct {
	SessionSweep string `yaml:"session_sweep" json:"session_sweep"` // cron expression
	AnalysisDays int    `yaml:"analysis_days" json:"analysis_days"`
}

// TokenExpiry returns the session token lifetime as a duration
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Security.TokenExpiry) * time.Hour
}

// ConfigManager manages application configuration
type ConfigManager struct {
	config     *Config
	configPath string
	mutex      sync.RWMutex
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: getDefaultConfig(),
	}
}

// LoadFromFile loads configuration from a YAML or JSON file
func (cm *ConfigManager) LoadFromFile(configPath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var newConfig Config
	ext := filepath.Ext(configPath)

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &newConfig); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &newConfig); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	merged := cm.mergeWithDefaults(&newConfig)
	if err := cm.validateConfig(merged); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = merged
	cm.configPath = configPath

	return nil
}

// ApplyEnvironment overlays environment variables on the current config.
// A .env file in the working directory is loaded first when present.
func (cm *ConfigManager) ApplyEnvironment() {
	// Missing .env is fine; explicit environment still applies
	_ = godotenv.Load()

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cm.config.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cm.config.Security.JWTSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cm.config.Chatbot.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_URL"); v != "" {
		cm.config.Chatbot.BaseURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cm.config.Storage.DatabasePath = v
	}
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return cm.config
}

// SaveToFile writes the current configuration to a YAML file
func (cm *ConfigManager) SaveToFile(configPath string) error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := yaml.Marshal(cm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfig returns the built-in defaults (MoneyPulse deployment,
// all feature modules enabled)
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			ReadTimeout:    30,
			WriteTimeout:   30,
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
		Branding: BrandingConfig{
			AppName:     "MoneyPulse",
			ReportTitle: "Consumer Shopping Behaviour Report",
		},
		Features: FeaturesConfig{
			Clustering: true,
			Reviews:    true,
			Sales:      true,
		},
		Security: SecurityConfig{
			JWTSecret:   "change-me-in-production",
			TokenExpiry: 24,
			RateLimit:   1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Storage: StorageConfig{
			DatabasePath: "./data/moneypulse.db",
		},
		Chatbot: ChatbotConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent",
			Timeout: 60,
		},
		Retention: RetentionConfig{
			SessionSweep: "@hourly",
			AnalysisDays: 30,
		},
	}
}

// mergeWithDefaults fills unset fields of a user config from the defaults
func (cm *ConfigManager) mergeWithDefaults(userConfig *Config) *Config {
	merged := *getDefaultConfig()

	if userConfig.Server.Host != "" {
		merged.Server.Host = userConfig.Server.Host
	}
	if userConfig.Server.Port != 0 {
		merged.Server.Port = userConfig.Server.Port
	}
	if userConfig.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = userConfig.Server.ReadTimeout
	}
	if userConfig.Server.WriteTimeout != 0 {
		merged.Server.WriteTimeout = userConfig.Server.WriteTimeout
	}
	if len(userConfig.Server.AllowedOrigins) > 0 {
		merged.Server.AllowedOrigins = userConfig.Server.AllowedOrigins
	}
	if userConfig.Server.MaxUploadBytes != 0 {
		merged.Server.MaxUploadBytes = userConfig.Server.MaxUploadBytes
	}

	if userConfig.Branding.AppName != "" {
		merged.Branding.AppName = userConfig.Branding.AppName
	}
	if userConfig.Branding.CompanyName != "" {
		merged.Branding.CompanyName = userConfig.Branding.CompanyName
	}
	if userConfig.Branding.ReportTitle != "" {
		merged.Branding.ReportTitle = userConfig.Branding.ReportTitle
	}

	// Feature toggles are taken verbatim; a deployment that omits the
	// section gets everything enabled
	if userConfig.Features != (FeaturesConfig{}) {
		merged.Features = userConfig.Features
	}

	if userConfig.Security.JWTSecret != "" {
		merged.Security.JWTSecret = userConfig.Security.JWTSecret
	}
	if userConfig.Security.TokenExpiry != 0 {
		merged.Security.TokenExpiry = userConfig.Security.TokenExpiry
	}
	if userConfig.Security.RateLimit != 0 {
		merged.Security.RateLimit = userConfig.Security.RateLimit
	}

	if userConfig.Logging.Level != "" {
		merged.Logging.Level = userConfig.Logging.Level
	}
	if userConfig.Logging.Format != "" {
		merged.Logging.Format = userConfig.Logging.Format
	}
	if userConfig.Logging.Output != "" {
		merged.Logging.Output = userConfig.Logging.Output
	}
	if userConfig.Logging.FilePath != "" {
		merged.Logging.FilePath = userConfig.Logging.FilePath
	}

	if userConfig.Storage.DatabasePath != "" {
		merged.Storage.DatabasePath = userConfig.Storage.DatabasePath
	}
	if userConfig.Storage.ModelPath != "" {
		merged.Storage.ModelPath = userConfig.Storage.ModelPath
	}

	if userConfig.Chatbot.APIKey != "" {
		merged.Chatbot.APIKey = userConfig.Chatbot.APIKey
	}
	if userConfig.Chatbot.BaseURL != "" {
		merged.Chatbot.BaseURL = userConfig.Chatbot.BaseURL
	}
	if userConfig.Chatbot.Timeout != 0 {
		merged.Chatbot.Timeout = userConfig.Chatbot.Timeout
	}

	if userConfig.Retention.SessionSweep != "" {
		merged.Retention.SessionSweep = userConfig.Retention.SessionSweep
	}
	if userConfig.Retention.AnalysisDays != 0 {
		merged.Retention.AnalysisDays = userConfig.Retention.AnalysisDays
	}

	return &merged
}

// validateConfig checks configuration invariants
func (cm *ConfigManager) validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Security.TokenExpiry < 1 {
		return fmt.Errorf("token expiry must be at least 1 hour")
	}
	if config.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("max upload size must be positive")
	}

	level := strings.ToLower(config.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	format := strings.ToLower(config.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	return nil
}

// Global configuration manager
var globalConfigManager *ConfigManager
var configOnce sync.Once

// GetConfigManager returns the global configuration manager
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}
