package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Jira configuration
	JiraURL      string // Required: base URL of the Jira instance, HTTPS only
	JiraUsername string // Required: username for basic auth (typically email)
	JiraAPIToken string // Required: API token for authentication

	// Log level
	LogLevel string // Optional: log level, defaults to info
}

var (
	// instance holds the singleton config instance
	instance *Config
)

// Get returns the singleton config instance
func Get() *Config {
	if instance == nil {
		panic("config not initialized")
	}
	return instance
}

// Load creates a new Config instance from environment variables
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		JiraURL:      v.GetString("JIRA_URL"),
		JiraUsername: v.GetString("JIRA_USERNAME"),
		JiraAPIToken: v.GetString("JIRA_API_TOKEN"),
		LogLevel:     v.GetString("LOG_LEVEL"),
	}

	requiredVars := map[string]string{
		"JIRA_URL":       cfg.JiraURL,
		"JIRA_USERNAME":  cfg.JiraUsername,
		"JIRA_API_TOKEN": cfg.JiraAPIToken,
	}

	var missingVars []string
	for env, value := range requiredVars {
		if value == "" {
			missingVars = append(missingVars, env)
		}
	}
	if len(missingVars) > 0 {
		sort.Strings(missingVars)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}

	// Never connect to plain-HTTP Jira endpoints.
	if !strings.HasPrefix(cfg.JiraURL, "https://") {
		return nil, fmt.Errorf("JIRA_URL must use HTTPS protocol")
	}

	// Store the instance
	instance = cfg

	return cfg, nil
}

// SanitizedURL returns the Jira URL with any userinfo stripped, safe for
// logging.
func (c *Config) SanitizedURL() string {
	if i := strings.LastIndex(c.JiraURL, "@"); i >= 0 {
		return c.JiraURL[i+1:]
	}
	return c.JiraURL
}
