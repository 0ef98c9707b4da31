package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks credentials first so a missing secret is reported before
// anything touches the network.
func (c *Config) Validate() error {
	checks := []func(*Config) error{
		validateCredentials,
		validateReddit,
		validateSheets,
		validatePublisher,
	}

	for _, check := range checks {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

// ValidateServer is only needed for the long-running serve mode.
func (c *Config) ValidateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is empty")
	}
	if _, err := cron.ParseStandard(c.Server.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Server.Schedule, err)
	}
	return nil
}

func validateCredentials(cfg *Config) error {
	var missing []string
	if cfg.Reddit.ClientID == "" {
		missing = append(missing, "REDDIT_CLIENT_ID")
	}
	if cfg.Reddit.ClientSecret == "" {
		missing = append(missing, "REDDIT_CLIENT_SECRET")
	}
	if cfg.Sheets.Backend == BackendGoogle && cfg.Sheets.Credentials == "" {
		missing = append(missing, "GOOGLE_APPLICATION_CREDENTIALS")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(missing, ", "))
	}
	return nil
}

func validateReddit(cfg *Config) error {
	if strings.TrimSpace(cfg.Reddit.Subreddit) == "" {
		return fmt.Errorf("subreddit is empty")
	}
	if cfg.Reddit.WindowDays < 1 {
		return fmt.Errorf("window days must be positive, got %d", cfg.Reddit.WindowDays)
	}
	if cfg.Reddit.MaxScan < 1 {
		return fmt.Errorf("max scan must be positive, got %d", cfg.Reddit.MaxScan)
	}
	return nil
}

func validateSheets(cfg *Config) error {
	switch cfg.Sheets.Backend {
	case BackendGoogle, BackendXLSX:
	default:
		return fmt.Errorf("unknown sheets backend %q", cfg.Sheets.Backend)
	}
	if strings.TrimSpace(cfg.Sheets.Name) == "" {
		return fmt.Errorf("sheet name is empty")
	}
	return nil
}

func validatePublisher(cfg *Config) error {
	if cfg.Publisher.MaxDataRows < 1 {
		return fmt.Errorf("max data rows must be positive, got %d", cfg.Publisher.MaxDataRows)
	}
	return nil
}
