package config

import (
	"errors"
	"time"
)

// ErrConfigurationMissing is returned by Validate when a required credential is absent.
var ErrConfigurationMissing = errors.New("configuration missing")

const (
	BackendGoogle = "google"
	BackendXLSX   = "xlsx"
)

const (
	defaultUserAgent   = "RedditWeeklyAnalytics/1.0"
	defaultSubreddit   = "python"
	defaultWindowDays  = 7
	defaultMaxScan     = 1000
	defaultSheetName   = "Reddit Weekly Analytics"
	defaultXLSXDir     = "./reports"
	defaultMaxDataRows = 999
	defaultHTTPTimeout = 30 * time.Second
	defaultMongoDB     = "reddit_weekly"
	defaultServerAddr  = ":8080"
	defaultSchedule    = "0 9 * * 1"
	defaultLogLevel    = "info"
)

type RedditConfig struct {
	ClientID     string `yaml:"client_id" env:"REDDIT_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"REDDIT_CLIENT_SECRET"`
	UserAgent    string `yaml:"user_agent" env:"REDDIT_USER_AGENT"`
	Subreddit    string `yaml:"subreddit" env:"SUBREDDIT_NAME"`
	WindowDays   int    `yaml:"window_days" env:"WINDOW_DAYS"`
	MaxScan      int    `yaml:"max_scan" env:"MAX_SCAN"`
}

type SheetsConfig struct {
	Backend string `yaml:"backend" env:"SHEETS_BACKEND"`
	Name    string `yaml:"name" env:"GOOGLE_SHEET_NAME"`
	// Credentials is the service-account JSON blob itself, not a path.
	Credentials string `yaml:"credentials" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	XLSXDir     string `yaml:"xlsx_dir" env:"XLSX_DIR"`
	Private     bool   `yaml:"private" env:"SHEETS_PRIVATE"`
}

type PublisherConfig struct {
	MaxDataRows int `yaml:"max_data_rows" env:"MAX_DATA_ROWS"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DATABASE"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr" env:"SERVER_ADDR"`
	Schedule string `yaml:"schedule" env:"SCHEDULE"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	Debug bool   `yaml:"debug" env:"DEBUG"`
}

// Config is built once at process start and handed to every stage.
type Config struct {
	Reddit    RedditConfig    `yaml:"reddit"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Publisher PublisherConfig `yaml:"publisher"`
	HTTP      HTTPConfig      `yaml:"http"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// SetDefaults fills every zero-valued optional field.
func (c *Config) SetDefaults() {
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = defaultUserAgent
	}
	if c.Reddit.Subreddit == "" {
		c.Reddit.Subreddit = defaultSubreddit
	}
	if c.Reddit.WindowDays == 0 {
		c.Reddit.WindowDays = defaultWindowDays
	}
	if c.Reddit.MaxScan == 0 {
		c.Reddit.MaxScan = defaultMaxScan
	}
	if c.Sheets.Backend == "" {
		c.Sheets.Backend = BackendGoogle
	}
	if c.Sheets.Name == "" {
		c.Sheets.Name = defaultSheetName
	}
	if c.Sheets.XLSXDir == "" {
		c.Sheets.XLSXDir = defaultXLSXDir
	}
	if c.Publisher.MaxDataRows == 0 {
		c.Publisher.MaxDataRows = defaultMaxDataRows
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaultHTTPTimeout
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = defaultMongoDB
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.Schedule == "" {
		c.Server.Schedule = defaultSchedule
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
}

// HistoryEnabled reports whether run history should be written to MongoDB.
func (c *Config) HistoryEnabled() bool {
	return c.Mongo.URI != ""
}
