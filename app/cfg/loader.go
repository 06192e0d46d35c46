package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./redscout.db" description:"Path to the SQLite database file"`

	// Application configuration
	KeywordsFile string `long:"keywords-file" env:"KEYWORDS_FILE" default:"./keywords.yml" description:"YAML file with monitored subreddits and weighted keywords"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" default:"http://localhost:8080" description:"Public base URL used for dashboard deep links in alerts"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"Shared secret for the API and scan trigger (API disabled when empty)"`
	ScanSchedule string `long:"scan-schedule" env:"SCAN_SCHEDULE" description:"Cron expression for automatic scans (empty = trigger-only)"`
	PostLimit    int    `long:"post-limit" env:"POST_LIMIT" default:"25" description:"Maximum posts to request per subreddit"`

	// Notification configuration
	SMTPHost     string `long:"smtp-host" env:"SMTP_HOST" description:"SMTP server host (alerts disabled when empty)"`
	SMTPPort     int    `long:"smtp-port" env:"SMTP_PORT" default:"587" description:"SMTP server port"`
	SMTPUser     string `long:"smtp-user" env:"SMTP_USER" description:"SMTP username"`
	SMTPPassword string `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
	AlertFrom    string `long:"alert-from" env:"ALERT_FROM" default:"RedScout <redscout@localhost>" description:"Alert sender address"`
	AlertTo      string `long:"alert-to" env:"ALERT_TO" description:"Alert recipient address"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36" description:"User agent string for upstream requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:       raw.DBPath,
		KeywordsFile: raw.KeywordsFile,
		Port:         raw.Port,
		BaseUrl:      raw.BaseUrl,
		APIAccessKey: raw.APIAccessKey,
		ScanSchedule: raw.ScanSchedule,
		PostLimit:    raw.PostLimit,
		SMTPHost:     raw.SMTPHost,
		SMTPPort:     raw.SMTPPort,
		SMTPUser:     raw.SMTPUser,
		SMTPPassword: raw.SMTPPassword,
		AlertFrom:    raw.AlertFrom,
		AlertTo:      raw.AlertTo,
		UserAgent:    raw.UserAgent,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
