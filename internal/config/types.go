package config

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Logging  LoggingConfig  `json:"logging"`
	Store    StoreConfig    `json:"store"`
	Notifier NotifierConfig `json:"notifier"`
	Trigger  TriggerConfig  `json:"trigger"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StoreConfig controls the persistence layer.
//
// Example:
//
//	"store": { "driver": "sqlite", "path": "./remindd.db" }
type StoreConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// NotifierConfig selects the delivery transport.
type NotifierConfig struct {
	Driver   string         `json:"driver"` // "telegram" (default) or "console"
	Telegram TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token       string `json:"token"`
	SendTimeout string `json:"send_timeout,omitempty"`
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
}

// TriggerConfig controls the daemon's scan cadence.
//
// Schedule accepts a 5-field cron spec or "@every <duration>"; it defaults
// to "@every 1m". Timezone is the single zone all trigger calculations run
// in (IANA name, default Local).
type TriggerConfig struct {
	Schedule    string `json:"schedule,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	ScanTimeout string `json:"scan_timeout,omitempty"` // per-scan budget, default 1m
}
