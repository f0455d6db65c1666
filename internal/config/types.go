package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Twitch   TwitchConfig   `json:"twitch"`
	Kick     KickConfig     `json:"kick,omitempty"`
	Logging  LoggingConfig  `json:"logging"`

	// Channels maps a normalized login to its presentation settings.
	// Logins absent from this map still work; they fall back to the
	// raw login and the default photos.
	Channels map[string]ChannelConfig `json:"channels,omitempty"`

	Poll     PollConfig     `json:"poll"`
	Recorder RecorderConfig `json:"recorder,omitempty"`
	Disk     DiskConfig     `json:"disk,omitempty"`
	Digest   DigestConfig   `json:"digest,omitempty"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// ChatID is the broadcast chat notifications are posted to.
	ChatID int64 `json:"chat_id"`
	// AdminChatID receives operational messages (logs, crash notes,
	// disk alerts). Commands are only accepted from this chat.
	AdminChatID int64 `json:"admin_chat_id"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type TwitchConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Channels     []string `json:"channels"`
}

type KickConfig struct {
	Channels []string `json:"channels,omitempty"`
}

type ChannelConfig struct {
	DisplayName string `json:"display_name,omitempty"`
	// Record marks the channel for automatic streamlink capture.
	Record bool `json:"record,omitempty"`

	PhotoLive     string `json:"photo_live,omitempty"`
	PhotoOff      string `json:"photo_off,omitempty"`
	PhotoBanned   string `json:"photo_banned,omitempty"`
	PhotoUnbanned string `json:"photo_unbanned,omitempty"`
}

// PollConfig controls the main tick loop.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - interval: "20s"
//   - send_delay: "2s"
type PollConfig struct {
	Interval  string `json:"interval,omitempty"`
	SendDelay string `json:"send_delay,omitempty"`
	// HeartbeatURL is pinged with a GET after each successful tick.
	// Empty disables the ping.
	HeartbeatURL string `json:"heartbeat_url,omitempty"`
}

type RecorderConfig struct {
	Enabled   bool    `json:"enabled"`
	OutDir    string  `json:"out_dir,omitempty"`
	MinFreeGB float64 `json:"min_free_gb,omitempty"`
}

// DiskConfig controls free-space monitoring while recordings run.
type DiskConfig struct {
	LowSpaceGB float64 `json:"low_space_gb,omitempty"`
	// WarnRepeat is a Go duration string; low-space warnings repeat no
	// more often than this.
	WarnRepeat string `json:"warn_repeat,omitempty"`
	// AlertAfter is a Go duration string; healthy-state reports are
	// sent at most this often.
	AlertAfter string `json:"alert_after,omitempty"`
}

// DigestConfig controls the daily status summary.
type DigestConfig struct {
	Enabled bool `json:"enabled"`
	// Spec is a cron expression (default "0 9 * * *").
	Spec string `json:"spec,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./streamnotify.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9120"
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}
