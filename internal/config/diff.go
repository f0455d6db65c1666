package config

import (
	"reflect"
	"sort"
	"strings"

	logx "streamnotify/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and
// safe structured attrs for logging (never includes secrets like tokens).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 20)

	// Telegram (never log token)
	if oldCfg.Telegram.ChatID != newCfg.Telegram.ChatID ||
		oldCfg.Telegram.AdminChatID != newCfg.Telegram.AdminChatID ||
		strings.TrimSpace(oldCfg.Telegram.PollTimeout) != strings.TrimSpace(newCfg.Telegram.PollTimeout) {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Int64("telegram.chat_id", newCfg.Telegram.ChatID),
			logx.Bool("telegram.admin_set", newCfg.Telegram.AdminChatID != 0),
			logx.String("telegram.poll_timeout", strings.TrimSpace(newCfg.Telegram.PollTimeout)),
		)
	}

	// Twitch / Kick (never log secret)
	if !reflect.DeepEqual(oldCfg.Twitch.Channels, newCfg.Twitch.Channels) ||
		strings.TrimSpace(oldCfg.Twitch.ClientID) != strings.TrimSpace(newCfg.Twitch.ClientID) {
		changed = append(changed, "twitch")
		attrs = append(attrs, logx.Int("twitch.channel_count", len(newCfg.Twitch.Channels)))
	}
	if !reflect.DeepEqual(oldCfg.Kick.Channels, newCfg.Kick.Channels) {
		changed = append(changed, "kick")
		attrs = append(attrs, logx.Int("kick.channel_count", len(newCfg.Kick.Channels)))
	}

	// Channel presentation
	if !reflect.DeepEqual(oldCfg.Channels, newCfg.Channels) {
		changed = append(changed, "channels")
		attrs = append(attrs, logx.Int("channels.count", len(newCfg.Channels)))
	}

	// Logging
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logx.telegram_enabled", newCfg.Logging.Telegram.Enabled),
		)
	}

	// Poll loop
	if !reflect.DeepEqual(oldCfg.Poll, newCfg.Poll) {
		changed = append(changed, "poll")
		attrs = append(attrs,
			logx.String("poll.interval", strings.TrimSpace(newCfg.Poll.Interval)),
			logx.String("poll.send_delay", strings.TrimSpace(newCfg.Poll.SendDelay)),
			logx.Bool("poll.heartbeat_set", strings.TrimSpace(newCfg.Poll.HeartbeatURL) != ""),
		)
	}

	// Recorder / disk
	if !reflect.DeepEqual(oldCfg.Recorder, newCfg.Recorder) {
		changed = append(changed, "recorder")
		attrs = append(attrs,
			logx.Bool("recorder.enabled", newCfg.Recorder.Enabled),
			logx.String("recorder.out_dir", strings.TrimSpace(newCfg.Recorder.OutDir)),
			logx.Float64("recorder.min_free_gb", newCfg.Recorder.MinFreeGB),
		)
	}
	if !reflect.DeepEqual(oldCfg.Disk, newCfg.Disk) {
		changed = append(changed, "disk")
		attrs = append(attrs,
			logx.Float64("disk.low_space_gb", newCfg.Disk.LowSpaceGB),
			logx.String("disk.warn_repeat", strings.TrimSpace(newCfg.Disk.WarnRepeat)),
			logx.String("disk.alert_after", strings.TrimSpace(newCfg.Disk.AlertAfter)),
		)
	}

	// Digest
	if !reflect.DeepEqual(oldCfg.Digest, newCfg.Digest) {
		changed = append(changed, "digest")
		attrs = append(attrs,
			logx.Bool("digest.enabled", newCfg.Digest.Enabled),
			logx.String("digest.spec", strings.TrimSpace(newCfg.Digest.Spec)),
		)
	}

	// Storage (persistence). Nil means disabled.
	oldS := oldCfg.Storage
	newS := newCfg.Storage
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldS != nil {
		oDriver = strings.TrimSpace(oldS.Driver)
		oBusy = strings.TrimSpace(oldS.BusyTimeout)
		oPathSet = strings.TrimSpace(oldS.Path) != ""
	}
	if newS != nil {
		nDriver = strings.TrimSpace(newS.Driver)
		nBusy = strings.TrimSpace(newS.BusyTimeout)
		nPathSet = strings.TrimSpace(newS.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	// Metrics
	if !reflect.DeepEqual(oldCfg.Metrics, newCfg.Metrics) {
		changed = append(changed, "metrics")
		attrs = append(attrs,
			logx.Bool("metrics.enabled", newCfg.Metrics.Enabled),
			logx.String("metrics.addr", strings.TrimSpace(newCfg.Metrics.Addr)),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
