package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate checks the parts of the config that would make the bot
// unable to run or silently misbehave. It is used both at startup and
// as the Watch() validator.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}
	if cfg.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required")
	}

	if len(cfg.Twitch.Channels) > 0 {
		if strings.TrimSpace(cfg.Twitch.ClientID) == "" || strings.TrimSpace(cfg.Twitch.ClientSecret) == "" {
			return errors.New("twitch.client_id and twitch.client_secret are required when twitch.channels is set")
		}
	}
	if len(cfg.Twitch.Channels) == 0 && len(cfg.Kick.Channels) == 0 {
		return errors.New("no channels configured (twitch.channels / kick.channels)")
	}
	if len(cfg.Twitch.Channels) > 100 {
		return fmt.Errorf("twitch.channels: at most 100 logins per poll, got %d", len(cfg.Twitch.Channels))
	}

	for _, field := range []struct{ path, raw string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"poll.interval", cfg.Poll.Interval},
		{"poll.send_delay", cfg.Poll.SendDelay},
		{"disk.warn_repeat", cfg.Disk.WarnRepeat},
		{"disk.alert_after", cfg.Disk.AlertAfter},
	} {
		if _, err := ParseDurationField(field.path, field.raw); err != nil {
			return err
		}
	}
	if cfg.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}

	if cfg.Digest.Enabled && strings.TrimSpace(cfg.Digest.Spec) != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Digest.Spec); err != nil {
			return fmt.Errorf("digest.spec: %w", err)
		}
	}

	if cfg.Recorder.Enabled && cfg.Recorder.MinFreeGB < 0 {
		return errors.New("recorder.min_free_gb must be >= 0")
	}

	return nil
}
