package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validYAML = `
telegram:
  token: "123:abc"
  chat_id: -100200300
  admin_chat_id: 42
twitch:
  client_id: "cid"
  client_secret: "secret"
  channels: ["streamera", "streamerb"]
kick:
  channels: ["kicker"]
logging:
  level: "info"
  console: true
  file:
    enabled: false
    path: ""
  telegram:
    enabled: true
    min_level: "warn"
    rate_per_sec: 1
poll:
  interval: "20s"
  send_delay: "2s"
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.ChatID != -100200300 || cfg.Telegram.AdminChatID != 42 {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if len(cfg.Twitch.Channels) != 2 || cfg.Kick.Channels[0] != "kicker" {
		t.Fatalf("channels = %+v / %+v", cfg.Twitch.Channels, cfg.Kick.Channels)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", validYAML+"\nbogus_key: 1\n"))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestParseJSONTrailingData(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.json", `{"telegram":{"token":"t","chat_id":1},"logging":{},"twitch":{},"poll":{}}{}`))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected trailing-data error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			Telegram: TelegramConfig{Token: "t", ChatID: 1},
			Twitch:   TwitchConfig{ClientID: "c", ClientSecret: "s", Channels: []string{"a"}},
		}
	}

	if err := Validate(base()); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram.token"},
		{"missing chat", func(c *Config) { c.Telegram.ChatID = 0 }, "telegram.chat_id"},
		{"no channels", func(c *Config) { c.Twitch.Channels = nil }, "no channels"},
		{"missing secret", func(c *Config) { c.Twitch.ClientSecret = "" }, "client_secret"},
		{"bad duration", func(c *Config) { c.Poll.Interval = "fast" }, "poll.interval"},
		{"bad cron", func(c *Config) { c.Digest = DigestConfig{Enabled: true, Spec: "not cron"} }, "digest.spec"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationOrDefault("x", "", 20*time.Second); err != nil || d != 20*time.Second {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("x", "5s", 20*time.Second); err != nil || d != 5*time.Second {
		t.Fatalf("explicit = %v, %v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "-5s", 20*time.Second); err == nil {
		t.Fatal("negative duration should fail")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Telegram: TelegramConfig{Token: "t", ChatID: 1}}
	newCfg := &Config{
		Telegram: TelegramConfig{Token: "t2", ChatID: 2},
		Twitch:   TwitchConfig{Channels: []string{"a"}},
		Recorder: RecorderConfig{Enabled: true},
	}

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	want := []string{"recorder", "telegram", "twitch"}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v", changed)
	}
	for i := range want {
		if changed[i] != want[i] {
			t.Fatalf("changed = %v, want %v", changed, want)
		}
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs for changed sections")
	}
}
