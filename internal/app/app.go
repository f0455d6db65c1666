// Package app wires the pollers, the reconciler, the task queue, and the
// messaging transport into one long-running bot.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"streamnotify/internal/config"
	"streamnotify/internal/diskmon"
	"streamnotify/internal/kick"
	"streamnotify/internal/notify"
	"streamnotify/internal/queue"
	"streamnotify/internal/recorder"
	"streamnotify/internal/storage"
	"streamnotify/internal/stream"
	"streamnotify/internal/telemetry"
	"streamnotify/internal/text"
	kit "streamnotify/internal/transport"
	"streamnotify/internal/twitch"
	logx "streamnotify/pkg/logx"
)

// streamSource is one platform poller feeding the reconciler.
type streamSource struct {
	name   string
	logins []string
	fetch  func(ctx context.Context, logins []string) ([]stream.Stream, error)
}

// recordSet marks channels on the recording allow-list.
type recordSet map[string]bool

func (r recordSet) ShouldRecord(login string) bool { return r[login] }

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	adapter    kit.Adapter
	store      storage.Store
	formatter  *text.Formatter
	dispatcher *notify.Dispatcher
	pin        *notify.PinUpdater
	rec        *recorder.Recorder
	disk       *diskmon.Monitor
	queue      *queue.Queue
	runner     *queue.Runner
	cron       *cron.Cron
	http       *http.Client

	sources   []streamSource
	twitch    *twitch.Client
	recordSet recordSet

	chat  kit.ChatTarget
	admin kit.ChatTarget

	// mu guards the pieces both the tick loop and the task runner read.
	mu           sync.Mutex
	prev         []stream.Stream
	pendingPin   *kit.MessageRef
	banRoster    map[string]bool
	pollInterval time.Duration
	heartbeatURL string

	metricsAddr   string
	lastProcessed uint64 // tick-loop owned; feeds the processed-tasks counter

	// tickHook, when set, runs after each completed tick (tests).
	tickHook func()
}

func New(cfgMgr *config.Manager, adapter kit.Adapter, logSvc *logx.Service, log logx.Logger) (*App, error) {
	cfg := cfgMgr.Get()
	if cfg == nil {
		return nil, fmt.Errorf("config not loaded")
	}

	pollInterval, err := config.ParseDurationOrDefault("poll.interval", cfg.Poll.Interval, 20*time.Second)
	if err != nil {
		return nil, err
	}
	sendDelay, err := config.ParseDurationOrDefault("poll.send_delay", cfg.Poll.SendDelay, 2*time.Second)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgMgr:       cfgMgr,
		logSvc:       logSvc,
		log:          log,
		adapter:      adapter,
		queue:        queue.New(log.With(logx.String("comp", "queue"))),
		http:         &http.Client{Timeout: 10 * time.Second},
		chat:         kit.ChatTarget{ChatID: cfg.Telegram.ChatID},
		admin:        kit.ChatTarget{ChatID: cfg.Telegram.AdminChatID},
		pollInterval: pollInterval,
		heartbeatURL: strings.TrimSpace(cfg.Poll.HeartbeatURL),
	}
	if a.admin.ChatID == 0 {
		a.admin = a.chat
	}

	a.formatter = text.NewFormatter(channelsFromConfig(cfg.Channels), text.Channel{})
	a.dispatcher = notify.NewDispatcher(adapter, sendDelay, log.With(logx.String("comp", "dispatch")))
	a.pin = notify.NewPinUpdater(adapter, log.With(logx.String("comp", "pin")))

	if cfg.Storage != nil {
		busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
		if err != nil {
			return nil, err
		}
		st, err := storage.Open(storage.Config{
			Driver:      cfg.Storage.Driver,
			Path:        cfg.Storage.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		a.store = st
	}

	if len(cfg.Twitch.Channels) > 0 {
		tw := twitch.New(cfg.Twitch.ClientID, cfg.Twitch.ClientSecret, log.With(logx.String("comp", "twitch")))
		a.twitch = tw
		a.sources = append(a.sources, streamSource{
			name:   "twitch",
			logins: normalizeAll(cfg.Twitch.Channels),
			fetch:  tw.LiveStreams,
		})
	}
	if len(cfg.Kick.Channels) > 0 {
		kc := kick.New(log.With(logx.String("comp", "kick")))
		a.sources = append(a.sources, streamSource{
			name:   "kick",
			logins: normalizeAll(cfg.Kick.Channels),
			fetch:  kc.LiveStreams,
		})
	}

	a.recordSet = recordSet{}
	if cfg.Recorder.Enabled {
		for login, ch := range cfg.Channels {
			if ch.Record {
				a.recordSet[stream.NormalizeLogin(login)] = true
			}
		}
		a.rec = recorder.New(recorder.Config{
			OutDir:    cfg.Recorder.OutDir,
			MinFreeGB: cfg.Recorder.MinFreeGB,
		}, log.With(logx.String("comp", "recorder")))

		warnRepeat, err := config.ParseDurationField("disk.warn_repeat", cfg.Disk.WarnRepeat)
		if err != nil {
			return nil, err
		}
		alertAfter, err := config.ParseDurationField("disk.alert_after", cfg.Disk.AlertAfter)
		if err != nil {
			return nil, err
		}
		a.disk = diskmon.New(diskmon.Config{
			LowSpaceGB: cfg.Disk.LowSpaceGB,
			WarnRepeat: warnRepeat,
			AlertAfter: alertAfter,
		}, a.rec, log.With(logx.String("comp", "diskmon")))
	}

	a.runner = queue.NewRunner(a.queue, queue.Handlers{
		Heartbeat:  a.heartbeat,
		PinRefresh: a.refreshPin,
		Digest:     a.digest,
	}, log.With(logx.String("comp", "runner")))

	if cfg.Digest.Enabled {
		spec := strings.TrimSpace(cfg.Digest.Spec)
		if spec == "" {
			spec = "0 9 * * *"
		}
		a.cron = cron.New()
		if _, err := a.cron.AddFunc(spec, func() {
			a.queue.Enqueue(queue.KindDigest, nil, 0)
		}); err != nil {
			return nil, fmt.Errorf("digest.spec: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		telemetry.Init()
		a.metricsAddr = strings.TrimSpace(cfg.Metrics.Addr)
		if a.metricsAddr == "" {
			a.metricsAddr = "127.0.0.1:9120"
		}
	}

	return a, nil
}

func channelsFromConfig(in map[string]config.ChannelConfig) map[string]text.Channel {
	out := make(map[string]text.Channel, len(in))
	for login, ch := range in {
		out[stream.NormalizeLogin(login)] = text.Channel{
			DisplayName:   ch.DisplayName,
			PhotoLive:     ch.PhotoLive,
			PhotoOff:      ch.PhotoOff,
			PhotoBanned:   ch.PhotoBanned,
			PhotoUnbanned: ch.PhotoUnbanned,
		}
	}
	return out
}

func normalizeAll(logins []string) []string {
	out := make([]string, 0, len(logins))
	for _, l := range logins {
		out = append(out, stream.NormalizeLogin(l))
	}
	return out
}

// Run starts every component and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	updates := make(chan kit.Update, 64)
	if err := a.adapter.Start(ctx, updates); err != nil {
		return fmt.Errorf("adapter start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = a.adapter.Stop(stopCtx)
	}()

	var wg sync.WaitGroup

	if a.metricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := telemetry.Serve(ctx, a.metricsAddr, a.log); err != nil {
				a.log.Warn("metrics server failed", logx.Err(err))
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.cfgMgr.Watch(ctx); err != nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	cfgCh := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(cfgCh)
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.watchConfig(ctx, cfgCh)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.runner.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case up := <-updates:
				a.handleUpdate(ctx, up)
			}
		}
	}()

	if a.cron != nil {
		a.cron.Start()
		defer a.cron.Stop()
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("bot running",
		logx.Int("sources", len(a.sources)),
		logx.Duration("poll_interval", a.pollInterval))

	a.loop(ctx)

	if a.rec != nil {
		a.rec.StopAll()
	}
	wg.Wait()
	return nil
}

// watchConfig applies the reloadable subset of a published config:
// logging, channel presentation, and poll timings. Transport, storage,
// and platform credentials need a restart.
func (a *App) watchConfig(ctx context.Context, ch <-chan *config.Config) {
	last := a.cfgMgr.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok || cfg == nil {
				return
			}

			changed, attrs := config.SummarizeConfigChange(last, cfg)
			last = cfg
			a.log.Info("config reloaded", append([]logx.Field{logx.Any("sections", changed)}, attrs...)...)

			if a.logSvc != nil {
				a.logSvc.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File:    logx.FileConfig(cfg.Logging.File),
					Telegram: logx.TelegramConfig{
						Enabled:    cfg.Logging.Telegram.Enabled,
						MinLevel:   cfg.Logging.Telegram.MinLevel,
						RatePerSec: cfg.Logging.Telegram.RatePerSec,
					},
				})
			}

			pollInterval, err := config.ParseDurationOrDefault("poll.interval", cfg.Poll.Interval, 20*time.Second)
			if err != nil {
				a.log.Warn("bad poll.interval in reloaded config", logx.Err(err))
				continue
			}

			a.mu.Lock()
			a.pollInterval = pollInterval
			a.heartbeatURL = strings.TrimSpace(cfg.Poll.HeartbeatURL)
			a.formatter = text.NewFormatter(channelsFromConfig(cfg.Channels), text.Channel{})
			a.mu.Unlock()
		}
	}
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
