package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"streamnotify/internal/app"
	"streamnotify/internal/config"
	"streamnotify/internal/text"
	kit "streamnotify/internal/transport"
	telegramadapter "streamnotify/internal/transport/telegram"
	logx "streamnotify/pkg/logx"
)

func main() {
	// .env is optional; real deployments set env through systemd.
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" && cfg.Telegram.Token == "" {
		cfg.Telegram.Token = token
		mgr.Commit(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	mgr.SetValidator(func(_ context.Context, c *config.Config) error {
		return config.Validate(c)
	})

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return err
	}
	adapter, err := telegramadapter.New(telegramadapter.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File:    logx.FileConfig(cfg.Logging.File),
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}, adapter)
	defer logSvc.Close()

	adminChat := cfg.Telegram.AdminChatID
	if adminChat == 0 {
		adminChat = cfg.Telegram.ChatID
	}
	logSvc.SetTelegramTarget(adminChat)
	mgr.SetLogger(log.With(logx.String("comp", "config")))

	bot, err := app.New(mgr, adapter, logSvc, log)
	if err != nil {
		return err
	}
	defer bot.Close()

	err = bot.Run(ctx)
	if err != nil && ctx.Err() == nil {
		// The loop died on its own; tell the operator before exiting.
		notifyCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = adapter.SendText(notifyCtx,
			kit.ChatTarget{ChatID: adminChat},
			text.BeforeCrash(), nil)
	}
	return err
}
