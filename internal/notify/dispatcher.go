// Package notify delivers reconciliation output to the messaging platform.
package notify

import (
	"context"
	"time"

	"streamnotify/internal/stream"
	kit "streamnotify/internal/transport"
	logx "streamnotify/pkg/logx"
)

var mdOptions = &kit.SendOptions{ParseMode: "MarkdownV2", DisablePreview: true}

// Dispatcher sends notification batches strictly in order, pausing a fixed
// delay after each send as rate-limit courtesy. Failures are logged and do
// not abort the remaining batch; there is no retry.
type Dispatcher struct {
	adapter kit.Adapter
	delay   time.Duration
	log     logx.Logger

	sleep func(ctx context.Context, d time.Duration)
}

func NewDispatcher(adapter kit.Adapter, delay time.Duration, log logx.Logger) *Dispatcher {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{adapter: adapter, delay: delay, log: log, sleep: sleepCtx}
}

// Dispatch sends every notification to the chat and reports how many
// sends failed. A notification with a photo goes out as an image with
// caption, otherwise as a text message.
func (d *Dispatcher) Dispatch(ctx context.Context, to kit.ChatTarget, batch []stream.Notification) int {
	failed := 0
	for i, n := range batch {
		var err error
		if n.Photo != "" {
			_, err = d.adapter.SendPhoto(ctx, to, n.Photo, n.Message, mdOptions)
		} else {
			_, err = d.adapter.SendText(ctx, to, n.Message, mdOptions)
		}
		if err != nil {
			failed++
			d.log.Warn("notification send failed",
				logx.Int64("chat", to.ChatID),
				logx.String("trigger", n.Trigger),
				logx.Err(err))
		} else {
			d.log.Info("notification sent",
				logx.Int64("chat", to.ChatID),
				logx.String("trigger", n.Trigger))
		}

		if i < len(batch)-1 {
			d.sleep(ctx, d.delay)
		}
		if ctx.Err() != nil {
			return failed
		}
	}
	return failed
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
