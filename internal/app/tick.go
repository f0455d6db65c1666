package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"streamnotify/internal/queue"
	"streamnotify/internal/storage"
	"streamnotify/internal/stream"
	"streamnotify/internal/telemetry"
	"streamnotify/internal/text"
	kit "streamnotify/internal/transport"
	logx "streamnotify/pkg/logx"
)

// loop polls until ctx is cancelled, kicking the systemd watchdog each
// round so a wedged tick gets the process restarted.
func (a *App) loop(ctx context.Context) {
	for {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)

		took := telemetry.TimeFunc(telemetry.TickDuration, func() { a.tick(ctx) })
		if telemetry.Ticks != nil {
			telemetry.Ticks.Inc()
		}
		a.log.Trace("tick finished", logx.Duration("took", took))

		if a.tickHook != nil {
			a.tickHook()
		}

		a.mu.Lock()
		interval := a.pollInterval
		a.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// tick runs one heartbeat-poll-reconcile-notify round. When any
// upstream poll fails the reconcile is skipped (a partial snapshot
// would fan out into bogus end notifications), but the heartbeat, disk
// check, and pin upkeep still run: an upstream outage must not silence
// the dead-man's switch.
func (a *App) tick(ctx context.Context) {
	a.mu.Lock()
	heartbeatURL := a.heartbeatURL
	a.mu.Unlock()

	if heartbeatURL != "" {
		a.queue.Enqueue(queue.KindHeartbeat, nil, 0)
	}

	if polled, ok := a.poll(ctx); ok {
		a.reconcile(ctx, polled)
	}

	if telemetry.QueueDepth != nil {
		telemetry.QueueDepth.Set(float64(a.queue.Len()))
	}
	if telemetry.TasksProcessed != nil {
		if p := a.queue.Processed(); p > a.lastProcessed {
			telemetry.TasksProcessed.Add(float64(p - a.lastProcessed))
			a.lastProcessed = p
		}
	}

	a.checkDisk(ctx)
	a.updatePins(ctx)
}

// poll fetches every platform. Any failed platform taints the whole
// round; the partial result must not reach the reconciler.
func (a *App) poll(ctx context.Context) ([]stream.Stream, bool) {
	polled := make([]stream.Stream, 0, 8)
	ok := true
	for _, src := range a.sources {
		ss, err := src.fetch(ctx, src.logins)
		if err != nil {
			ok = false
			telemetry.IncPollError(src.name)
			a.log.Warn("poll failed", logx.String("platform", src.name), logx.Err(err))
			continue
		}
		polled = append(polled, ss...)
	}
	return polled, ok
}

func (a *App) reconcile(ctx context.Context, polled []stream.Stream) {
	a.mu.Lock()
	prev := a.prev
	msgs := a.formatter
	a.mu.Unlock()

	var rs stream.RecordSet = stream.RecordNone{}
	if a.rec != nil {
		rs = a.recordSet
	}

	res := stream.Reconcile(prev, polled, rs, msgs)

	a.mu.Lock()
	a.prev = res.Next
	a.mu.Unlock()

	if telemetry.LiveChannels != nil {
		telemetry.LiveChannels.Set(float64(len(res.Next)))
	}

	if a.rec != nil {
		for _, s := range res.ToStart {
			if a.rec.Start(s.Platform.URL(s.LoginNormalized), s.LoginNormalized) && telemetry.RecorderStarts != nil {
				telemetry.RecorderStarts.Inc()
			}
		}
		for _, s := range res.ToStop {
			if a.rec.Stop(s.Platform.URL(s.LoginNormalized)) && telemetry.RecorderStops != nil {
				telemetry.RecorderStops.Inc()
			}
		}
	}

	notifs := res.Notifications
	notifs = append(notifs, a.checkBans(ctx)...)

	if len(notifs) > 0 {
		failed := a.dispatcher.Dispatch(ctx, a.chat, notifs)
		if telemetry.NotificationsSent != nil {
			telemetry.NotificationsSent.Add(float64(len(notifs) - failed))
		}
		if failed > 0 && telemetry.NotifyFailures != nil {
			telemetry.NotifyFailures.Add(float64(failed))
		}
	}
}

// checkDisk alerts while something is being captured; alerts go to the
// admin chat, not the broadcast chat.
func (a *App) checkDisk(ctx context.Context) {
	if a.disk == nil || len(a.rec.Active()) == 0 {
		return
	}
	dn := a.disk.Check()
	if len(dn) == 0 {
		return
	}
	if failed := a.dispatcher.Dispatch(ctx, a.admin, dn); failed > 0 && telemetry.NotifyFailures != nil {
		telemetry.NotifyFailures.Add(float64(failed))
	}
	if telemetry.DiskFreeGB != nil {
		if free, err := a.rec.FreeSpace(); err == nil {
			telemetry.DiskFreeGB.Set(free.AvailableGB)
		}
	}
}

// updatePins rewrites every stored pinned status message with the
// current snapshot. A rejected edit (deleted or inaccessible message)
// drops the stored reference so a fresh /get_pin can replace it.
func (a *App) updatePins(ctx context.Context) {
	if a.store == nil {
		return
	}

	a.mu.Lock()
	prev := a.prev
	msgs := a.formatter
	a.mu.Unlock()

	status := msgs.ShortStatus(prev)

	for _, chat := range a.pinChats() {
		key := storage.PinKey(chat.ChatID)
		raw, ok, err := a.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		msgID, err := strconv.Atoi(raw)
		if err != nil {
			a.log.Warn("dropping malformed pin ref", logx.String("key", key), logx.String("value", raw))
			_ = a.store.Delete(ctx, key)
			continue
		}

		ref := kit.MessageRef{ChatID: chat.ChatID, MessageID: msgID}
		if !a.pin.Update(ctx, ref, status) {
			_ = a.store.Delete(ctx, key)
		}
	}
}

func (a *App) pinChats() []kit.ChatTarget {
	if a.admin.ChatID == a.chat.ChatID {
		return []kit.ChatTarget{a.chat}
	}
	return []kit.ChatTarget{a.chat, a.admin}
}

// refreshPin finishes a /get_pin handshake: the placeholder message is
// rewritten with its own id and pinned when the transport supports it.
func (a *App) refreshPin(ctx context.Context) error {
	a.mu.Lock()
	ref := a.pendingPin
	a.pendingPin = nil
	a.mu.Unlock()

	if ref == nil {
		return nil
	}

	if err := a.adapter.EditText(ctx, *ref, text.PinReady(ref.MessageID), nil); err != nil {
		return fmt.Errorf("pin ready edit: %w", err)
	}

	type pinner interface {
		Pin(ctx context.Context, ref kit.MessageRef) error
	}
	if p, ok := a.adapter.(pinner); ok {
		if err := p.Pin(ctx, *ref); err != nil {
			a.log.Warn("pinning message failed", logx.Int64("chat", ref.ChatID), logx.Err(err))
		}
	}
	return nil
}

// heartbeat pings the external liveness URL enqueued at the top of
// every tick.
func (a *App) heartbeat(ctx context.Context) error {
	a.mu.Lock()
	url := a.heartbeatURL
	a.mu.Unlock()
	if url == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("heartbeat: unexpected status %s", resp.Status)
	}
	return nil
}
