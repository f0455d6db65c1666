package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"streamnotify/internal/queue"
	"streamnotify/internal/storage"
	"streamnotify/internal/text"
	kit "streamnotify/internal/transport"
	logx "streamnotify/pkg/logx"
)

// handleUpdate routes incoming chat commands. Only the configured chats
// are listened to; anything else is dropped silently.
func (a *App) handleUpdate(ctx context.Context, up kit.Update) {
	if up.Kind != kit.UpdateMessage || up.Message == nil {
		return
	}
	m := up.Message
	if m.ChatID != a.chat.ChatID && m.ChatID != a.admin.ChatID {
		return
	}

	cmd := commandName(m.Text)
	if cmd == "" {
		return
	}
	a.log.Debug("command received",
		logx.String("cmd", cmd),
		logx.Int64("chat", m.ChatID),
		logx.String("from", m.FromUsername))

	switch cmd {
	case "/get_pin":
		a.cmdGetPin(ctx, kit.ChatTarget{ChatID: m.ChatID})
	case "/pin_force":
		a.cmdPinForce(ctx, kit.ChatTarget{ChatID: m.ChatID})
	case "/get_re":
		a.cmdRecordings(ctx, kit.ChatTarget{ChatID: m.ChatID})
	case "/status":
		a.cmdStatus(ctx, kit.ChatTarget{ChatID: m.ChatID})
	}
}

// commandName extracts "/cmd" from a message, tolerating the
// "@botname" suffix Telegram appends in groups.
func commandName(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "/") {
		return ""
	}
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// cmdGetPin posts a placeholder message, remembers its id, and defers
// the "ready" rewrite so the message id is visible before the first
// status edit lands.
func (a *App) cmdGetPin(ctx context.Context, to kit.ChatTarget) {
	ref, err := a.adapter.SendText(ctx, to, text.PinLoading(), nil)
	if err != nil {
		a.log.Warn("pin placeholder send failed", logx.Int64("chat", to.ChatID), logx.Err(err))
		return
	}

	if a.store != nil {
		if err := a.store.Set(ctx, storage.PinKey(to.ChatID), strconv.Itoa(ref.MessageID)); err != nil {
			a.log.Warn("pin ref save failed", logx.Int64("chat", to.ChatID), logx.Err(err))
		}
	}

	a.mu.Lock()
	a.pendingPin = &ref
	a.mu.Unlock()
	a.queue.Enqueue(queue.KindPinRefresh, nil, 2*time.Second)
}

// cmdPinForce rewrites the stored pin immediately instead of waiting
// for the next tick.
func (a *App) cmdPinForce(ctx context.Context, to kit.ChatTarget) {
	if a.store == nil {
		_, _ = a.adapter.SendText(ctx, to, text.EscapeMarkdown("Storage is disabled; no pin to update"), mdOpt())
		return
	}

	raw, ok, err := a.store.Get(ctx, storage.PinKey(to.ChatID))
	if err != nil || !ok {
		_, _ = a.adapter.SendText(ctx, to, text.EscapeMarkdown("No pinned message; use /get_pin first"), mdOpt())
		return
	}
	msgID, err := strconv.Atoi(raw)
	if err != nil {
		_ = a.store.Delete(ctx, storage.PinKey(to.ChatID))
		return
	}

	a.mu.Lock()
	prev := a.prev
	msgs := a.formatter
	a.mu.Unlock()

	ref := kit.MessageRef{ChatID: to.ChatID, MessageID: msgID}
	if a.pin.Update(ctx, ref, msgs.ShortStatus(prev)) {
		_, _ = a.adapter.SendText(ctx, to, text.PinForced(), mdOpt())
	} else {
		_ = a.store.Delete(ctx, storage.PinKey(to.ChatID))
	}
}

func (a *App) cmdRecordings(ctx context.Context, to kit.ChatTarget) {
	if a.rec == nil {
		_, _ = a.adapter.SendText(ctx, to, text.EscapeMarkdown("Recorder is disabled"), mdOpt())
		return
	}
	_, _ = a.adapter.SendText(ctx, to, text.RecordingList(a.rec.Active()), mdOpt())
}

func (a *App) cmdStatus(ctx context.Context, to kit.ChatTarget) {
	a.mu.Lock()
	prev := a.prev
	msgs := a.formatter
	a.mu.Unlock()

	_, _ = a.adapter.SendText(ctx, to, msgs.ShortStatus(prev), mdOpt())
}

func mdOpt() *kit.SendOptions {
	return &kit.SendOptions{ParseMode: "MarkdownV2", DisablePreview: true}
}
