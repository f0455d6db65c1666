package app

import (
	"context"
	"fmt"
	"strings"

	"streamnotify/internal/text"
)

// digest sends the daily summary to the admin chat: who is live, what
// is recording, whether anyone is banned, and how busy the queue was.
func (a *App) digest(ctx context.Context) error {
	a.mu.Lock()
	prev := a.prev
	msgs := a.formatter
	a.mu.Unlock()

	var b strings.Builder
	b.WriteString("📊 *Daily digest*\n\n")
	b.WriteString(msgs.ShortStatus(prev))

	if a.rec != nil {
		b.WriteString("\n\n🎥 Recordings:\n")
		b.WriteString(text.RecordingList(a.rec.Active()))
	}

	if banned := a.bannedLogins(); len(banned) > 0 {
		b.WriteString("\n\n⛔️ Banned: ")
		b.WriteString(text.EscapeMarkdown(strings.Join(banned, ", ")))
	}

	b.WriteString(text.EscapeMarkdown(fmt.Sprintf("\n\nTasks processed since start: %d", a.queue.Processed())))

	_, err := a.adapter.SendText(ctx, a.admin, b.String(), mdOpt())
	return err
}
