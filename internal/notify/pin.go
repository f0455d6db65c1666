package notify

import (
	"context"
	"errors"

	kit "streamnotify/internal/transport"
	logx "streamnotify/pkg/logx"
)

// PinUpdater edits the pinned status message in place.
type PinUpdater struct {
	adapter kit.Adapter
	log     logx.Logger
}

func NewPinUpdater(adapter kit.Adapter, log logx.Logger) *PinUpdater {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &PinUpdater{adapter: adapter, log: log}
}

// Update edits ref to carry newText. An "unchanged content" rejection from
// the platform counts as success: the status simply has not moved since the
// last edit. Any other failure is logged and reported false so the caller
// can drop the stored message reference.
func (p *PinUpdater) Update(ctx context.Context, ref kit.MessageRef, newText string) bool {
	err := p.adapter.EditText(ctx, ref, newText, mdOptions)
	if err == nil {
		p.log.Debug("pin updated", logx.Int64("chat", ref.ChatID), logx.Int("msg", ref.MessageID))
		return true
	}
	if errors.Is(err, kit.ErrNotModified) {
		p.log.Debug("pin unchanged", logx.Int64("chat", ref.ChatID), logx.Int("msg", ref.MessageID))
		return true
	}

	p.log.Warn("pin update failed",
		logx.Int64("chat", ref.ChatID),
		logx.Int("msg", ref.MessageID),
		logx.Err(err))
	return false
}
