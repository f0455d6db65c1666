// Package diskmon watches recording disk headroom and raises chat
// notifications with per-severity repeat suppression.
package diskmon

import (
	"time"

	"streamnotify/internal/recorder"
	"streamnotify/internal/stream"
	"streamnotify/internal/text"
	logx "streamnotify/pkg/logx"
)

// Source is the slice of the recorder the monitor needs.
type Source interface {
	FreeSpace() (recorder.FreeSpace, error)
	Active() []recorder.Recording
}

type Config struct {
	// LowSpaceGB is the free-space floor below which WARN fires.
	LowSpaceGB float64
	// WarnRepeat is the minimum gap between two WARN notifications.
	WarnRepeat time.Duration
	// AlertAfter is the minimum gap between two OK heartbeat notifications.
	AlertAfter time.Duration
}

// Monitor tracks when each severity class last notified. It is touched
// only from the tick loop, so it carries no locking.
type Monitor struct {
	cfg Config
	src Source
	log logx.Logger

	lastWarn time.Time
	lastOK   time.Time

	now func() time.Time
}

func New(cfg Config, src Source, log logx.Logger) *Monitor {
	if cfg.LowSpaceGB <= 0 {
		cfg.LowSpaceGB = 5
	}
	if cfg.WarnRepeat <= 0 {
		cfg.WarnRepeat = 30 * time.Minute
	}
	if cfg.AlertAfter <= 0 {
		cfg.AlertAfter = 12 * time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Monitor{cfg: cfg, src: src, log: log, now: time.Now}
}

// Check queries free space and returns at most one notification.
//
// A failed query is always surfaced: it means the monitoring itself is
// broken, so it bypasses every suppression window.
func (m *Monitor) Check() []stream.Notification {
	now := m.now()
	active := m.src.Active()

	free, err := m.src.FreeSpace()
	if err != nil {
		m.log.Error("disk space query failed", logx.Err(err))
		return []stream.Notification{{
			Message: text.DiskState(text.DiskError, 0, active),
			Trigger: "disk query error: " + err.Error(),
		}}
	}

	if free.AvailableGB < m.cfg.LowSpaceGB {
		if now.Sub(m.lastWarn) < m.cfg.WarnRepeat {
			return nil
		}
		m.lastWarn = now
		m.log.Warn("low disk space",
			logx.Float64("available_gb", free.AvailableGB),
			logx.Float64("floor_gb", m.cfg.LowSpaceGB))
		return []stream.Notification{{
			Message: text.DiskState(text.DiskWarn, free.AvailableGB, active),
			Trigger: "low disk space",
		}}
	}

	if now.Sub(m.lastOK) < m.cfg.AlertAfter {
		return nil
	}
	m.lastOK = now
	return []stream.Notification{{
		Message: text.DiskState(text.DiskOK, free.AvailableGB, active),
		Trigger: "disk state ok",
	}}
}
