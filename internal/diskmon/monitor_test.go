package diskmon

import (
	"errors"
	"strings"
	"testing"
	"time"

	"streamnotify/internal/recorder"
	logx "streamnotify/pkg/logx"
)

type fakeSource struct {
	free   recorder.FreeSpace
	err    error
	active []recorder.Recording
}

func (f *fakeSource) FreeSpace() (recorder.FreeSpace, error) { return f.free, f.err }
func (f *fakeSource) Active() []recorder.Recording           { return f.active }

func newTestMonitor(src *fakeSource) (*Monitor, *time.Time) {
	m := New(Config{
		LowSpaceGB: 5,
		WarnRepeat: 30 * time.Minute,
		AlertAfter: 12 * time.Hour,
	}, src, logx.Nop())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestWarnSuppressionWindow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{free: recorder.FreeSpace{AvailableGB: 1.2}}
	m, now := newTestMonitor(src)

	// First low-space check notifies.
	if got := m.Check(); len(got) != 1 || !strings.Contains(got[0].Message, "LOW DISK SPACE") {
		t.Fatalf("first check = %+v", got)
	}

	// Second check inside the window stays silent.
	*now = now.Add(10 * time.Minute)
	if got := m.Check(); len(got) != 0 {
		t.Fatalf("suppressed check emitted %+v", got)
	}

	// After the window elapses it warns again.
	*now = now.Add(25 * time.Minute)
	if got := m.Check(); len(got) != 1 {
		t.Fatalf("post-window check = %+v", got)
	}
}

func TestErrorAlwaysNotifies(t *testing.T) {
	t.Parallel()
	src := &fakeSource{err: errors.New("statfs failed")}
	m, now := newTestMonitor(src)

	for i := 0; i < 3; i++ {
		got := m.Check()
		if len(got) != 1 || !strings.Contains(got[0].Message, "ERROR DISK SPACE") {
			t.Fatalf("check %d = %+v", i, got)
		}
		*now = now.Add(time.Minute)
	}
}

func TestOKHeartbeatWindow(t *testing.T) {
	t.Parallel()
	src := &fakeSource{free: recorder.FreeSpace{AvailableGB: 250}}
	m, now := newTestMonitor(src)

	if got := m.Check(); len(got) != 1 || !strings.Contains(got[0].Message, "Disk space state") {
		t.Fatalf("first ok check = %+v", got)
	}
	*now = now.Add(time.Hour)
	if got := m.Check(); len(got) != 0 {
		t.Fatalf("ok heartbeat not suppressed: %+v", got)
	}
	*now = now.Add(13 * time.Hour)
	if got := m.Check(); len(got) != 1 {
		t.Fatalf("ok heartbeat missing after window: %+v", got)
	}
}

func TestNotificationEmbedsActiveRecordings(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		free: recorder.FreeSpace{AvailableGB: 1},
		active: []recorder.Recording{
			{URL: "https://twitch.tv/a", StartedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	m, _ := newTestMonitor(src)

	got := m.Check()
	if len(got) != 1 || !strings.Contains(got[0].Message, "twitch") {
		t.Fatalf("recordings missing: %+v", got)
	}
}
