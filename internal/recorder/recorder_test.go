package recorder

import (
	"errors"
	"os/exec"
	"testing"

	logx "streamnotify/pkg/logx"
)

func newTestRecorder(t *testing.T, availableGB float64) *Recorder {
	t.Helper()
	r := New(Config{OutDir: t.TempDir(), MinFreeGB: 2}, logx.Nop())
	r.freeSpace = func(string) (FreeSpace, error) {
		return FreeSpace{AvailableGB: availableGB, TotalGB: 100}, nil
	}
	// The command is never started; only bookkeeping is under test.
	r.startProc = func(url, filename string) (*exec.Cmd, error) {
		return exec.Command("streamlink", url, "best", "-o", filename), nil
	}
	return r
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 50)

	if !r.Start("https://twitch.tv/streamera", "streamera") {
		t.Fatal("Start should succeed with plenty of space")
	}
	if got := r.Active(); len(got) != 1 || got[0].URL != "https://twitch.tv/streamera" {
		t.Fatalf("Active = %+v", got)
	}

	r.Stop("https://twitch.tv/streamera")
	if got := r.Active(); len(got) != 0 {
		t.Fatalf("Active after stop = %+v", got)
	}
}

func TestStartRefusesDuplicate(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 50)

	if !r.Start("https://twitch.tv/streamera", "streamera") {
		t.Fatal("first Start should succeed")
	}
	if r.Start("https://twitch.tv/streamera", "streamera") {
		t.Fatal("second Start for the same url must be refused")
	}
	if got := r.Active(); len(got) != 1 {
		t.Fatalf("Active = %+v", got)
	}
}

func TestStartRefusesWhenLowSpace(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 1)

	if r.Start("https://twitch.tv/streamera", "streamera") {
		t.Fatal("Start must refuse when below the free-space floor")
	}
	if got := r.Active(); len(got) != 0 {
		t.Fatalf("Active = %+v", got)
	}
}

func TestStartRefusesOnSpaceQueryError(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 50)
	r.freeSpace = func(string) (FreeSpace, error) {
		return FreeSpace{}, errors.New("statfs failed")
	}

	if r.Start("https://twitch.tv/streamera", "streamera") {
		t.Fatal("Start must refuse when free space is unknown")
	}
}

func TestStopAll(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 50)
	r.Start("https://twitch.tv/a", "a")
	r.Start("https://twitch.tv/b", "b")

	r.StopAll()
	if got := r.Active(); len(got) != 0 {
		t.Fatalf("Active after StopAll = %+v", got)
	}
}

func TestStopUnknownURL(t *testing.T) {
	t.Parallel()
	r := newTestRecorder(t, 50)
	if r.Stop("https://twitch.tv/nobody") {
		t.Fatal("Stop of unknown url should report false")
	}
}
