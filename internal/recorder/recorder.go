// Package recorder spawns and tracks streamlink capture processes.
package recorder

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	logx "streamnotify/pkg/logx"
)

// Recording is one active capture process.
type Recording struct {
	URL       string
	StartedAt time.Time

	cmd *exec.Cmd
}

// FreeSpace is the filesystem headroom under the output directory.
type FreeSpace struct {
	AvailableGB float64
	TotalGB     float64
}

// Recorder starts one streamlink process per stream URL and refuses to
// start new captures when the disk is nearly full.
type Recorder struct {
	mu     sync.Mutex
	active []Recording

	outDir    string
	minFreeGB float64
	log       logx.Logger
	freeSpace func(path string) (FreeSpace, error)
	startProc func(url, filename string) (*exec.Cmd, error)
}

type Config struct {
	OutDir    string
	MinFreeGB float64
}

func New(cfg Config, log logx.Logger) *Recorder {
	if cfg.OutDir == "" {
		cfg.OutDir = "./out"
	}
	if cfg.MinFreeGB <= 0 {
		cfg.MinFreeGB = 2
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{
		outDir:    cfg.OutDir,
		minFreeGB: cfg.MinFreeGB,
		log:       log,
		freeSpace: statFreeSpace,
		startProc: startStreamlink,
	}
}

// Start begins capturing url into a timestamped file. It reports false
// (not an error) when a capture is already running for the url or the
// disk is too full, mirroring the best-effort contract of the recorder.
func (r *Recorder) Start(url, label string) bool {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		r.log.Error("recorder: cannot create output dir", logx.String("dir", r.outDir), logx.Err(err))
		return false
	}

	free, err := r.freeSpace(r.outDir)
	if err != nil {
		r.log.Error("recorder: free space query failed", logx.Err(err))
		return false
	}
	if free.AvailableGB < r.minFreeGB {
		r.log.Warn("recorder: not enough free space",
			logx.Float64("available_gb", free.AvailableGB),
			logx.Float64("min_gb", r.minFreeGB))
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.active {
		if rec.URL == url {
			r.log.Warn("recorder: already in progress",
				logx.String("url", url),
				logx.Time("started", rec.StartedAt))
			return false
		}
	}

	filename := fmt.Sprintf("%s/%s-%s.mkv", r.outDir, time.Now().Format("2006-01-02_15-04-05"), label)
	cmd, err := r.startProc(url, filename)
	if err != nil {
		r.log.Error("recorder: start failed", logx.String("url", url), logx.Err(err))
		return false
	}

	r.active = append(r.active, Recording{URL: url, StartedAt: time.Now(), cmd: cmd})
	r.log.Info("recorder: started",
		logx.String("url", url),
		logx.String("file", filename),
		logx.Float64("free_gb", free.AvailableGB))
	return true
}

// Stop kills the capture for url. Reports false when nothing was running.
func (r *Recorder) Stop(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, rec := range r.active {
		if rec.URL != url {
			continue
		}
		ok := r.kill(rec)
		r.active = append(r.active[:i], r.active[i+1:]...)
		return ok
	}
	r.log.Info("recorder: nothing to stop", logx.String("url", url))
	return false
}

// StopAll kills every active capture. Used on shutdown.
func (r *Recorder) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.active {
		r.kill(rec)
	}
	r.active = nil
}

// Active returns a copy of the current recordings.
func (r *Recorder) Active() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, len(r.active))
	copy(out, r.active)
	return out
}

// FreeSpace reports disk headroom under the output directory.
func (r *Recorder) FreeSpace() (FreeSpace, error) {
	return r.freeSpace(r.outDir)
}

func (r *Recorder) kill(rec Recording) bool {
	if rec.cmd == nil || rec.cmd.Process == nil {
		return false
	}
	err := rec.cmd.Process.Kill()
	if err != nil {
		r.log.Warn("recorder: stop failed", logx.String("url", rec.URL), logx.Err(err))
		return false
	}
	r.log.Info("recorder: stopped", logx.String("url", rec.URL))
	return true
}

func startStreamlink(url, filename string) (*exec.Cmd, error) {
	cmd := exec.Command("streamlink", url, "best", "-o", filename)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	// Reap the child when it exits on its own.
	go func() { _ = cmd.Wait() }()
	return cmd, nil
}
