// Package ingest watches an inbox directory for rate confirmations and feeds
// them through the processing queue.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fleet-tracker/internal/async"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Inbox moves each file into processed/ or failed/ once the queue is done with it.
type Inbox struct {
	dir    string
	cfg    common.IngestConfig
	queue  async.Queue
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewInbox builds an inbox whose queue runs proc on every accepted file.
func NewInbox(cfg common.IngestConfig, proc async.Processor, logger *slog.Logger) (*Inbox, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InboxDir == "" {
		return nil, common.NewKindError(common.CodeConfig, "INBOX_DIR is required", common.ErrInvalidInput, nil)
	}
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(cfg.InboxDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create inbox dir: %w", err)
		}
	}
	in := &Inbox{
		dir:      cfg.InboxDir,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		inflight: map[string]struct{}{},
	}
	in.queue = async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Workers),
		async.WithQueueSize(cfg.QueueSize),
		async.WithProcessTimeout(cfg.ProcessTimeout),
		async.WithResultHandler(in.settle),
	)
	return in, nil
}

// Run watches the inbox until ctx is done, then drains the queue.
func (in *Inbox) Run(ctx context.Context) error {
	paths, errs, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{in.dir},
		SkipDirs:    []string{ProcessedDir, FailedDir},
		InitialScan: in.cfg.InitialScan,
		Debounce:    in.cfg.Debounce,
		Logger:      in.logger,
	})
	if err != nil {
		return fmt.Errorf("start inbox watcher: %w", err)
	}
	in.logger.Info("inbox.started", "dir", in.dir, "workers", in.cfg.Workers)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), in.cfg.ProcessTimeout+5*time.Second)
		defer cancel()
		in.queue.Shutdown(shutdownCtx)
		in.logger.Info("inbox.stopped", "dir", in.dir)
	}()

	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return nil
			}
			in.submit(ctx, p)
		case err, ok := <-errs:
			if ok {
				in.logger.Warn("inbox.watch.error", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (in *Inbox) submit(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		// renamed or removed before we got to it
		return
	}
	in.mu.Lock()
	if _, busy := in.inflight[path]; busy {
		in.mu.Unlock()
		return
	}
	in.inflight[path] = struct{}{}
	in.mu.Unlock()

	job := async.Job{Path: path, SubmittedAt: in.now(), TraceID: uuid.NewString()}
	if err := in.queue.Enqueue(ctx, job); err != nil {
		in.release(path)
		if !errors.Is(err, context.Canceled) && !errors.Is(err, async.ErrClosed) {
			in.logger.Error("inbox.enqueue.failed", "path", path, "error", err)
		}
		return
	}
	in.logger.Debug("inbox.enqueued", "path", path, "trace_id", job.TraceID)
}

func (in *Inbox) release(path string) {
	in.mu.Lock()
	delete(in.inflight, path)
	in.mu.Unlock()
}

// settle files the document under processed/ or failed/.
func (in *Inbox) settle(job async.Job, procErr error) {
	defer in.release(job.Path)

	sub := ProcessedDir
	if procErr != nil {
		sub = FailedDir
	}
	dst, err := in.move(job.Path, sub)
	if err != nil {
		in.logger.Error("inbox.move.failed", "path", job.Path, "to", sub, "error", err)
		return
	}
	if procErr != nil {
		in.logger.Warn("inbox.file.failed",
			"path", job.Path,
			"moved_to", dst,
			"unreadable", common.IsDecodeError(procErr),
			"error", procErr,
		)
		return
	}
	in.logger.Info("inbox.file.processed", "path", job.Path, "moved_to", dst)
}

func (in *Inbox) move(path, sub string) (string, error) {
	dir := filepath.Join(in.dir, sub)
	base := filepath.Base(path)
	dst := filepath.Join(dir, base)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(base)
		stamp := in.now().UTC().Format("20060102T150405.000")
		dst = filepath.Join(dir, fmt.Sprintf("%s-%s%s", strings.TrimSuffix(base, ext), strings.ReplaceAll(stamp, ".", ""), ext))
	}
	if err := os.Rename(path, dst); err != nil {
		return "", err
	}
	return dst, nil
}
