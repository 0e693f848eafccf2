// Package recovery brings the history engine to a usable state on startup
// and after a restart signal, falling back to the backup snapshot when the
// primary collection yields nothing.
package recovery

import (
	"context"
	"log/slog"

	"github.com/yiblet/clipq/internal/metrics"
)

// Engine is the part of queue.Engine the sequencer drives.
type Engine interface {
	Reset()
	LoadFromStore(ctx context.Context) error
	RestoreFromBackupIfEmpty(ctx context.Context) (bool, error)
	PersistQueue(ctx context.Context)
	Len() int
	PublishCount()
}

// Report describes where the queue contents came from.
type Report struct {
	Source string // metrics.SourcePrimary, SourceBackup or SourceEmpty
	Count  int
}

// Sequencer runs the load / restore sequence.
type Sequencer struct {
	engine Engine
	logger *slog.Logger
}

// New creates a sequencer. A nil logger uses slog.Default().
func New(engine Engine, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{engine: engine, logger: logger}
}

// Start loads the primary collection and, if that leaves the queue empty,
// restores from the backup. Read failures are logged and never returned: an
// unreadable store yields an empty queue.
func (s *Sequencer) Start(ctx context.Context) Report {
	return s.run(ctx, "start")
}

// Restart drops the engine's in-memory state and repeats the startup
// sequence, as if the process had been restarted. A failed primary load
// falls through to the backup.
func (s *Sequencer) Restart(ctx context.Context) Report {
	s.engine.Reset()
	return s.run(ctx, "restart")
}

func (s *Sequencer) run(ctx context.Context, phase string) Report {
	report := Report{Source: metrics.SourceEmpty}

	if err := s.engine.LoadFromStore(ctx); err != nil {
		s.logger.Warn("primary history unreadable", "phase", phase, "error", err)
	} else if n := s.engine.Len(); n > 0 {
		report = Report{Source: metrics.SourcePrimary, Count: n}
	}

	if report.Count == 0 {
		restored, err := s.engine.RestoreFromBackupIfEmpty(ctx)
		switch {
		case err != nil:
			s.logger.Warn("backup unreadable, starting empty", "phase", phase, "error", err)
		case restored:
			report = Report{Source: metrics.SourceBackup, Count: s.engine.Len()}
			// the primary only gets read back while it is empty
			s.engine.PersistQueue(ctx)
		}
	}

	metrics.Restores.WithLabelValues(report.Source).Inc()
	s.engine.PublishCount()
	s.logger.Info("history ready", "phase", phase, "source", report.Source, "entries", report.Count)
	return report
}
