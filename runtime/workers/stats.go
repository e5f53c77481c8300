package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// SessionCounter is the one registry fact the stats worker reports.
type SessionCounter interface {
	Count() int
}

// ServerStatsWorker periodically logs the server's own process metrics
// (CPU, RSS) together with the live session count.
type ServerStatsWorker struct {
	log      *slog.Logger
	sessions SessionCounter
	interval time.Duration
}

func NewServerStatsWorker(log *slog.Logger, sessions SessionCounter, interval time.Duration) *ServerStatsWorker {
	return &ServerStatsWorker{log: log, sessions: sessions, interval: interval}
}

func (w *ServerStatsWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping stats worker")
			return nil
		case <-ticker.C:
			cpu, err := p.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			mem, err := p.MemoryInfo()
			if err != nil {
				w.log.Error("Error while finding process memory usage", "err", err)
				continue
			}
			w.log.Info("Server stats",
				"sessions", w.sessions.Count(),
				"cpu_percent", cpu,
				"rss_bytes", mem.RSS)
		}
	}
}
