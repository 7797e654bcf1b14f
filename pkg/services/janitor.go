package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/repositories"
)

// Janitor periodically removes placeholder records whose generation never
// finalized, for example when the process died mid-stream and the rollback
// was lost.
type Janitor struct {
	sopRepo  repositories.SOPRepository
	interval time.Duration
	grace    time.Duration
	logger   *zap.Logger
}

// NewJanitor creates a janitor sweeping on the given interval. Records with
// an empty body older than grace are deleted. A zero grace disables the
// sweep entirely.
func NewJanitor(sopRepo repositories.SOPRepository, interval, grace time.Duration, logger *zap.Logger) *Janitor {
	return &Janitor{
		sopRepo:  sopRepo,
		interval: interval,
		grace:    grace,
		logger:   logger.Named("janitor"),
	}
}

// Run sweeps until the context is cancelled. Call in a goroutine.
func (j *Janitor) Run(ctx context.Context) {
	if j.grace <= 0 {
		j.logger.Info("Orphan sweep disabled")
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs a single pass and returns the number of records removed.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	if j.grace <= 0 {
		return 0
	}

	cutoff := time.Now().Add(-j.grace)
	removed, err := j.sopRepo.DeleteOrphans(ctx, cutoff)
	if err != nil {
		j.logger.Error("Orphan sweep failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		j.logger.Info("Removed orphaned SOP records",
			zap.Int64("count", removed),
			zap.Time("cutoff", cutoff))
	}
	return removed
}
