// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic storage maintenance: pruning old page
// versions and logging usage so a filling disk shows up in the logs before
// it shows up as a failed save.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fucknotion/fucknotion-go/internal/storage"
)

// Scheduler handles periodic maintenance tasks.
type Scheduler struct {
	manager       *storage.Manager
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance. retentionDays controls how long
// page version snapshots are kept.
func New(manager *storage.Manager, retentionDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		manager:       manager,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start begins the scheduler with a daily cleanup job and an hourly
// storage usage report.
func (s *Scheduler) Start() error {
	// Daily at 03:30, when nobody is typing
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.cleanupVersions(); err != nil {
			s.logger.Error("failed to clean up old page versions", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("@hourly", func() {
		s.reportStorage()
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// cleanupVersions removes page version snapshots past the retention window.
func (s *Scheduler) cleanupVersions() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.manager.CleanupOldVersions(ctx, s.retentionDays)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("cleaned up old page versions",
			"removed", removed, "retention_days", s.retentionDays)
	}
	return nil
}

// reportStorage logs current storage usage, warning past 80 percent.
func (s *Scheduler) reportStorage() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := s.manager.StorageInfo(ctx)
	if err != nil {
		s.logger.Error("failed to read storage info", "error", err)
		return
	}

	attrs := []any{"pages", info.PageCount}
	if info.Usage != nil {
		attrs = append(attrs, "usage_bytes", *info.Usage)
	}
	if info.PercentUsed != nil {
		attrs = append(attrs, "percent_used", *info.PercentUsed)
		if *info.PercentUsed > 80 {
			s.logger.Warn("storage nearly full", attrs...)
			return
		}
	}
	s.logger.Info("storage usage", attrs...)
}
