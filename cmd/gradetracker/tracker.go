package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mind-engage/gradetracker/internal/config"
	"github.com/mind-engage/gradetracker/internal/db"
	"github.com/mind-engage/gradetracker/internal/grading"
	"github.com/mind-engage/gradetracker/internal/storage"
	syncx "github.com/mind-engage/gradetracker/internal/sync"
	"github.com/mind-engage/gradetracker/pkg/gradebook"
	"github.com/mind-engage/gradetracker/pkg/gradebook/leaphttp"
	"github.com/mind-engage/gradetracker/pkg/gradebook/sqlstore"
)

// tracker bundles the database, scale table and syncer a command works with.
type tracker struct {
	db     *sql.DB
	store  *sqlstore.Store
	scales *grading.Table
	syncer *gradebook.Syncer
	// reports is nil unless a report directory is configured.
	reports storage.ReportStore
}

func openTracker(ctx context.Context, cfg config.Config) (*tracker, error) {
	scales, err := config.LoadScales(cfg.CalibrationFile)
	if err != nil {
		return nil, err
	}
	drv, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, drv, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	store := sqlstore.New(conn, cfg.EnrolMethods...)
	scores := leaphttp.New(leaphttp.Config{
		URLTemplate: cfg.TrackerAPI,
		Token:       cfg.TrackerToken,
		Timeout:     cfg.TrackerTimeout,
	})
	syncer := gradebook.New(store, scores, store, scales,
		gradebook.WithLogger(slog.Default()),
		gradebook.WithAudit(syncx.NewEventRepo(conn)),
		gradebook.WithCategory(cfg.Category),
		gradebook.WithPattern(cfg.IDNumberLike),
	)
	t := &tracker{db: conn, store: store, scales: scales, syncer: syncer}
	if cfg.ReportDir != "" {
		fs, err := storage.NewFSStore(cfg.ReportDir)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		t.reports = fs
	}
	return t, nil
}

// archive stores the summary as JSON when reports are enabled.
func (t *tracker) archive(ctx context.Context, sum *gradebook.Summary) (string, error) {
	if t.reports == nil || sum == nil {
		return "", nil
	}
	b, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return t.reports.Put(ctx, storage.ReportKey(sum.Started.Format("2006-01-02"), sum.RunID), bytes.NewReader(b))
}

func (t *tracker) Close() error {
	if t == nil || t.db == nil {
		return nil
	}
	return t.db.Close()
}
