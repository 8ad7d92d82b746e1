package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"

	"github.com/braunma/netbox-topology/pkg/audit"
	"github.com/braunma/netbox-topology/pkg/topology"
)

// ReportStore persists audit reports in Badger
type ReportStore struct {
	store *badgerhold.Store
	log   logrus.FieldLogger
}

// OpenReportStore opens (or creates) the report database in dir
func OpenReportStore(dir string, logger logrus.FieldLogger) (*ReportStore, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	logger.WithField("path", dir).Debug("report database opened")
	return &ReportStore{store: store, log: logger}, nil
}

// Save stores a report under its ID
func (s *ReportStore) Save(ctx context.Context, report *audit.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if err := s.store.Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// Get loads one report
func (s *ReportStore) Get(ctx context.Context, id string) (*audit.Report, error) {
	var report audit.Report
	if err := s.store.Get(id, &report); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("report %s: %w", id, topology.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

// List returns the newest reports first; limit <= 0 returns all
func (s *ReportStore) List(ctx context.Context, limit int) ([]*audit.Report, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []audit.Report
	if err := s.store.Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	result := make([]*audit.Report, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// DeleteBefore removes reports created before t and returns how many were removed
func (s *ReportStore) DeleteBefore(ctx context.Context, t time.Time) (int, error) {
	query := badgerhold.Where("CreatedAt").Lt(t)
	count, err := s.store.Count(&audit.Report{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.store.DeleteMatching(&audit.Report{}, badgerhold.Where("CreatedAt").Lt(t)); err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	s.log.WithField("count", count).Debug("old reports deleted")
	return int(count), nil
}

// Close closes the database
func (s *ReportStore) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
