package server

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/braunma/netbox-topology/internal/config"
	"github.com/braunma/netbox-topology/pkg/audit"
	"github.com/braunma/netbox-topology/pkg/client"
	"github.com/braunma/netbox-topology/pkg/store"
	"github.com/braunma/netbox-topology/pkg/topology"
	"github.com/braunma/netbox-topology/pkg/utils"
)

// jobTimeout bounds one scheduled run
const jobTimeout = 10 * time.Minute

// Jobs are the periodic tasks of the service
type Jobs struct {
	cfg     *config.Config
	engine  *topology.Engine
	auditor *audit.Auditor
	reports *store.ReportStore
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewJobs(cfg *config.Config, engine *topology.Engine, auditor *audit.Auditor, reports *store.ReportStore, logger logrus.FieldLogger) *Jobs {
	return &Jobs{
		cfg:     cfg,
		engine:  engine,
		auditor: auditor,
		reports: reports,
		log:     logger.WithField("component", "jobs"),
		now:     time.Now,
	}
}

// Audit audits the configured source and stores the report
func (j *Jobs) Audit(ctx context.Context) (*audit.Report, error) {
	var report *audit.Report
	switch j.cfg.Audit.Source {
	case "netbox":
		if err := j.cfg.RequireNetBox(); err != nil {
			return nil, err
		}
		c := client.NewClient(j.cfg.NetBox.URL, j.cfg.NetBox.Token, client.Options{
			Timeout:  j.cfg.NetBox.Timeout,
			Insecure: j.cfg.NetBox.Insecure,
			PageSize: j.cfg.NetBox.PageSize,
		}, utils.NewLogger(false))
		inv, err := c.FetchInventory(ctx, j.cfg.Audit.Site)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch inventory: %w", err)
		}
		report = j.auditor.Run(inv, "netbox")
	case "store":
		err := j.engine.Snapshot(ctx, func(inv *topology.Inventory) error {
			report = j.auditor.Run(inv, "store")
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown audit source %q", j.cfg.Audit.Source)
	}

	if err := j.reports.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ScheduledAudit is the cron entry for Audit
func (j *Jobs) ScheduledAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := j.Audit(ctx)
	if err != nil {
		j.log.WithError(err).Error("scheduled audit failed")
		return
	}
	entry := j.log.WithFields(logrus.Fields{"report": report.ID, "findings": len(report.Findings)})
	if report.Valid() {
		entry.Info("scheduled audit passed")
	} else {
		entry.Warn("scheduled audit found violations")
	}
}

// PruneReports deletes reports older than the retention period
func (j *Jobs) PruneReports() {
	if j.cfg.Reports.Retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.reports.DeleteBefore(ctx, j.now().Add(-j.cfg.Reports.Retention))
	if err != nil {
		j.log.WithError(err).Error("report retention failed")
		return
	}
	if n > 0 {
		j.log.WithField("deleted", n).Info("old reports pruned")
	}
}
