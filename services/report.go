package services

import (
	"fmt"
	"sort"
	"strings"

	"icecat-sync/models"
	"icecat-sync/utils"
)

// ReportService aggregates per-item outcomes from every sync stage into a
// run summary.
type ReportService struct {
	logger *utils.Logger
}

// NewReportService creates a ReportService.
func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate folds outcome lists into a SyncReport.
func (s *ReportService) Generate(outcomes []models.Outcome) *models.SyncReport {
	report := &models.SyncReport{
		TotalByStage:   make(map[string]int),
		FailedByStage:  make(map[string]int),
		SkippedByStage: make(map[string]int),
	}

	for _, o := range outcomes {
		report.TotalByStage[o.Stage]++
		switch {
		case o.Err != nil:
			report.FailedByStage[o.Stage]++
			report.Failures = append(report.Failures, o)
		case o.Skipped:
			report.SkippedByStage[o.Stage]++
		}
	}

	return report
}

// Print writes a human-readable summary of the run to the log.
func (s *ReportService) Print(report *models.SyncReport) {
	s.logger.Info("=== Sync Report ===")

	stages := make([]string, 0, len(report.TotalByStage))
	for stage := range report.TotalByStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)

	for _, stage := range stages {
		s.logger.Info("  %-10s total: %-5d failed: %-5d skipped: %d",
			stage, report.TotalByStage[stage], report.FailedByStage[stage], report.SkippedByStage[stage])
	}

	if len(report.Failures) == 0 {
		s.logger.Info("  No failures.")
		return
	}

	s.logger.Warn("  %d item(s) failed:", len(report.Failures))
	for _, f := range report.Failures {
		s.logger.Warn("    %s", formatFailure(f))
	}
}

func formatFailure(o models.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %v", o.Stage, o.Key, o.Err)
	return b.String()
}
