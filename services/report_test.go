package services

import (
	"errors"
	"testing"

	"icecat-sync/models"
)

func TestReportGenerate(t *testing.T) {
	outcomes := []models.Outcome{
		{Stage: "fetch", Key: "1"},
		{Stage: "fetch", Key: "2", Skipped: true},
		{Stage: "fetch", Key: "3", Err: errors.New("timeout")},
		{Stage: "normalize", Key: "1"},
		{Stage: "normalize", Key: "3", Err: errors.New("not cached")},
	}

	report := NewReportService(newTestLogger()).Generate(outcomes)

	if report.TotalByStage["fetch"] != 3 || report.TotalByStage["normalize"] != 2 {
		t.Errorf("totals wrong: %+v", report.TotalByStage)
	}
	if report.FailedByStage["fetch"] != 1 || report.FailedByStage["normalize"] != 1 {
		t.Errorf("failure counts wrong: %+v", report.FailedByStage)
	}
	if report.SkippedByStage["fetch"] != 1 {
		t.Errorf("skip counts wrong: %+v", report.SkippedByStage)
	}
	if len(report.Failures) != 2 {
		t.Errorf("expected 2 failures listed, got %d", len(report.Failures))
	}
}

func TestReportGenerateEmpty(t *testing.T) {
	report := NewReportService(newTestLogger()).Generate(nil)
	if len(report.TotalByStage) != 0 || len(report.Failures) != 0 {
		t.Errorf("empty input produced non-empty report: %+v", report)
	}
}
