package reporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/actionsum/focuswatch/internal/database"
	"github.com/actionsum/focuswatch/internal/models"
	"github.com/actionsum/focuswatch/pkg/utils"

	"github.com/bytedance/sonic"
)

// Reporter builds per-app focus reports from the heartbeat journal
type Reporter struct {
	repo *database.Repository
	now  func() time.Time
}

// New creates a new reporter
func New(repo *database.Repository) *Reporter {
	return &Reporter{
		repo: repo,
		now:  time.Now,
	}
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := getPeriod(periodType, r.now())
	if err != nil {
		return nil, err
	}

	summaries, err := r.repo.GetAppSummarySince(period.Start)
	if err != nil {
		return nil, fmt.Errorf("failed to get app summary: %w", err)
	}

	var totalSeconds int64
	for i := range summaries {
		summaries[i].TotalMinutes = float64(summaries[i].TotalSeconds) / 60.0
		summaries[i].TotalHours = float64(summaries[i].TotalSeconds) / 3600.0
		totalSeconds += summaries[i].TotalSeconds
	}

	if totalSeconds > 0 {
		for i := range summaries {
			summaries[i].Percentage = (float64(summaries[i].TotalSeconds) / float64(totalSeconds)) * 100.0
		}
	}

	return &models.Report{
		Period:       *period,
		Apps:         summaries,
		TotalSeconds: totalSeconds,
		TotalMinutes: float64(totalSeconds) / 60.0,
		TotalHours:   float64(totalSeconds) / 3600.0,
		GeneratedAt:  r.now(),
	}, nil
}

// getPeriod calculates the time range for the report
func getPeriod(periodType string, now time.Time) (*models.ReportPeriod, error) {
	var start, end time.Time
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch periodType {
	case "day", "today":
		start = midnight
		end = start.AddDate(0, 0, 1)

	case "week":
		// weeks start on Monday
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = midnight.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Focus Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Time: %s\n\n", utils.FormatRoundedUnit(time.Duration(report.TotalSeconds)*time.Second))

	if len(report.Apps) == 0 {
		b.WriteString("No focus time recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %10s %10s %10s\n", "Application", "Time", "Intervals", "Percent")
	b.WriteString(strings.Repeat("-", 64) + "\n")

	for _, app := range report.Apps {
		fmt.Fprintf(&b, "%-30s %10s %10d %9.1f%%\n",
			truncate(app.AppName, 30),
			utils.FormatRoundedUnit(time.Duration(app.TotalSeconds)*time.Second),
			app.EventCount,
			app.Percentage)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
