package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
)

// ParseExportParams validates form or query values into ExportParams. An
// empty date means today.
func ParseExportParams(rng, format, date string, now time.Time) (models.ExportParams, error) {
	p := models.ExportParams{
		Range:  models.ExportRange(strings.ToLower(rng)),
		Format: models.ExportFormat(strings.ToLower(format)),
		Date:   now,
	}
	if p.Range == "" {
		p.Range = models.ExportDaily
	}
	if date != "" {
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			return models.ExportParams{}, models.NewValidationError(fmt.Sprintf("date must be formatted YYYY-MM-DD: %s", date))
		}
		p.Date = d
	}
	return p, validateExport(p)
}

func validateExport(p models.ExportParams) error {
	switch p.Range {
	case models.ExportDaily, models.ExportWeekly, models.ExportMonthly:
	default:
		return models.NewValidationError(fmt.Sprintf("unknown export range: %s", p.Range))
	}
	switch p.Format {
	case models.ExportExcel, models.ExportPDF:
	default:
		return models.NewValidationError(fmt.Sprintf("unknown export format: %s", p.Format))
	}
	return nil
}

// Export prepares an attendance report and returns the confirmation message.
// No file is produced.
func (b *Backend) Export(ctx context.Context, p models.ExportParams) (string, error) {
	defer logutil.NewTimingLogger(b.log, time.Now(), "export", "range", p.Range, "format", p.Format)()

	if err := validateExport(p); err != nil {
		return "", err
	}
	if p.Date.IsZero() {
		p.Date = b.now()
	}
	if err := sleepCtx(ctx, b.latency); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	format := strings.ToUpper(string(p.Format))
	date := p.Date.Format(DateLayout)

	switch p.Range {
	case models.ExportWeekly:
		return fmt.Sprintf("Weekly %s report including %s exported successfully", format, date), nil
	case models.ExportMonthly:
		return fmt.Sprintf("Monthly %s report for %s exported successfully", format, p.Date.Month()), nil
	default:
		return fmt.Sprintf("%s report for %s exported successfully", format, date), nil
	}
}
