package submission

import (
	"context"
	"log/slog"

	"RecordSync/internal/converter"
	"RecordSync/internal/domain"
	"RecordSync/internal/ports"
)

// DryRunDriver logs what a browser driver would type instead of typing it.
type DryRunDriver struct {
	logger *slog.Logger
}

var _ ports.SubmissionDriver = (*DryRunDriver)(nil)

// NewDryRunDriver builds the driver.
func NewDryRunDriver(logger *slog.Logger) *DryRunDriver {
	return &DryRunDriver{logger: logger}
}

// Submit records the entry in the log.
func (d *DryRunDriver) Submit(ctx context.Context, rec domain.SubmissionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.logger != nil {
		d.logger.Info("dry run entry",
			"date", rec.Date,
			"owner_id", rec.OwnerID,
			"individual", converter.IndividualSearchTerm(rec.IndividualID),
			"code", rec.ClassificationCode,
			"label", rec.ClassificationCode.Label(),
			"content_id", rec.ContentID,
			"quantity", rec.Quantity,
			"price", rec.Price,
			"insemination_date_picker", rec.RequiresAuxiliarySelection)
	}
	return nil
}
