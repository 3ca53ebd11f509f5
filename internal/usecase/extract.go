package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/livestock"
)

// ExtractSources names the saved grid pages of one date. Empty paths are skipped.
type ExtractSources struct {
	Breeding  string
	Pregnancy string
}

// ExtractResult reports the records written per data type.
type ExtractResult struct {
	Breeding  int
	Pregnancy int
	Documents []string
}

// Extraction turns saved livestock-app grid pages into per-date extraction documents.
type Extraction struct {
	dataDir string
	logger  *slog.Logger
	now     func() time.Time
}

// NewExtraction constructs the extraction use case.
func NewExtraction(dataDir string, logger *slog.Logger, clock func() time.Time) *Extraction {
	if clock == nil {
		clock = time.Now
	}
	return &Extraction{dataDir: dataDir, logger: logger, now: clock}
}

// Extract parses the selected grids and replaces the extraction documents of date.
func (e *Extraction) Extract(ctx context.Context, date string, dataType domain.DataType, src ExtractSources) (ExtractResult, error) {
	var result ExtractResult
	if err := validateDate(date); err != nil {
		return result, err
	}

	if dataType.IncludesBreeding() && src.Breeding != "" {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		records, err := parseGridFile(src.Breeding, livestock.ParseBreedingGrid)
		if err != nil {
			return result, err
		}
		path := livestock.BreedingPath(e.dataDir, date)
		if err := livestock.WriteBatch(path, domain.NewExtractionBatch(date, records, e.now())); err != nil {
			return result, fmt.Errorf("write breeding extraction: %w", err)
		}
		result.Breeding = len(records)
		result.Documents = append(result.Documents, path)
		e.info("breeding records extracted", "date", date, "records", len(records), "document", path)
	}

	if dataType.IncludesPregnancy() && src.Pregnancy != "" {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		records, err := parseGridFile(src.Pregnancy, livestock.ParsePregnancyGrid)
		if err != nil {
			return result, err
		}
		path := livestock.PregnancyPath(e.dataDir, date)
		if err := livestock.WriteBatch(path, domain.NewExtractionBatch(date, records, e.now())); err != nil {
			return result, fmt.Errorf("write pregnancy extraction: %w", err)
		}
		result.Pregnancy = len(records)
		result.Documents = append(result.Documents, path)
		e.info("pregnancy records extracted", "date", date, "records", len(records), "document", path)
	}

	if len(result.Documents) == 0 {
		return result, fmt.Errorf("extract %s %s: no grid page given", dataType, date)
	}
	return result, nil
}

func parseGridFile[T domain.BreedingRecord | domain.PregnancyRecord](path string, parse func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid page: %w", err)
	}
	defer f.Close()
	return parse(f)
}

func (e *Extraction) info(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}
