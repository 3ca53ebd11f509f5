package livestock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"RecordSync/internal/domain"
	"RecordSync/internal/infrastructure/storage"
)

// BreedingPath is where the breeding extraction for date is kept.
func BreedingPath(dataDir, date string) string {
	return filepath.Join(dataDir, fmt.Sprintf("breeding-%s.json", date))
}

// PregnancyPath is where the pregnancy extraction for date is kept.
func PregnancyPath(dataDir, date string) string {
	return filepath.Join(dataDir, fmt.Sprintf("pregnancy-%s.json", date))
}

// WriteBatch stores an extraction document atomically.
func WriteBatch[T domain.BreedingRecord | domain.PregnancyRecord](path string, batch domain.ExtractionBatch[T]) error {
	return storage.WriteJSON(path, batch)
}

// ReadBatch loads an extraction document.
func ReadBatch[T domain.BreedingRecord | domain.PregnancyRecord](path string) (domain.ExtractionBatch[T], error) {
	var batch domain.ExtractionBatch[T]
	raw, err := os.ReadFile(path)
	if err != nil {
		return batch, fmt.Errorf("read extraction: %w", err)
	}
	if err := json.Unmarshal(raw, &batch); err != nil {
		return batch, fmt.Errorf("decode extraction %s: %w", path, err)
	}
	if batch.Records == nil {
		batch.Records = []T{}
	}
	return batch, nil
}
