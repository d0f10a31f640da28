package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/clinicore/docintake/internal/models"
)

// Provider hands out the current patient directory snapshot. The
// directory is owned and refreshed by an external data-fetching layer;
// consumers must treat a snapshot as read-only and possibly stale.
type Provider interface {
	Snapshot(ctx context.Context) ([]models.PatientRecord, error)
}

// StaticProvider serves a fixed patient list. Used in tests and as the
// in-process snapshot handed over by the surrounding application.
type StaticProvider struct {
	patients []models.PatientRecord
}

func NewStaticProvider(patients []models.PatientRecord) *StaticProvider {
	return &StaticProvider{patients: patients}
}

func (p *StaticProvider) Snapshot(ctx context.Context) ([]models.PatientRecord, error) {
	out := make([]models.PatientRecord, len(p.patients))
	copy(out, p.patients)
	return out, nil
}

// NewStaticProviderFromFile loads a JSON patient directory snapshot
// written by the external data-fetching layer.
func NewStaticProviderFromFile(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patient directory: %w", err)
	}

	var patients []models.PatientRecord
	if err := json.Unmarshal(data, &patients); err != nil {
		return nil, fmt.Errorf("failed to parse patient directory: %w", err)
	}

	return NewStaticProvider(patients), nil
}
