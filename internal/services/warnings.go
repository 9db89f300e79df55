package services

import (
	"sync"

	"github.com/epeers/debtimport/internal/models"
)

// WarningCollector accumulates warnings during an import run. It is safe
// for use by concurrent drain workers.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []models.Warning
}

// Add appends a warning.
func (wc *WarningCollector) Add(w models.Warning) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = append(wc.warnings, w)
}

// GetWarnings returns a copy of all collected warnings, never nil.
func (wc *WarningCollector) GetWarnings() []models.Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	out := make([]models.Warning, len(wc.warnings))
	copy(out, wc.warnings)
	return out
}
