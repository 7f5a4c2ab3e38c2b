package prescriptive

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flightontime/flightontime/internal/models"
)

// LoadImportance reads the global feature-importance artifact. The file is
// an ordered JSON array; array order is preserved because it breaks ties
// when ranking factors.
func LoadImportance(path string) ([]models.FeatureWeight, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature importance: %w", err)
	}

	var weights []models.FeatureWeight
	if err := json.Unmarshal(raw, &weights); err != nil {
		return nil, fmt.Errorf("failed to parse feature importance: %w", err)
	}

	for _, w := range weights {
		if w.Feature == "" {
			return nil, fmt.Errorf("feature importance entry with empty name")
		}
		if w.Importance < 0 {
			return nil, fmt.Errorf("feature %s has negative importance %v", w.Feature, w.Importance)
		}
	}
	return weights, nil
}
