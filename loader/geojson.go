package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"ct-housing-dashboard/models"
)

// ReadBoundaries loads the town boundary feature collection. A parse
// failure is fatal for the map view only; the rest of the dashboard
// keeps working and the map panel reports the error.
func ReadBoundaries(path string) (*models.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("boundaries: open %q: %w", path, err)
	}

	var fc models.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("boundaries: parse %q: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("boundaries: %q contains no features", path)
	}
	return &fc, nil
}
