package models

import "encoding/json"

// FeatureCollection is the boundary file's top-level GeoJSON object.
// Geometry is kept opaque and passed through to the browser untouched;
// the server only ever reads the name property off each feature.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature is a single town boundary.
type Feature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// townNameKeys lists the property keys under which boundary files have
// been observed to carry the town name, in lookup order.
var townNameKeys = []string{"TOWN", "town", "NAME", "name", "Town", "NAME10", "town_name"}

// TownName returns the feature's raw town name, or "" when no accepted
// key is present.
func (f *Feature) TownName() string {
	for _, k := range townNameKeys {
		if v, ok := f.Properties[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
