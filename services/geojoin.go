package services

import "ct-housing-dashboard/models"

// TownSnapshot is the joined per-town data for one year. HasYoY marks
// whether the delta field carries a value; an absent delta is not the
// same as a 0% change.
type TownSnapshot struct {
	WeightedMedianPrice float64
	TotalSalesVolume    int
	YoYDelta            float64
	HasYoY              bool
}

// GeoIndex answers the geo join's only contract: given a normalized town
// name and a year, return the town's statistics or report them absent.
// Unmatched names are a normal outcome (the map paints them with the
// no-data fill), never an error.
type GeoIndex struct {
	stats  map[TownYearKey]models.TownYearStat
	deltas map[TownYearKey]float64
	towns  map[string]bool
}

// NewGeoIndex builds an index over the derived town/year statistics.
func NewGeoIndex(stats map[TownYearKey]models.TownYearStat, deltas map[TownYearKey]float64) *GeoIndex {
	towns := make(map[string]bool)
	for k := range stats {
		towns[k.Town] = true
	}
	return &GeoIndex{stats: stats, deltas: deltas, towns: towns}
}

// Lookup returns the snapshot for a normalized town name and year, or
// ok=false when the town has no data for that year.
func (g *GeoIndex) Lookup(town string, year int) (TownSnapshot, bool) {
	k := TownYearKey{Town: town, Year: year}
	st, ok := g.stats[k]
	if !ok {
		return TownSnapshot{}, false
	}
	snap := TownSnapshot{
		WeightedMedianPrice: st.WeightedMedianPrice,
		TotalSalesVolume:    st.TotalSalesVolume,
	}
	if d, has := g.deltas[k]; has {
		snap.YoYDelta = d
		snap.HasYoY = true
	}
	return snap, true
}

// HasTown reports whether any year of data exists for the town.
func (g *GeoIndex) HasTown(town string) bool {
	return g.towns[town]
}

// FeatureTown extracts and normalizes a boundary feature's town name.
// "" means the feature carries no recognizable name key and will render
// as no-data.
func FeatureTown(f *models.Feature) string {
	raw := f.TownName()
	if raw == "" {
		return ""
	}
	return NormalizeTown(raw)
}
