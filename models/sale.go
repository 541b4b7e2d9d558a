package models

// SaleRecord is one row of the pre-aggregated sales table: the sale count
// and median price for a (town, year, property type, residential type)
// group. The working set is filtered exactly once after load and records
// are never mutated afterwards.
type SaleRecord struct {
	Town            string
	Year            int
	PropertyType    string
	ResidentialType string
	NumSales        int
	MedianSale      float64 // NaN when the source field is empty or malformed
	AvgSalesRatio   float64 // NaN when the source field is empty or malformed
}

// TownYearStat is the derived per-town-per-year statistic. The price is a
// sales-volume-weighted average of per-group median prices, not an exact
// town-wide median.
type TownYearStat struct {
	WeightedMedianPrice float64
	TotalSalesVolume    int
}

// TypeMixEntry is one residential type's summed sale count within a scope.
type TypeMixEntry struct {
	Type       string
	TotalSales int
}

// TownChange pairs a town with its latest year-over-year price delta,
// used by the startup market report.
type TownChange struct {
	Town  string
	Delta float64
}

// MarketReport holds the computed overview printed at startup.
type MarketReport struct {
	TotalRecords int
	TotalSales   int
	TownCount    int
	FirstYear    int
	LastYear     int
	FirstPrice   float64 // statewide weighted median in FirstYear
	LastPrice    float64 // statewide weighted median in LastYear
	TopGainers   []TownChange
	TopDecliners []TownChange
	BusiestTowns []TypeMixEntry // reuse: town name + sales volume for LastYear
}
