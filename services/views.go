package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ct-housing-dashboard/models"
)

// Dashboard derives every chart view model from the working set. All
// aggregates are computed once at construction and keyed by year, so
// year and metric changes only repaint; selection changes rescope the
// mix matrix and the trend series, which are rebuilt per call and never
// mutated in place.
type Dashboard struct {
	rows       []*models.SaleRecord
	townStats  map[TownYearKey]models.TownYearStat
	stateStats map[int]models.TownYearStat
	deltas     map[TownYearKey]float64
	index      *GeoIndex
	years      []int
	towns      []string
	types      []string
}

// NewDashboard builds the aggregation layer over the filtered working set.
func NewDashboard(rows []*models.SaleRecord) *Dashboard {
	townStats := TownYearStats(rows)
	deltas := YoYDeltas(townStats)

	yearSet := make(map[int]bool)
	townSet := make(map[string]bool)
	for k := range townStats {
		yearSet[k.Year] = true
		townSet[k.Town] = true
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	towns := make([]string, 0, len(townSet))
	for t := range townSet {
		towns = append(towns, t)
	}
	sort.Strings(towns)

	mix := TypeMix(rows, nil)
	types := make([]string, 0, len(mix))
	for _, e := range mix {
		types = append(types, e.Type)
	}

	return &Dashboard{
		rows:       rows,
		townStats:  townStats,
		stateStats: StateYearStats(rows),
		deltas:     deltas,
		index:      NewGeoIndex(townStats, deltas),
		years:      years,
		towns:      towns,
		types:      types,
	}
}

// GeoIndex exposes the geo join over the derived aggregates.
func (d *Dashboard) GeoIndex() *GeoIndex { return d.index }

// Years returns the ascending years present in the working set.
func (d *Dashboard) Years() []int { return d.years }

// MinYear is the slider's lower bound.
func (d *Dashboard) MinYear() int {
	if len(d.years) == 0 {
		return minYear
	}
	return d.years[0]
}

// MaxYear is the slider's upper bound and the initial active year.
func (d *Dashboard) MaxYear() int {
	if len(d.years) == 0 {
		return minYear
	}
	return d.years[len(d.years)-1]
}

// BuildView assembles the full repaint payload for a state snapshot.
func (d *Dashboard) BuildView(st State) models.DashboardView {
	return models.DashboardView{
		Years:     d.years,
		Year:      st.Year,
		Metric:    st.Metric,
		MixMode:   st.MixMode,
		Selection: st.Selection,
		Towns:     d.towns,
		Types:     d.types,
		TrendFilter: models.TrendFilter{
			Town: st.TrendTown,
			Type: st.TrendType,
		},
		Map:           d.MapView(st.Year, st.Metric),
		Trend:         d.TrendView(st.Selection),
		FilteredTrend: d.FilteredTrend(st.TrendTown, st.TrendType),
		Mix:           d.MixView(st.Selection, st.MixMode),
		TopTowns:      d.TopTowns(st.Year),
		TypeTotals:    d.TypeTotals(),
		Insight:       d.Insight(st),
	}
}

// MapView builds the choropleth data for one year and metric. Towns
// without a value for the metric (no stats that year, or no defined YoY
// delta) are flagged no-data rather than dropped, so the client can
// paint them neutrally.
func (d *Dashboard) MapView(year int, metric models.Metric) models.MapView {
	towns := make(map[string]models.MapTown)
	lo, hi := math.Inf(1), math.Inf(-1)

	for _, town := range d.towns {
		snap, ok := d.index.Lookup(town, year)
		if !ok {
			continue
		}

		var value float64
		var tooltip string
		has := true
		switch metric {
		case models.MetricSalesVolume:
			value = float64(snap.TotalSalesVolume)
			tooltip = fmt.Sprintf("%s — %s sales in %d", town, formatCount(snap.TotalSalesVolume), year)
		case models.MetricYoYChange:
			if !snap.HasYoY {
				has = false
				tooltip = fmt.Sprintf("%s — no prior-year data", town)
			} else {
				value = snap.YoYDelta
				tooltip = fmt.Sprintf("%s — %s vs %d", town, formatPercent(snap.YoYDelta), year-1)
			}
		default:
			value = snap.WeightedMedianPrice
			tooltip = fmt.Sprintf("%s — %s weighted median in %d", town, formatCurrency(snap.WeightedMedianPrice), year)
		}

		if has && math.IsNaN(value) {
			has = false
		}
		if !has {
			towns[town] = models.MapTown{Town: town, HasData: false, Tooltip: tooltip}
			continue
		}

		if value < lo {
			lo = value
		}
		if value > hi {
			hi = value
		}
		towns[town] = models.MapTown{Town: town, Value: value, HasData: true, Tooltip: tooltip}
	}

	var domain [2]float64
	diverging := metric == models.MetricYoYChange
	if lo <= hi {
		if diverging {
			// Symmetric around zero so the neutral color sits at 0%.
			m := math.Max(math.Abs(lo), math.Abs(hi))
			domain = [2]float64{-m, m}
		} else {
			domain = [2]float64{lo, hi}
		}
	}

	return models.MapView{
		Metric:    metric,
		Year:      year,
		Towns:     towns,
		Domain:    domain,
		Diverging: diverging,
		Legend:    metricLegend(metric, year),
	}
}

// TrendView returns the statewide weighted-median series plus one series
// per selected town, capped at five towns for legibility.
func (d *Dashboard) TrendView(selection []string) models.TrendView {
	series := []models.TrendSeries{d.statewideSeries()}

	capped := selection
	if len(capped) > maxTrendSeries {
		capped = capped[:maxTrendSeries]
	}
	for _, town := range capped {
		pts := make([]models.TrendPoint, 0, len(d.years))
		for _, y := range d.years {
			if st, ok := d.townStats[TownYearKey{Town: town, Year: y}]; ok {
				pts = append(pts, models.TrendPoint{Year: y, Value: st.WeightedMedianPrice})
			}
		}
		series = append(series, models.TrendSeries{Label: town, Points: pts})
	}
	return models.TrendView{Series: series}
}

func (d *Dashboard) statewideSeries() models.TrendSeries {
	pts := make([]models.TrendPoint, 0, len(d.years))
	for _, y := range d.years {
		pts = append(pts, models.TrendPoint{Year: y, Value: d.stateStats[y].WeightedMedianPrice})
	}
	return models.TrendSeries{Label: "Connecticut", Statewide: true, Points: pts}
}

// FilteredTrend is the static trend chart with its own town/type
// dropdowns, independent of the map selection.
func (d *Dashboard) FilteredTrend(town, residentialType string) models.TrendView {
	scoped := make([]*models.SaleRecord, 0, len(d.rows))
	for _, r := range d.rows {
		if town != "" && r.Town != town {
			continue
		}
		if residentialType != "" && r.ResidentialType != residentialType {
			continue
		}
		scoped = append(scoped, r)
	}

	byYear := StateYearStats(scoped)
	pts := make([]models.TrendPoint, 0, len(byYear))
	for _, y := range d.years {
		if st, ok := byYear[y]; ok {
			pts = append(pts, models.TrendPoint{Year: y, Value: st.WeightedMedianPrice})
		}
	}

	label := "Connecticut"
	if town != "" {
		label = town
	}
	if residentialType != "" {
		label += " · " + residentialType
	}
	return models.TrendView{Series: []models.TrendSeries{{Label: label, Statewide: town == "", Points: pts}}}
}

// MixView builds the stacked composition matrix over the selection scope.
// Percent mode normalizes each year row to fractions of its own total;
// rows with zero total sales stay all-zero instead of dividing by zero.
func (d *Dashboard) MixView(selection []string, mode models.MixMode) models.MixView {
	var scope map[string]bool
	scopeLabel := "Statewide"
	if len(selection) > 0 {
		scope = make(map[string]bool, len(selection))
		for _, t := range selection {
			scope[t] = true
		}
		scopeLabel = strings.Join(selection, ", ")
	}

	entries := TypeMix(d.rows, scope)
	types := make([]string, 0, len(entries))
	for _, e := range entries {
		types = append(types, e.Type)
	}

	matrix := TypeMixByYear(d.rows, scope)
	rows := make([]models.MixRow, 0, len(d.years))
	for _, y := range d.years {
		values := make([]float64, len(types))
		total := 0
		for i, t := range types {
			values[i] = float64(matrix[y][t])
			total += matrix[y][t]
		}
		if mode == models.MixPercent && total > 0 {
			for i := range values {
				values[i] /= float64(total)
			}
		}
		rows = append(rows, models.MixRow{Year: y, Values: values})
	}

	return models.MixView{Mode: mode, Scope: scopeLabel, Types: types, Rows: rows}
}

// TopTowns is the static summary of the ten busiest towns in the active
// year by sales volume.
func (d *Dashboard) TopTowns(year int) models.SummaryView {
	bars := make([]models.SummaryBar, 0, len(d.towns))
	for _, town := range d.towns {
		if st, ok := d.townStats[TownYearKey{Town: town, Year: year}]; ok && st.TotalSalesVolume > 0 {
			bars = append(bars, models.SummaryBar{Label: town, Value: float64(st.TotalSalesVolume)})
		}
	}
	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Label < bars[j].Label
	})
	if len(bars) > 10 {
		bars = bars[:10]
	}
	return models.SummaryView{
		Title: fmt.Sprintf("Busiest towns, %d", year),
		Bars:  bars,
	}
}

// TypeTotals is the static summary of sale counts by residential type
// across the whole working set.
func (d *Dashboard) TypeTotals() models.SummaryView {
	entries := TypeMix(d.rows, nil)
	bars := make([]models.SummaryBar, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, models.SummaryBar{Label: e.Type, Value: float64(e.TotalSales)})
	}
	return models.SummaryView{Title: "Sales by residential type, all years", Bars: bars}
}

// Insight renders the one-line status text under the map, reflecting the
// active year and selection.
func (d *Dashboard) Insight(st State) string {
	if len(st.Selection) == 0 {
		state := d.stateStats[st.Year]
		return fmt.Sprintf("%d statewide: %s weighted median across %s sales. Click a town to drill in.",
			st.Year, formatCurrency(state.WeightedMedianPrice), formatCount(state.TotalSalesVolume))
	}

	town := st.Selection[0]
	snap, ok := d.index.Lookup(town, st.Year)
	if !ok {
		return fmt.Sprintf("%s has no data for %d.", town, st.Year)
	}

	peers := make([]float64, 0, len(d.towns))
	for _, t := range d.towns {
		if s, has := d.index.Lookup(t, st.Year); has {
			peers = append(peers, s.WeightedMedianPrice)
		}
	}
	pct := PercentileRank(snap.WeightedMedianPrice, peers)

	line := fmt.Sprintf("%s %d: %s weighted median, %s sales — pricier than %.0f%% of towns",
		town, st.Year, formatCurrency(snap.WeightedMedianPrice),
		formatCount(snap.TotalSalesVolume), pct*100)
	if snap.HasYoY {
		line += fmt.Sprintf(", %s year over year", formatPercent(snap.YoYDelta))
	}
	if len(st.Selection) > 1 {
		line += fmt.Sprintf(" (+%d more selected)", len(st.Selection)-1)
	}
	return line + "."
}

func metricLegend(metric models.Metric, year int) string {
	switch metric {
	case models.MetricSalesVolume:
		return fmt.Sprintf("Sales volume, %d", year)
	case models.MetricYoYChange:
		return fmt.Sprintf("Median price change, %d vs %d", year, year-1)
	default:
		return fmt.Sprintf("Weighted median sale price, %d", year)
	}
}

// formatCurrency renders a whole-dollar amount with thousands separators.
func formatCurrency(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return "$" + formatCount(int(math.Round(v)))
}

// formatCount renders an integer with thousands separators.
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatPercent renders a signed fractional change, e.g. +4.2%.
func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", v*100)
}
