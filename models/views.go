package models

// Metric identifies what the choropleth encodes.
type Metric string

const (
	MetricMedianPrice Metric = "median"
	MetricSalesVolume Metric = "volume"
	MetricYoYChange   Metric = "yoy"
)

// ValidMetric reports whether m is one of the three map metrics.
func ValidMetric(m Metric) bool {
	return m == MetricMedianPrice || m == MetricSalesVolume || m == MetricYoYChange
}

// MixMode controls the stacking normalization of the composition chart.
type MixMode string

const (
	MixAbsolute MixMode = "absolute"
	MixPercent  MixMode = "percent"
)

// ValidMixMode reports whether m is a known mix mode.
func ValidMixMode(m MixMode) bool {
	return m == MixAbsolute || m == MixPercent
}

// MapTown is one town's paint data for the active year and metric.
// Towns with HasData false (and towns missing from MapView.Towns
// entirely) get the neutral no-data fill.
type MapTown struct {
	Town    string  `json:"town"`
	Value   float64 `json:"value"`
	HasData bool    `json:"hasData"`
	Tooltip string  `json:"tooltip"`
}

// MapView drives the choropleth: per-town values plus the color scale
// the client should build. Price and volume use a sequential scale over
// Domain; YoY uses a diverging scale with Domain symmetric around zero.
type MapView struct {
	Metric    Metric             `json:"metric"`
	Year      int                `json:"year"`
	Towns     map[string]MapTown `json:"towns"`
	Domain    [2]float64         `json:"domain"`
	Diverging bool               `json:"diverging"`
	Legend    string             `json:"legend"`
}

// TrendPoint is one year's value on a trend line.
type TrendPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// TrendSeries is one line in a trend chart.
type TrendSeries struct {
	Label     string       `json:"label"`
	Statewide bool         `json:"statewide"`
	Points    []TrendPoint `json:"points"`
}

// TrendView is the linked trend chart: the statewide series plus up to
// five selected towns.
type TrendView struct {
	Series []TrendSeries `json:"series"`
}

// MixRow is one year's stacked values, aligned with MixView.Types.
type MixRow struct {
	Year   int       `json:"year"`
	Values []float64 `json:"values"`
}

// MixView is the year-by-residential-type composition matrix within the
// active scope (statewide or the selected towns).
type MixView struct {
	Mode  MixMode  `json:"mode"`
	Scope string   `json:"scope"`
	Types []string `json:"types"`
	Rows  []MixRow `json:"rows"`
}

// SummaryBar is one bar of a static summary chart.
type SummaryBar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SummaryView is a static bar-chart view model.
type SummaryView struct {
	Title string       `json:"title"`
	Bars  []SummaryBar `json:"bars"`
}

// TrendFilter scopes the static trend chart independently of the map
// selection. Empty strings mean statewide / all types.
type TrendFilter struct {
	Town string `json:"town"`
	Type string `json:"type"`
}

// DashboardView is the full repaint payload. Every state transition
// returns one of these and the client redraws all charts from it.
type DashboardView struct {
	Years         []int         `json:"years"`
	Year          int           `json:"year"`
	Metric        Metric        `json:"metric"`
	MixMode       MixMode       `json:"mixMode"`
	Selection     []string      `json:"selection"`
	Towns         []string      `json:"towns"`
	Types         []string      `json:"types"`
	TrendFilter   TrendFilter   `json:"trendFilter"`
	Map           MapView       `json:"map"`
	Trend         TrendView     `json:"trend"`
	FilteredTrend TrendView     `json:"filteredTrend"`
	Mix           MixView       `json:"mix"`
	TopTowns      SummaryView   `json:"topTowns"`
	TypeTotals    SummaryView   `json:"typeTotals"`
	Insight       string        `json:"insight"`
}
