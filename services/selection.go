package services

import (
	"sort"
	"sync"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/utils"
)

// maxTrendSeries caps how many selected towns the trend chart draws.
const maxTrendSeries = 5

// State is an immutable snapshot of the interactive dashboard state.
// Renderers are pure functions of one of these; they never reach into
// the controller.
type State struct {
	Selection []string
	Year      int
	Metric    models.Metric
	MixMode   models.MixMode
	TrendTown string
	TrendType string
}

// Controller owns every piece of mutable dashboard state. Handlers go
// through its methods only; each transition happens under the lock and
// the caller repaints all views from a fresh Snapshot afterwards.
type Controller struct {
	mu        sync.Mutex
	selection *utils.StringSet
	year      int
	metric    models.Metric
	mixMode   models.MixMode
	trendTown string // "" = statewide
	trendType string // "" = all residential types
	minYear   int
	maxYear   int
}

// NewController starts with an empty selection, the latest year, the
// median-price metric, and absolute stacking.
func NewController(minYear, maxYear int) *Controller {
	return &Controller{
		selection: utils.NewStringSet(),
		year:      maxYear,
		metric:    models.MetricMedianPrice,
		mixMode:   models.MixAbsolute,
		minYear:   minYear,
		maxYear:   maxYear,
	}
}

// ClickTown applies the map-click rules. A plain click replaces the
// selection with the clicked town, except that re-clicking the sole
// selected town clears the selection (toggle-off). A modifier click
// toggles that town's membership and preserves the rest.
func (c *Controller) ClickTown(town string, modifier bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if modifier {
		if !c.selection.Add(town) {
			c.selection.Remove(town)
		}
		return
	}

	if c.selection.Size() == 1 && c.selection.Contains(town) {
		c.selection = utils.NewStringSet()
		return
	}
	c.selection = utils.NewStringSet()
	c.selection.Add(town)
}

// ClickBackground clears the selection entirely.
func (c *Controller) ClickBackground() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = utils.NewStringSet()
}

// SetYear moves the active year, clamped to the data's span. Aggregates
// are year-indexed up front, so this only triggers a repaint.
func (c *Controller) SetYear(year int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if year < c.minYear {
		year = c.minYear
	}
	if year > c.maxYear {
		year = c.maxYear
	}
	c.year = year
}

// SetMetric switches the map metric; unknown values are ignored.
func (c *Controller) SetMetric(m models.Metric) {
	if !models.ValidMetric(m) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric = m
}

// SetMixMode switches the composition chart's normalization.
func (c *Controller) SetMixMode(m models.MixMode) {
	if !models.ValidMixMode(m) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mixMode = m
}

// SetTrendFilter scopes the static trend chart; empty strings mean
// statewide / all types.
func (c *Controller) SetTrendFilter(town, residentialType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trendTown = town
	c.trendType = residentialType
}

// Snapshot returns a copy of the current state with the selection in
// sorted order.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel := c.selection.Values()
	sort.Strings(sel)
	return State{
		Selection: sel,
		Year:      c.year,
		Metric:    c.metric,
		MixMode:   c.mixMode,
		TrendTown: c.trendTown,
		TrendType: c.trendType,
	}
}
