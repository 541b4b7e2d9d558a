package services

import (
	"fmt"
	"sort"
	"strings"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/utils"
)

// InsightService computes and prints the startup market report.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the market overview from the working set.
func (s *InsightService) Generate(rows []*models.SaleRecord) *models.MarketReport {
	report := &models.MarketReport{}
	if len(rows) == 0 {
		return report
	}

	report.TotalRecords = len(rows)
	townSet := make(map[string]bool)
	for _, r := range rows {
		report.TotalSales += r.NumSales
		townSet[r.Town] = true
	}
	report.TownCount = len(townSet)

	stateStats := StateYearStats(rows)
	for y := range stateStats {
		if report.FirstYear == 0 || y < report.FirstYear {
			report.FirstYear = y
		}
		if y > report.LastYear {
			report.LastYear = y
		}
	}
	report.FirstPrice = stateStats[report.FirstYear].WeightedMedianPrice
	report.LastPrice = stateStats[report.LastYear].WeightedMedianPrice

	townStats := TownYearStats(rows)
	deltas := YoYDeltas(townStats)

	var changes []models.TownChange
	for k, d := range deltas {
		if k.Year == report.LastYear {
			changes = append(changes, models.TownChange{Town: k.Town, Delta: d})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Delta != changes[j].Delta {
			return changes[i].Delta > changes[j].Delta
		}
		return changes[i].Town < changes[j].Town
	})
	if len(changes) > 5 {
		report.TopGainers = changes[:5]
	} else {
		report.TopGainers = changes
	}
	decliners := make([]models.TownChange, len(changes))
	copy(decliners, changes)
	for i, j := 0, len(decliners)-1; i < j; i, j = i+1, j-1 {
		decliners[i], decliners[j] = decliners[j], decliners[i]
	}
	if len(decliners) > 5 {
		decliners = decliners[:5]
	}
	report.TopDecliners = decliners

	var busiest []models.TypeMixEntry
	for k, st := range townStats {
		if k.Year == report.LastYear && st.TotalSalesVolume > 0 {
			busiest = append(busiest, models.TypeMixEntry{Type: k.Town, TotalSales: st.TotalSalesVolume})
		}
	}
	sort.Slice(busiest, func(i, j int) bool {
		if busiest[i].TotalSales != busiest[j].TotalSales {
			return busiest[i].TotalSales > busiest[j].TotalSales
		}
		return busiest[i].Type < busiest[j].Type
	})
	if len(busiest) > 5 {
		busiest = busiest[:5]
	}
	report.BusiestTowns = busiest

	return report
}

// Print writes the report to the terminal.
func (s *InsightService) Print(r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CT RESIDENTIAL SALES OVERVIEW\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Working Set\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Aggregate records : \033[1m%s\033[0m\n", formatCount(r.TotalRecords))
	fmt.Printf("  Total sales       : \033[1m%s\033[0m\n", formatCount(r.TotalSales))
	fmt.Printf("  Towns             : \033[1m%d\033[0m\n", r.TownCount)
	fmt.Printf("  Years             : \033[1m%d–%d\033[0m\n", r.FirstYear, r.LastYear)
	fmt.Println()

	// Statewide trend
	fmt.Printf("\033[1;33m  Statewide Weighted Median\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.FirstPrice > 0 {
		change := (r.LastPrice - r.FirstPrice) / r.FirstPrice
		fmt.Printf("  %d : \033[1;32m%s\033[0m\n", r.FirstYear, formatCurrency(r.FirstPrice))
		fmt.Printf("  %d : \033[1;32m%s\033[0m  (%s over the span)\n",
			r.LastYear, formatCurrency(r.LastPrice), formatPercent(change))
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// Movers
	fmt.Printf("\033[1;33m  Top Gainers, %d\033[0m\n", r.LastYear)
	fmt.Printf("  %s\n", thin)
	if len(r.TopGainers) == 0 {
		fmt.Printf("  No year-over-year data\n")
	} else {
		for i, c := range r.TopGainers {
			fmt.Printf("  \033[1m%d.\033[0m %-30s \033[1;32m%s\033[0m\n", i+1, c.Town, formatPercent(c.Delta))
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Decliners, %d\033[0m\n", r.LastYear)
	fmt.Printf("  %s\n", thin)
	if len(r.TopDecliners) == 0 {
		fmt.Printf("  No year-over-year data\n")
	} else {
		for i, c := range r.TopDecliners {
			fmt.Printf("  \033[1m%d.\033[0m %-30s \033[1;31m%s\033[0m\n", i+1, c.Town, formatPercent(c.Delta))
		}
	}
	fmt.Println()

	// Busiest towns
	fmt.Printf("\033[1;33m  Busiest Towns, %d\033[0m\n", r.LastYear)
	fmt.Printf("  %s\n", thin)
	if len(r.BusiestTowns) == 0 {
		fmt.Printf("  No sales data\n")
	} else {
		max := r.BusiestTowns[0].TotalSales
		for _, b := range r.BusiestTowns {
			width := 0
			if max > 0 {
				width = b.TotalSales * 24 / max
			}
			bar := strings.Repeat("█", width)
			fmt.Printf("  %-30s %s (%s)\n", b.Type, bar, formatCount(b.TotalSales))
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}
