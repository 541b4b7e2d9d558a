package services

import (
	"math"
	"sort"

	"ct-housing-dashboard/models"
)

// TownYearKey addresses a derived statistic by normalized town and year.
type TownYearKey struct {
	Town string
	Year int
}

// TownYearStats groups the working set by town and year and computes the
// sales-volume-weighted average of per-group median prices plus the
// total sales volume. Rows with a NaN median contribute volume but stay
// out of the price weighting, so NaN never reaches a render path. A
// group whose priced volume is zero gets price 0.
func TownYearStats(rows []*models.SaleRecord) map[TownYearKey]models.TownYearStat {
	type acc struct {
		weighted float64
		priceVol int
		vol      int
	}
	accs := make(map[TownYearKey]*acc)

	for _, r := range rows {
		k := TownYearKey{Town: r.Town, Year: r.Year}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		a.vol += r.NumSales
		if !math.IsNaN(r.MedianSale) {
			a.weighted += r.MedianSale * float64(r.NumSales)
			a.priceVol += r.NumSales
		}
	}

	stats := make(map[TownYearKey]models.TownYearStat, len(accs))
	for k, a := range accs {
		price := 0.0
		if a.priceVol > 0 {
			price = a.weighted / float64(a.priceVol)
		}
		stats[k] = models.TownYearStat{
			WeightedMedianPrice: price,
			TotalSalesVolume:    a.vol,
		}
	}
	return stats
}

// StateYearStats applies the same weighting across all towns, keyed by
// year only.
func StateYearStats(rows []*models.SaleRecord) map[int]models.TownYearStat {
	type acc struct {
		weighted float64
		priceVol int
		vol      int
	}
	accs := make(map[int]*acc)

	for _, r := range rows {
		a := accs[r.Year]
		if a == nil {
			a = &acc{}
			accs[r.Year] = a
		}
		a.vol += r.NumSales
		if !math.IsNaN(r.MedianSale) {
			a.weighted += r.MedianSale * float64(r.NumSales)
			a.priceVol += r.NumSales
		}
	}

	stats := make(map[int]models.TownYearStat, len(accs))
	for year, a := range accs {
		price := 0.0
		if a.priceVol > 0 {
			price = a.weighted / float64(a.priceVol)
		}
		stats[year] = models.TownYearStat{
			WeightedMedianPrice: price,
			TotalSalesVolume:    a.vol,
		}
	}
	return stats
}

// YoYDeltas computes the fractional year-over-year change in weighted
// median price per town. An entry exists only when both the year and the
// immediately preceding year have a nonzero price; first years and gaps
// in a town's series stay absent rather than defaulting to zero, and
// consumers must treat "absent" distinctly from "0% change".
func YoYDeltas(stats map[TownYearKey]models.TownYearStat) map[TownYearKey]float64 {
	deltas := make(map[TownYearKey]float64)
	for k, cur := range stats {
		prior, ok := stats[TownYearKey{Town: k.Town, Year: k.Year - 1}]
		if !ok || prior.WeightedMedianPrice == 0 || cur.WeightedMedianPrice == 0 {
			continue
		}
		deltas[k] = (cur.WeightedMedianPrice - prior.WeightedMedianPrice) / prior.WeightedMedianPrice
	}
	return deltas
}

// TypeMix sums sale counts by residential type over the scoped rows. A
// nil scope means statewide; otherwise only rows whose town is in the
// scope contribute. Entries come back ordered by descending total, ties
// broken by name so stacking order is stable across repaints.
func TypeMix(rows []*models.SaleRecord, scope map[string]bool) []models.TypeMixEntry {
	totals := make(map[string]int)
	for _, r := range rows {
		if scope != nil && !scope[r.Town] {
			continue
		}
		totals[r.ResidentialType] += r.NumSales
	}

	entries := make([]models.TypeMixEntry, 0, len(totals))
	for t, n := range totals {
		entries = append(entries, models.TypeMixEntry{Type: t, TotalSales: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalSales != entries[j].TotalSales {
			return entries[i].TotalSales > entries[j].TotalSales
		}
		return entries[i].Type < entries[j].Type
	})
	return entries
}

// TypeMixByYear builds the year × residential-type matrix behind the
// stacked composition chart, over the same scope rules as TypeMix.
func TypeMixByYear(rows []*models.SaleRecord, scope map[string]bool) map[int]map[string]int {
	matrix := make(map[int]map[string]int)
	for _, r := range rows {
		if scope != nil && !scope[r.Town] {
			continue
		}
		row := matrix[r.Year]
		if row == nil {
			row = make(map[string]int)
			matrix[r.Year] = row
		}
		row[r.ResidentialType] += r.NumSales
	}
	return matrix
}

// PercentileRank places value among peers using a strict greater-than
// rank: rank = 1 + count(peer > value), result = 1 - rank/peerCount.
// Ties are not de-duplicated, so exactly-tied values share a rank. NaN
// peers are ignored; a NaN value or an empty peer set yields 0.
func PercentileRank(value float64, peers []float64) float64 {
	if math.IsNaN(value) {
		return 0
	}

	rank := 1
	count := 0
	for _, p := range peers {
		if math.IsNaN(p) {
			continue
		}
		count++
		if p > value {
			rank++
		}
	}
	if count == 0 {
		return 0
	}
	return 1 - float64(rank)/float64(count)
}
