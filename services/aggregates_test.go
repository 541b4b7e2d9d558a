package services

import (
	"math"
	"testing"

	"ct-housing-dashboard/models"
)

func rec(town string, year int, resType string, numSales int, median float64) *models.SaleRecord {
	return &models.SaleRecord{
		Town:            town,
		Year:            year,
		ResidentialType: resType,
		NumSales:        numSales,
		MedianSale:      median,
		AvgSalesRatio:   math.NaN(),
	}
}

func TestTownYearStatsWeightedAverage(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2020, "Single Family", 100, 200000),
		rec("Hartford", 2020, "Condo", 50, 150000),
	}

	stats := TownYearStats(rows)
	st, ok := stats[TownYearKey{Town: "Hartford", Year: 2020}]
	if !ok {
		t.Fatal("missing Hartford 2020")
	}
	want := (100*200000.0 + 50*150000.0) / 150.0
	if math.Abs(st.WeightedMedianPrice-want) > 0.01 {
		t.Errorf("weighted price: got %.2f, want %.2f", st.WeightedMedianPrice, want)
	}
	if st.TotalSalesVolume != 150 {
		t.Errorf("volume: got %d, want 150", st.TotalSalesVolume)
	}
}

func TestTownYearStatsConvexity(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Avon", 2019, "Single Family", 7, 410000),
		rec("Avon", 2019, "Condo", 13, 190000),
		rec("Avon", 2019, "Two Family", 2, 275000),
	}

	st := TownYearStats(rows)[TownYearKey{Town: "Avon", Year: 2019}]
	if st.WeightedMedianPrice < 190000 || st.WeightedMedianPrice > 410000 {
		t.Errorf("weighted average %.2f outside contributing range [190000, 410000]", st.WeightedMedianPrice)
	}
}

func TestTownYearStatsZeroVolumeGuard(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Union", 2018, "Single Family", 0, 300000),
	}

	st := TownYearStats(rows)[TownYearKey{Town: "Union", Year: 2018}]
	if st.WeightedMedianPrice != 0 {
		t.Errorf("zero-volume group: price got %v, want 0", st.WeightedMedianPrice)
	}
	if math.IsNaN(st.WeightedMedianPrice) {
		t.Error("zero-volume group produced NaN")
	}
}

func TestTownYearStatsNaNMedianExcluded(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Kent", 2017, "Single Family", 10, 500000),
		rec("Kent", 2017, "Condo", 5, math.NaN()),
	}

	st := TownYearStats(rows)[TownYearKey{Town: "Kent", Year: 2017}]
	if st.TotalSalesVolume != 15 {
		t.Errorf("NaN-median row must still count sales: got %d, want 15", st.TotalSalesVolume)
	}
	if st.WeightedMedianPrice != 500000 {
		t.Errorf("NaN-median row must not weight the price: got %.2f, want 500000", st.WeightedMedianPrice)
	}
}

func TestStateYearStats(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2020, "Single Family", 100, 200000),
		rec("New Haven", 2020, "Single Family", 100, 300000),
	}

	st := StateYearStats(rows)[2020]
	if st.WeightedMedianPrice != 250000 {
		t.Errorf("statewide price: got %.2f, want 250000", st.WeightedMedianPrice)
	}
	if st.TotalSalesVolume != 200 {
		t.Errorf("statewide volume: got %d, want 200", st.TotalSalesVolume)
	}
}

func TestYoYDeltas(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2019, "Single Family", 10, 200000),
		rec("Hartford", 2020, "Single Family", 10, 250000),
		rec("Hartford", 2022, "Single Family", 10, 300000), // 2021 gap
		rec("Union", 2020, "Single Family", 2, 400000),     // single year
	}

	deltas := YoYDeltas(TownYearStats(rows))

	d, ok := deltas[TownYearKey{Town: "Hartford", Year: 2020}]
	if !ok {
		t.Fatal("expected delta for Hartford 2020")
	}
	if math.Abs(d-0.25) > 1e-9 {
		t.Errorf("Hartford 2020 delta: got %v, want 0.25", d)
	}

	if _, ok := deltas[TownYearKey{Town: "Hartford", Year: 2019}]; ok {
		t.Error("first year of series must have no delta entry")
	}
	if _, ok := deltas[TownYearKey{Town: "Hartford", Year: 2022}]; ok {
		t.Error("year after a gap must have no delta entry")
	}
	if _, ok := deltas[TownYearKey{Town: "Union", Year: 2020}]; ok {
		t.Error("single-year town must have no delta entries")
	}
}

func TestYoYDeltasZeroPriorGuard(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Union", 2019, "Single Family", 0, 100000), // zero volume → price 0
		rec("Union", 2020, "Single Family", 5, 150000),
	}

	deltas := YoYDeltas(TownYearStats(rows))
	if _, ok := deltas[TownYearKey{Town: "Union", Year: 2020}]; ok {
		t.Error("zero prior price must not produce a delta")
	}
}

func TestTypeMixSumsMatchTotal(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2020, "Single Family", 100, 200000),
		rec("Hartford", 2020, "Condo", 50, 150000),
		rec("New Haven", 2020, "Condo", 25, 180000),
	}

	entries := TypeMix(rows, nil)
	sum := 0
	for _, e := range entries {
		sum += e.TotalSales
	}
	if sum != 175 {
		t.Errorf("type mix total: got %d, want 175", sum)
	}
	if entries[0].Type != "Single Family" {
		t.Errorf("ordering: got %q first, want Single Family", entries[0].Type)
	}
}

func TestTypeMixScopeFilter(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2020, "Single Family", 100, 200000),
		rec("New Haven", 2020, "Condo", 25, 180000),
	}

	entries := TypeMix(rows, map[string]bool{"Hartford": true})
	if len(entries) != 1 || entries[0].Type != "Single Family" || entries[0].TotalSales != 100 {
		t.Errorf("scoped mix wrong: %+v", entries)
	}
}

func TestTypeMixByYear(t *testing.T) {
	rows := []*models.SaleRecord{
		rec("Hartford", 2019, "Condo", 10, 150000),
		rec("Hartford", 2020, "Condo", 20, 160000),
		rec("Hartford", 2020, "Single Family", 30, 250000),
	}

	matrix := TypeMixByYear(rows, nil)
	if matrix[2019]["Condo"] != 10 {
		t.Errorf("2019 Condo: got %d, want 10", matrix[2019]["Condo"])
	}
	if matrix[2020]["Condo"] != 20 || matrix[2020]["Single Family"] != 30 {
		t.Errorf("2020 row wrong: %v", matrix[2020])
	}
}

func TestPercentileRank(t *testing.T) {
	peers := []float64{100, 200, 300, 400}

	// rank = 1 + count(peer > value); result = 1 - rank/len(peers)
	tests := []struct {
		value float64
		want  float64
	}{
		{400, 1 - 1.0/4},
		{300, 1 - 2.0/4},
		{100, 1 - 4.0/4},
		{50, 1 - 5.0/4}, // below all peers
	}
	for _, tt := range tests {
		if got := PercentileRank(tt.value, peers); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PercentileRank(%v) = %v; want %v", tt.value, got, tt.want)
		}
	}
}

func TestPercentileRankGuards(t *testing.T) {
	if got := PercentileRank(math.NaN(), []float64{1, 2}); got != 0 {
		t.Errorf("NaN value: got %v, want 0", got)
	}
	if got := PercentileRank(5, nil); got != 0 {
		t.Errorf("empty peers: got %v, want 0", got)
	}
	// NaN peers are ignored, not counted.
	if got := PercentileRank(2, []float64{1, 2, math.NaN()}); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("NaN peer ignored: got %v, want 0.5", got)
	}
}

func TestPercentileRankStrictGreaterThanTies(t *testing.T) {
	// Tied values all get the same strict-greater-than rank.
	peers := []float64{300, 300, 100}
	a := PercentileRank(300, peers)
	b := PercentileRank(300, peers)
	if a != b {
		t.Errorf("same value, same peers, different ranks: %v vs %v", a, b)
	}
	want := 1 - 1.0/3
	if math.Abs(a-want) > 1e-9 {
		t.Errorf("tied max: got %v, want %v", a, want)
	}
}
