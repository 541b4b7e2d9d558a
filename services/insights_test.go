package services

import (
	"testing"

	"ct-housing-dashboard/models"
)

func TestMarketReportTotals(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]*models.SaleRecord{
		rec("Hartford", 2019, "Single Family", 100, 200000),
		rec("Hartford", 2020, "Single Family", 100, 250000),
		rec("Avon", 2020, "Single Family", 20, 420000),
	})

	if r.TotalRecords != 3 {
		t.Errorf("TotalRecords: got %d, want 3", r.TotalRecords)
	}
	if r.TotalSales != 220 {
		t.Errorf("TotalSales: got %d, want 220", r.TotalSales)
	}
	if r.TownCount != 2 {
		t.Errorf("TownCount: got %d, want 2", r.TownCount)
	}
	if r.FirstYear != 2019 || r.LastYear != 2020 {
		t.Errorf("year span: got %d–%d", r.FirstYear, r.LastYear)
	}
}

func TestMarketReportMovers(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate([]*models.SaleRecord{
		rec("Hartford", 2019, "Single Family", 10, 200000),
		rec("Hartford", 2020, "Single Family", 10, 260000), // +30%
		rec("Avon", 2019, "Single Family", 10, 400000),
		rec("Avon", 2020, "Single Family", 10, 380000), // -5%
	})

	if len(r.TopGainers) == 0 || r.TopGainers[0].Town != "Hartford" {
		t.Fatalf("top gainer: %+v", r.TopGainers)
	}
	if len(r.TopDecliners) == 0 || r.TopDecliners[0].Town != "Avon" {
		t.Fatalf("top decliner: %+v", r.TopDecliners)
	}
}

func TestMarketReportEmptyInput(t *testing.T) {
	svc := NewInsightService(newTestLogger())
	r := svc.Generate(nil)
	if r.TotalRecords != 0 || r.TotalSales != 0 {
		t.Error("empty input must produce an empty report")
	}
}
