package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/services"
	"ct-housing-dashboard/utils"
)

func testServer(t *testing.T, geo *models.FeatureCollection, geoErr string) *httptest.Server {
	t.Helper()

	dash := services.NewDashboard([]*models.SaleRecord{
		{Town: "Hartford", Year: 2019, ResidentialType: "Single Family", NumSales: 100, MedianSale: 200000},
		{Town: "Hartford", Year: 2020, ResidentialType: "Single Family", NumSales: 100, MedianSale: 250000},
		{Town: "Avon", Year: 2020, ResidentialType: "Condo", NumSales: 20, MedianSale: 420000},
	})
	ctrl := services.NewController(dash.MinYear(), dash.MaxYear())
	srv := New(dash, ctrl, geo, geoErr, utils.NewLogger())

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func postView(t *testing.T, ts *httptest.Server, path string, body any) models.DashboardView {
	t.Helper()

	b, _ := json.Marshal(body)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s status=%d", path, resp.StatusCode)
	}

	var view models.DashboardView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func TestGETDashboard(t *testing.T) {
	ts := testServer(t, nil, "")

	resp, err := http.Get(ts.URL + "/api/dashboard")
	if err != nil {
		t.Fatalf("GET /api/dashboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var view models.DashboardView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Year != 2020 {
		t.Errorf("initial year: got %d, want 2020", view.Year)
	}
	if len(view.Selection) != 0 {
		t.Errorf("initial selection must be empty: %v", view.Selection)
	}
	if len(view.Trend.Series) != 1 || !view.Trend.Series[0].Statewide {
		t.Errorf("empty selection must show only the statewide trend: %+v", view.Trend.Series)
	}
}

func TestClickStateMachineOverHTTP(t *testing.T) {
	ts := testServer(t, nil, "")

	view := postView(t, ts, "/api/click", map[string]any{"town": "Hartford"})
	if len(view.Selection) != 1 || view.Selection[0] != "Hartford" {
		t.Fatalf("after click: %v", view.Selection)
	}
	if len(view.Trend.Series) != 2 {
		t.Errorf("selected town must add a trend series: %d", len(view.Trend.Series))
	}

	// Plain re-click of the sole selected town toggles it off.
	view = postView(t, ts, "/api/click", map[string]any{"town": "Hartford"})
	if len(view.Selection) != 0 {
		t.Fatalf("toggle-off: %v", view.Selection)
	}

	// Modifier clicks accumulate; background clears.
	postView(t, ts, "/api/click", map[string]any{"town": "Hartford", "modifier": true})
	view = postView(t, ts, "/api/click", map[string]any{"town": "Avon", "modifier": true})
	if len(view.Selection) != 2 {
		t.Fatalf("modifier accumulate: %v", view.Selection)
	}
	view = postView(t, ts, "/api/click", map[string]any{"background": true})
	if len(view.Selection) != 0 {
		t.Fatalf("background clear: %v", view.Selection)
	}
}

func TestYearChangeRepaintsMap(t *testing.T) {
	ts := testServer(t, nil, "")

	view := postView(t, ts, "/api/year", map[string]any{"year": 2019})
	if view.Year != 2019 {
		t.Fatalf("year: got %d", view.Year)
	}
	if view.Map.Year != 2019 {
		t.Errorf("map not repainted for new year: %d", view.Map.Year)
	}
	if _, ok := view.Map.Towns["Avon"]; ok {
		t.Error("Avon has no 2019 data and must be absent from the map view")
	}

	// Out-of-range years clamp instead of failing.
	view = postView(t, ts, "/api/year", map[string]any{"year": 1900})
	if view.Year != 2019 {
		t.Errorf("clamped year: got %d, want 2019", view.Year)
	}
}

func TestMetricValidation(t *testing.T) {
	ts := testServer(t, nil, "")

	view := postView(t, ts, "/api/metric", map[string]any{"metric": "yoy"})
	if view.Metric != models.MetricYoYChange || !view.Map.Diverging {
		t.Errorf("yoy metric: %+v", view.Map)
	}

	b, _ := json.Marshal(map[string]any{"metric": "bogus"})
	resp, err := http.Post(ts.URL+"/api/metric", "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown metric status: got %d, want 400", resp.StatusCode)
	}
}

func TestGeoEndpoint(t *testing.T) {
	geo := &models.FeatureCollection{
		Type: "FeatureCollection",
		Features: []*models.Feature{
			{Properties: map[string]any{"TOWN": "hartford"}, Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[]}`)},
			{Properties: map[string]any{"TOWN": "Atlantis"}, Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[]}`)},
		},
	}
	ts := testServer(t, geo, "")

	resp, err := http.Get(ts.URL + "/api/geo")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var got struct {
		Features []struct {
			Town    string `json:"town"`
			HasData bool   `json:"hasData"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got.Features) != 2 {
		t.Fatalf("feature count: %d", len(got.Features))
	}
	if got.Features[0].Town != "Hartford" || !got.Features[0].HasData {
		t.Errorf("joined feature: %+v", got.Features[0])
	}
	// Unmatched towns are a no-data state, not an error.
	if got.Features[1].HasData {
		t.Errorf("unmatched feature must be no-data: %+v", got.Features[1])
	}
}

func TestGeoEndpointUnavailable(t *testing.T) {
	ts := testServer(t, nil, "boundaries: parse failed")

	resp, err := http.Get(ts.URL + "/api/geo")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("load failure must surface as visible text")
	}
}
