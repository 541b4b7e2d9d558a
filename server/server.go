package server

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"

	"ct-housing-dashboard/models"
	"ct-housing-dashboard/services"
	"ct-housing-dashboard/utils"
)

//go:embed static
var staticFS embed.FS

// Server wires the aggregation layer and the interaction controller to
// HTTP. Every mutating endpoint returns the full refreshed dashboard
// view, and the client repaints all charts from it.
type Server struct {
	dash   *services.Dashboard
	ctrl   *services.Controller
	geo    *models.FeatureCollection
	geoErr string
	logger *utils.Logger
}

// New creates a Server. geo may be nil when the boundary file failed to
// load; the map panel then reports geoErr instead of rendering.
func New(dash *services.Dashboard, ctrl *services.Controller, geo *models.FeatureCollection, geoErr string, logger *utils.Logger) *Server {
	return &Server{dash: dash, ctrl: ctrl, geo: geo, geoErr: geoErr, logger: logger}
}

// Routes returns the HTTP handler for the dashboard.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		mux.Handle("/", http.FileServer(http.FS(static)))
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/geo", s.handleGeo)
	mux.HandleFunc("/api/click", s.handleClick)
	mux.HandleFunc("/api/year", s.handleYear)
	mux.HandleFunc("/api/metric", s.handleMetric)
	mux.HandleFunc("/api/mixmode", s.handleMixMode)
	mux.HandleFunc("/api/trendfilter", s.handleTrendFilter)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// view rebuilds the full payload from the controller's current state.
func (s *Server) view() models.DashboardView {
	return s.dash.BuildView(s.ctrl.Snapshot())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.view())
}

type geoFeature struct {
	Town     string          `json:"town"`
	HasData  bool            `json:"hasData"`
	Geometry json.RawMessage `json:"geometry"`
}

// handleGeo serves the joined boundary features once per page load.
// Geometry passes through untouched; the join contributes the normalized
// town name and whether any data exists for it. Per-year values arrive
// with the dashboard payload instead, so year changes never re-send
// geometry.
func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.geo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": s.geoErr})
		return
	}

	index := s.dash.GeoIndex()
	features := make([]geoFeature, 0, len(s.geo.Features))
	for _, f := range s.geo.Features {
		town := services.FeatureTown(f)
		features = append(features, geoFeature{
			Town:     town,
			HasData:  town != "" && index.HasTown(town),
			Geometry: f.Geometry,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"features": features})
}

type clickRequest struct {
	Town       string `json:"town"`
	Modifier   bool   `json:"modifier"`
	Background bool   `json:"background"`
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decodePost(w, r, &req) {
		return
	}

	if req.Background || req.Town == "" {
		s.ctrl.ClickBackground()
	} else {
		s.ctrl.ClickTown(services.NormalizeTown(req.Town), req.Modifier)
	}
	writeJSON(w, http.StatusOK, s.view())
}

type yearRequest struct {
	Year int `json:"year"`
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	var req yearRequest
	if !decodePost(w, r, &req) {
		return
	}
	s.ctrl.SetYear(req.Year)
	writeJSON(w, http.StatusOK, s.view())
}

type metricRequest struct {
	Metric models.Metric `json:"metric"`
}

func (s *Server) handleMetric(w http.ResponseWriter, r *http.Request) {
	var req metricRequest
	if !decodePost(w, r, &req) {
		return
	}
	if !models.ValidMetric(req.Metric) {
		http.Error(w, "unknown metric", http.StatusBadRequest)
		return
	}
	s.ctrl.SetMetric(req.Metric)
	writeJSON(w, http.StatusOK, s.view())
}

type mixModeRequest struct {
	Mode models.MixMode `json:"mode"`
}

func (s *Server) handleMixMode(w http.ResponseWriter, r *http.Request) {
	var req mixModeRequest
	if !decodePost(w, r, &req) {
		return
	}
	if !models.ValidMixMode(req.Mode) {
		http.Error(w, "unknown mix mode", http.StatusBadRequest)
		return
	}
	s.ctrl.SetMixMode(req.Mode)
	writeJSON(w, http.StatusOK, s.view())
}

type trendFilterRequest struct {
	Town string `json:"town"`
	Type string `json:"type"`
}

func (s *Server) handleTrendFilter(w http.ResponseWriter, r *http.Request) {
	var req trendFilterRequest
	if !decodePost(w, r, &req) {
		return
	}
	town := ""
	if req.Town != "" {
		town = services.NormalizeTown(req.Town)
	}
	s.ctrl.SetTrendFilter(town, req.Type)
	writeJSON(w, http.StatusOK, s.view())
}

// decodePost enforces the POST method and decodes the JSON body into
// dst, writing the error response itself when either fails.
func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
