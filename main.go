package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"

	"ct-housing-dashboard/capture"
	"ct-housing-dashboard/config"
	"ct-housing-dashboard/loader"
	"ct-housing-dashboard/server"
	"ct-housing-dashboard/services"
	"ct-housing-dashboard/storage"
	"ct-housing-dashboard/utils"
)

func main() {
	captureDir := flag.String("capture", "", "render PNG snapshots of the dashboard into this directory and exit")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== CT Residential Sales Dashboard starting ===")
	logger.Info("Config — dataset: %s | boundaries: %s | listen: %s",
		cfg.DatasetPath, cfg.BoundariesPath, cfg.ListenAddr)

	raw, err := loader.ReadSales(cfg.DatasetPath)
	if err != nil {
		logger.Error("Failed to load sales dataset: %v", err)
		os.Exit(1)
	}

	cleaner := services.NewCleaner(logger)
	rows := cleaner.Clean(raw)
	if len(rows) == 0 {
		logger.Error("All records were dropped by the working-set filter. Exiting.")
		os.Exit(1)
	}

	dash := services.NewDashboard(rows)

	csvWriter, err := storage.NewCSVWriter(cfg.ExportPath)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	sinks := []storage.RecordWriter{csvWriter}

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Error("PostgreSQL unavailable: %v, continuing without mirror", err)
			pgWriter = nil
		} else {
			sinks = append(sinks, pgWriter)
		}
	}

	for _, sink := range sinks {
		if err := sink.WriteWorkingSet(rows); err != nil {
			logger.Error("Working-set export failed: %v", err)
		}
	}
	logger.Info("Working set exported to %s", cfg.ExportPath)
	_ = csvWriter.Close()

	reportRows := rows
	if pgWriter != nil {
		defer pgWriter.Close()
		logger.Info("Working set mirrored to PostgreSQL (table: town_sales)")
		if fetched, err := pgWriter.FetchAll(); err == nil && len(fetched) > 0 {
			reportRows = fetched
		}
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(reportRows)
	insightSvc.Print(report)

	geoErr := ""
	geo, err := loader.ReadBoundaries(cfg.BoundariesPath)
	if err != nil {
		// The map panel reports this; the other charts still work.
		geoErr = err.Error()
		logger.Error("Failed to load town boundaries: %v", err)
	}

	ctrl := services.NewController(dash.MinYear(), dash.MaxYear())
	srv := server.New(dash, ctrl, geo, geoErr, logger)

	if *captureDir != "" {
		runCapture(cfg, srv, *captureDir, logger)
		return
	}

	logger.Info("Dashboard listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Routes()); err != nil {
		logger.Error("Server error: %v", err)
		os.Exit(1)
	}
}

// runCapture serves the dashboard on an ephemeral local port, drives the
// headless browser against it, and exits.
func runCapture(cfg *config.Config, srv *server.Server, dir string, logger *utils.Logger) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logger.Error("Failed to open capture listener: %v", err)
		os.Exit(1)
	}
	go func() {
		_ = http.Serve(ln, srv.Routes())
	}()

	baseURL := fmt.Sprintf("http://%s", ln.Addr())
	logger.Info("Capture server on %s", baseURL)

	capturer := capture.New(cfg, logger)
	if err := capturer.Run(baseURL, dir); err != nil {
		logger.Error("Capture failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Snapshots saved to %s", dir)
}
