package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/webpack-chart/internal/chart"
	"github.com/webpack-chart/internal/report"
	"github.com/webpack-chart/internal/repository"
	"github.com/webpack-chart/internal/source"
	"github.com/webpack-chart/internal/storage"
	"github.com/webpack-chart/internal/webui"
	"github.com/webpack-chart/pkg/config"
	"github.com/webpack-chart/pkg/utils"
)

var (
	// Serve command flags
	port   int
	strict bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive chart viewer",
	Long: `Start an HTTP server for exploring size trees interactively.

Each viewer session starts on a bundled demo report drawn in gray. Uploading a
stats report, or naming one with statsJson, replaces the tree and switches to
the regular colours. Clicking a directory zooms into it and clicking the centre
zooms back out.

Endpoints:
  POST   /api/sessions                     create a session
  GET    /api/sessions/{id}                current view
  DELETE /api/sessions/{id}                drop a session
  POST   /api/sessions/{id}/report         upload a stats report
  POST   /api/sessions/{id}/load           load ?statsJson=<url|store://key>
  POST   /api/sessions/{id}/activate       click {"path": [...]}
  GET    /api/reports                      recorded reports
  GET    /metrics                          Prometheus metrics
  GET    /healthz                          liveness`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	binName := BinName()
	serveCmd.Example = `  # Start server with default settings (port 8080)
  ` + binName + ` serve

  # Specify port and configuration
  ` + binName + ` serve -p 9090 -c ./config.yaml

  # Start server with verbose logging
  ` + binName + ` serve -v`

	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port for web server (overrides server.port)")
	serveCmd.Flags().BoolVar(&strict, "strict", false, "Reject reports with malformed module records")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	cfg := GetConfig()
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	server, cleanup, err := newViewer(cmd.Context(), cfg, strict, log)
	if err != nil {
		return err
	}
	defer cleanup()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal %v, shutting down server...", sig)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	log.Info("Server stopped")
	return nil
}

// newViewer wires storage, the catalog and the chart service into a server.
// The returned cleanup closes the catalog.
func newViewer(ctx context.Context, cfg *config.Config, strict bool, log utils.Logger) (*webui.Server, func(), error) {
	style, err := chart.ParseStyle(cfg.Chart.Style)
	if err != nil {
		return nil, nil, err
	}
	demoStyle, err := chart.ParseStyle(cfg.Chart.DemoStyle)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		log.Warn("Storage unavailable, store:// locations disabled: %v", err)
		store = nil
	}
	loader := source.NewLoader(source.OptionsFromConfig(cfg.Fetch), store, log)

	cleanup := func() {}
	var catalog repository.Catalog
	gormCatalog, err := repository.OpenCatalog(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if gormCatalog != nil {
		catalog = gormCatalog
		cleanup = func() {
			if err := gormCatalog.Close(); err != nil {
				log.Warn("Failed to close catalog: %v", err)
			}
		}
		log.Info("Recording reports to %s catalog", cfg.Database.Type)
	}

	metrics := webui.NewMetrics()
	svcOpts := webui.DefaultServiceOptions()
	svcOpts.Parse = &report.ParseOptions{Strict: strict, MaxSize: cfg.Server.MaxBodySize}
	svcOpts.Layout = &chart.LayoutOptions{
		MaxDepth: cfg.Chart.MaxDepth,
		Style:    style,
		Labeler:  chart.NewLabeler(cfg.Chart.LabelThreshold),
	}
	svcOpts.DemoStyle = demoStyle
	svcOpts.MaxSessions = cfg.Server.MaxSessions

	svc, err := webui.NewChartService(svcOpts, loader, catalog, metrics, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	server := webui.NewServer(&webui.ServerOptions{
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodySize:  cfg.Server.MaxBodySize,
	}, svc, metrics, log)
	return server, cleanup, nil
}
