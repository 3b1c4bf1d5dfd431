package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/campaign"
	"github.com/frahmantamala/campaign-management/internal/invoice"
	"github.com/frahmantamala/campaign-management/internal/transport/rest"
	"github.com/frahmantamala/campaign-management/internal/transport/swagger"
	"github.com/frahmantamala/campaign-management/internal/user"
	"github.com/frahmantamala/campaign-management/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Services *Services
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		deps.Services.Close(ctx, deps.Logger)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	svc := deps.Services
	handlers := rest.Handlers{
		Auth:     auth.NewHandler(svc.Auth),
		User:     user.NewHandler(svc.User),
		Campaign: campaign.NewHandler(svc.Campaign, deps.Config.Upload.MaxBytes),
		Invoice:  invoice.NewHandler(svc.Invoice),
	}

	opts := rest.RouterOptions{AllowedOrigins: deps.Config.Server.AllowedOrigins}
	if svc.Forwarder != nil {
		opts.HealthChecks = map[string]rest.ComponentCheck{"broker": svc.Forwarder.Ping}
	}
	if _, err := swagger.LoadSpec(context.Background(), deps.Config.Server.OpenAPIPath); err != nil {
		deps.Logger.Warn("API docs disabled", "error", err)
	} else {
		opts.OpenAPIPath = deps.Config.Server.OpenAPIPath
	}

	rest.RegisterAllRoutes(deps.Router, svc.DB.DB, handlers, opts, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.LoggerWrapper()

	services, err := buildServices(config, lg)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		Services: services,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}
