package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgaa-audit/audit-manager/pkg/api"
	"github.com/rgaa-audit/audit-manager/pkg/cache"
	"github.com/rgaa-audit/audit-manager/pkg/config"
	"github.com/rgaa-audit/audit-manager/pkg/forms"
	"github.com/rgaa-audit/audit-manager/pkg/ha"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return serve(cmd.Context(), cfg, logger, migrate)
		},
	}
	cmd.Flags().String("listen", ":8080", "Address to listen on")
	cmd.Flags().StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	cmd.Flags().Bool("cache", true, "Cache the form and criteria reference endpoints")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) error {
	db, closeDB, err := openDB(cfg, logger)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB()

	if migrate {
		sqlDB, err := config.OpenMigrationDB(cfg.Database)
		if err != nil {
			glog.Fatalf("Failed to open migration connection: %v", err)
		}
		r, err := migrations.New(sqlDB, cfg.Database.Dialect,
			migrations.WithLocker(ha.NewMigrationLocker(db, ha.LockConfigFromEnv())),
			migrations.WithLogger(logger),
		)
		if err != nil {
			glog.Fatalf("Failed to create migration runner: %v", err)
		}
		err = r.Up(ctx)
		_ = r.Close()
		if err != nil {
			glog.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	router := api.Router(store.New(db), forms.DefaultRegistry(), api.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		Cache:       cache.NewManager(cfg.Cache),
	})

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()
	logger.Info("audit manager ready", zap.String("listen", cfg.Listen), zap.String("dialect", string(cfg.Database.Dialect)))

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("audit manager stopped")
	return nil
}
