package main

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rgaa-audit/audit-manager/pkg/config"
	"github.com/rgaa-audit/audit-manager/pkg/logging"
)

// app carries the state shared by every subcommand.
type app struct {
	v         *viper.Viper
	outputFmt string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "auditctl",
		Short: "Operate the accessibility audit manager",
		Long: `auditctl manages the database of the accessibility audit manager and serves its API.

Settings are read from flags, AUDIT_* environment variables (AUDIT_DB_DIALECT,
AUDIT_DB_DSN, AUDIT_LOG_MODE, ...) and an optional --config file, in that
order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.BindFlags(a.v, cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (yaml, json or toml)")
	pf.String("db-dialect", "mysql", "Database dialect: mysql or sqlite")
	pf.String("db-dsn", "", "Database connection string")
	pf.String("log-mode", "development", "Log mode: development or production")
	pf.StringVarP(&a.outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	pf.AddGoFlagSet(flag.CommandLine)

	root.AddCommand(
		newMigrateCmd(a),
		newSchemaCmd(a),
		newDiagCmd(a),
		newServeCmd(a),
	)
	return root
}

// load resolves the configuration and builds the logger.
func (a *app) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openDB opens the application connection.
func openDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := config.OpenDB(cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("get sql handle: %w", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}
