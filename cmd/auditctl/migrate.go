package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rgaa-audit/audit-manager/pkg/config"
	"github.com/rgaa-audit/audit-manager/pkg/ha"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, revert and inspect schema migrations",
		Long: `Apply, revert and inspect the schema migration log.

Every command runs under the migration lock, so concurrent runners wait for
each other. A unit that fails halfway leaves the database dirty: repair the
schema by hand, then record the last good version with "migrate force".`,
	}

	var upSteps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
				if upSteps > 0 {
					return r.Steps(ctx, upSteps)
				}
				return r.Up(ctx)
			})
		},
	}
	up.Flags().IntVar(&upSteps, "steps", 0, "Apply at most this many units (0 applies all)")

	var downSteps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert the latest applied units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if downSteps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			return a.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
				return r.Steps(ctx, -downSteps)
			})
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "Number of units to revert")

	gotoCmd := &cobra.Command{
		Use:   "goto VERSION",
		Short: "Migrate up or down to an exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return a.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
				return r.Goto(ctx, uint(version))
			})
		},
	}

	force := &cobra.Command{
		Use:   "force VERSION",
		Short: "Record VERSION as applied and clear the dirty flag",
		Long: `Record VERSION as the current version and clear the dirty flag, without running
any unit. Use -1 to record that no unit is applied.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			return a.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
				return r.Force(ctx, version)
			})
		},
	}

	var confirm bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Revert every applied unit, dropping all data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return errors.New("reset drops every table: pass --yes to confirm")
			}
			return a.withRunner(cmd.Context(), func(ctx context.Context, r *migrations.Runner) error {
				return r.Reset(ctx)
			})
		},
	}
	reset.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")

	status := &cobra.Command{
		Use:   "status",
		Short: "List every unit with its applied state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRunner(cmd.Context(), func(_ context.Context, r *migrations.Runner) error {
				return printStatus(cmd, a.outputFmt, r)
			})
		},
	}

	cmd.AddCommand(up, down, gotoCmd, force, reset, status)
	return cmd
}

// withRunner opens a runner guarded by the migration lock and closes it
// after fn.
func (a *app) withRunner(ctx context.Context, fn func(context.Context, *migrations.Runner) error) error {
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, closeDB, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	sqlDB, err := config.OpenMigrationDB(cfg.Database)
	if err != nil {
		return err
	}
	r, err := migrations.New(sqlDB, cfg.Database.Dialect,
		migrations.WithLocker(ha.NewMigrationLocker(db, ha.LockConfigFromEnv())),
		migrations.WithLogger(logger),
	)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = r.Close() }()

	return fn(ctx, r)
}

type statusOutput struct {
	Dialect string                  `json:"dialect"`
	Version uint                    `json:"version"`
	Dirty   bool                    `json:"dirty"`
	Units   []migrations.UnitStatus `json:"units"`
}

func printStatus(cmd *cobra.Command, format string, r *migrations.Runner) error {
	version, _, dirty, err := r.Version()
	if err != nil {
		return err
	}
	units, err := r.Status()
	if err != nil {
		return err
	}

	out := statusOutput{Dialect: string(r.Dialect()), Version: version, Dirty: dirty, Units: units}
	if structured(format) {
		return printOutput(cmd.OutOrStdout(), format, out)
	}

	rows := make([][]string, 0, len(out.Units))
	for _, u := range out.Units {
		current := ""
		if u.Current {
			current = "<-"
			if dirty {
				current = "<- dirty"
			}
		}
		rows = append(rows, []string{strconv.FormatUint(uint64(u.Version), 10), u.Name, yesNo(u.Applied), current})
	}
	printTable(cmd.OutOrStdout(), []string{"Version", "Name", "Applied", ""}, rows)
	return nil
}
