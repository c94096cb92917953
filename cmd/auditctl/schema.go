package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rgaa-audit/audit-manager/pkg/migrations"
	"github.com/rgaa-audit/audit-manager/pkg/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the database schema and the embedded migration log",
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the tables, columns, indexes and foreign keys of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			snap, err := schema.Inspect(cmd.Context(), db)
			if err != nil {
				return err
			}
			if structured(a.outputFmt) {
				return printOutput(cmd.OutOrStdout(), a.outputFmt, snap)
			}
			return snap.WriteText(cmd.OutOrStdout())
		},
	}

	var dialect string
	units := &cobra.Command{
		Use:   "units",
		Short: "List the embedded migration units of a dialect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := migrations.ParseDialect(dialect)
			if err != nil {
				return err
			}
			list, err := migrations.Units(d)
			if err != nil {
				return err
			}
			if structured(a.outputFmt) {
				return printOutput(cmd.OutOrStdout(), a.outputFmt, list)
			}
			rows := make([][]string, 0, len(list))
			for _, u := range list {
				rows = append(rows, []string{strconv.FormatUint(uint64(u.Version), 10), u.Name})
			}
			printTable(cmd.OutOrStdout(), []string{"Version", "Name"}, rows)
			return nil
		},
	}
	units.Flags().StringVar(&dialect, "dialect", string(migrations.DialectMySQL), "Dialect whose units to list: mysql or sqlite")

	cmd.AddCommand(dump, units)
	return cmd
}
