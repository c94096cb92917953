package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/rgaa-audit/audit-manager/pkg/models"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

func newDiagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag",
		Short: "Ad-hoc diagnostics for manual verification",
	}

	var email string
	plans := &cobra.Command{
		Use:   "action-plans",
		Short: "List the action plans of a user with their campaign, project and items",
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

			st := store.New(db)
			u, err := st.Users.FindByEmail(cmd.Context(), email)
			if err != nil {
				glog.Fatalf("User %q not found: %v", email, err)
			}
			list, err := st.ActionPlans.ListByUser(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			if structured(a.outputFmt) {
				return printOutput(cmd.OutOrStdout(), a.outputFmt, list)
			}
			writeActionPlanReport(cmd.OutOrStdout(), u, list)
			return nil
		},
	}
	plans.Flags().StringVar(&email, "email", "", "Email of the user")
	_ = plans.MarkFlagRequired("email")

	cmd.AddCommand(plans)
	return cmd
}

// writeActionPlanReport prints one row per plan followed by totals.
func writeActionPlanReport(w io.Writer, u *models.User, plans []models.ActionPlan) {
	fmt.Fprintf(w, "User: %s (id %d)\n", u.Email, u.ID)
	fmt.Fprintf(w, "Action plans: %d\n\n", len(plans))
	if len(plans) == 0 {
		return
	}

	var annualTotal, itemTotal int
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		campaign, project := "-", "-"
		if p.Campaign != nil {
			campaign = p.Campaign.Name
			if p.Campaign.Project != nil {
				project = p.Campaign.Project.Name
			}
		}
		items := len(p.Items)
		for _, a := range p.AnnualPlans {
			items += len(a.Items)
		}
		annualTotal += len(p.AnnualPlans)
		itemTotal += items
		rows = append(rows, []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.Name,
			string(p.Status),
			time.Time(p.StartDate).Format(time.DateOnly) + " / " + time.Time(p.EndDate).Format(time.DateOnly),
			campaign,
			project,
			strconv.Itoa(len(p.AnnualPlans)),
			strconv.Itoa(len(p.Items)),
			strconv.Itoa(items),
		})
	}
	printTable(w, []string{"ID", "Name", "Status", "Period", "Campaign", "Project", "Annual plans", "Legacy items", "Items"}, rows)
	fmt.Fprintf(w, "\nTotal: %d annual plans, %d items\n", annualTotal, itemTotal)
}
