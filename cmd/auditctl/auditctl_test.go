package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rgaa-audit/audit-manager/internal/dbtest"
	"github.com/rgaa-audit/audit-manager/pkg/migrations"
	"github.com/rgaa-audit/audit-manager/pkg/models"
	"github.com/rgaa-audit/audit-manager/pkg/store"
)

// run executes auditctl against the SQLite file dsn and returns its stdout.
func run(t *testing.T, dsn string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--db-dialect", "sqlite", "--db-dsn", dsn))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func status(t *testing.T, dsn string) statusOutput {
	t.Helper()
	out, err := run(t, dsn, "migrate", "status", "-o", "json")
	require.NoError(t, err)
	var s statusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	return s
}

func TestMigrateCommands(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "audit.db")

	_, err := run(t, dsn, "migrate", "up")
	require.NoError(t, err)

	s := status(t, dsn)
	assert.Equal(t, "sqlite", s.Dialect)
	assert.EqualValues(t, 20240422150000, s.Version)
	assert.False(t, s.Dirty)
	require.Len(t, s.Units, 10)
	for _, u := range s.Units {
		assert.True(t, u.Applied, u.Name)
	}

	_, err = run(t, dsn, "migrate", "down", "--steps", "2")
	require.NoError(t, err)
	s = status(t, dsn)
	assert.EqualValues(t, 20240325120000, s.Version)
	assert.False(t, s.Units[9].Applied)
	assert.True(t, s.Units[7].Current)

	_, err = run(t, dsn, "migrate", "goto", "20240408094500")
	require.NoError(t, err)
	assert.EqualValues(t, 20240408094500, status(t, dsn).Version)

	out, err := run(t, dsn, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "restructure_annual_action_plan")
	assert.Contains(t, out, "<-")

	_, err = run(t, dsn, "migrate", "reset")
	assert.ErrorContains(t, err, "--yes")

	_, err = run(t, dsn, "migrate", "reset", "--yes")
	require.NoError(t, err)
	s = status(t, dsn)
	assert.EqualValues(t, 0, s.Version)
	for _, u := range s.Units {
		assert.False(t, u.Applied, u.Name)
	}

	_, err = run(t, dsn, "migrate", "goto", "latest")
	assert.Error(t, err)
}

func TestSchemaDump(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "audit.db")
	_, err := run(t, dsn, "migrate", "up")
	require.NoError(t, err)

	out, err := run(t, dsn, "schema", "dump")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE action_plan_item")
	assert.Contains(t, out, "audit_scope")
	assert.NotContains(t, out, "TABLE schema_migrations")

	out, err = run(t, dsn, "schema", "dump", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "dialect: sqlite")
}

func TestSchemaUnits(t *testing.T) {
	out, err := run(t, "unused.db", "schema", "units", "--dialect", "mysql", "-o", "json")
	require.NoError(t, err)
	var units []migrations.Unit
	require.NoError(t, json.Unmarshal([]byte(out), &units))
	require.Len(t, units, 10)
	assert.Equal(t, "baseline", units[0].Name)

	_, err = run(t, "unused.db", "schema", "units", "--dialect", "oracle")
	assert.Error(t, err)
}

func TestMissingDSN(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "up", "--db-dialect", "sqlite"})
	t.Setenv("AUDIT_DB_DSN", "")
	err := root.Execute()
	assert.ErrorContains(t, err, "database DSN is required")
}

func TestWriteActionPlanReport(t *testing.T) {
	ctx := context.Background()
	st := store.New(dbtest.New(t))

	u := &models.User{Email: "auditrice@example.org"}
	require.NoError(t, st.Users.Create(ctx, u))
	p := &models.Project{UserID: u.ID, Name: "Portail citoyen"}
	require.NoError(t, st.Projects.Create(ctx, p))
	c := &models.Campaign{ProjectID: p.ID, Name: "Campagne 2024"}
	require.NoError(t, st.Campaigns.Create(ctx, c))
	plan := &models.ActionPlan{
		CampaignID: c.ID,
		Name:       "PPA 2024-2025",
		StartDate:  datatypes.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:    datatypes.Date(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, st.ActionPlans.Create(ctx, plan))
	annual := &models.AnnualActionPlan{Year: 2024, Title: "Année 1"}
	require.NoError(t, st.ActionPlans.AddAnnualPlan(ctx, plan.ID, annual))
	for _, title := range []string{"Contrastes", "Formulaires"} {
		item := &models.ActionPlanItem{Title: title, Category: models.CategoryQuickWin,
			Severity: models.SeverityMajor, Priority: models.PriorityHigh, Year: 2024}
		item.SetParent(models.AnnualPlanParent{AnnualPlanID: annual.ID})
		require.NoError(t, st.ActionPlans.AddItem(ctx, item))
	}

	plans, err := st.ActionPlans.ListByUser(ctx, u.ID)
	require.NoError(t, err)

	var buf bytes.Buffer
	writeActionPlanReport(&buf, u, plans)
	out := buf.String()
	assert.Contains(t, out, "User: auditrice@example.org")
	assert.Contains(t, out, "Action plans: 1")
	assert.Contains(t, out, "Portail citoyen")
	assert.Contains(t, out, "2024-01-01 / 2025-12-31")
	assert.Contains(t, out, "Total: 1 annual plans, 2 items")

	buf.Reset()
	writeActionPlanReport(&buf, u, nil)
	assert.Equal(t, "User: auditrice@example.org (id 1)\nAction plans: 0\n\n", buf.String())
}
