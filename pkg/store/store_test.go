package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rgaa-audit/audit-manager/internal/dbtest"
	"github.com/rgaa-audit/audit-manager/pkg/models"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	ctx      context.Context
	store    *Store
	user     *models.User
	project  *models.Project
	campaign *models.Campaign
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ctx: context.Background(), store: New(dbtest.New(t))}

	f.user = &models.User{Email: "auditrice@example.org", Roles: []string{"ROLE_USER"}}
	require.NoError(t, f.store.Users.Create(f.ctx, f.user))

	f.project = &models.Project{UserID: f.user.ID, Name: "Portail citoyen", Color: ptr("#3b82f6")}
	require.NoError(t, f.store.Projects.Create(f.ctx, f.project))

	f.campaign = &models.Campaign{ProjectID: f.project.ID, Name: "Campagne 2024"}
	require.NoError(t, f.store.Campaigns.Create(f.ctx, f.campaign))
	return f
}

func (f *fixture) newPlan(t *testing.T) *models.ActionPlan {
	t.Helper()
	plan := &models.ActionPlan{
		CampaignID:            f.campaign.ID,
		Name:                  "PPA 2024-2026",
		StartDate:             datatypes.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:               datatypes.Date(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
		CurrentConformityRate: ptr(41.5),
		TargetConformityRate:  ptr(80.0),
		StrategicOrientations: models.StrategicOrientations{{Title: "Former les contributeurs", Priority: models.PriorityHigh}},
	}
	require.NoError(t, f.store.ActionPlans.Create(f.ctx, plan))
	return plan
}

func newItem(title string, parent models.ItemParent) *models.ActionPlanItem {
	item := &models.ActionPlanItem{
		Title:    title,
		Category: models.CategoryContent,
		Severity: models.SeverityMajor,
		Priority: models.PriorityMedium,
		Year:     2024,
	}
	item.SetParent(parent)
	return item
}

func TestUserStore(t *testing.T) {
	f := setupFixture(t)

	got, err := f.store.Users.FindByEmail(f.ctx, " auditrice@example.org ")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.ID)
	assert.Equal(t, []string{"ROLE_USER"}, []string(got.Roles))

	_, err = f.store.Users.FindByEmail(f.ctx, "nobody@example.org")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.store.Users.Get(f.ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.store.Users.Create(f.ctx, &models.User{Email: "auditrice@example.org"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestProjectStore(t *testing.T) {
	f := setupFixture(t)

	got, err := f.store.Projects.Get(f.ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectActive, got.Status)
	require.Len(t, got.Campaigns, 1)

	other := &models.Project{UserID: f.user.ID, Name: "Intranet", Status: models.ProjectArchived}
	require.NoError(t, f.store.Projects.Create(f.ctx, other))

	all, err := f.store.Projects.List(f.ctx, ProjectFilter{UserID: f.user.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Intranet", all[0].Name)

	archived, err := f.store.Projects.List(f.ctx, ProjectFilter{Status: models.ProjectArchived})
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, other.ID, archived[0].ID)

	got.Client = ptr("Ville de Lyon")
	got.Status = models.ProjectCompleted
	require.NoError(t, f.store.Projects.Update(f.ctx, got))
	reloaded, err := f.store.Projects.Get(f.ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ville de Lyon", *reloaded.Client)
	assert.Equal(t, models.ProjectCompleted, reloaded.Status)
	assert.Equal(t, f.project.CreatedAt.Unix(), reloaded.CreatedAt.Unix())
	for range 2 {
		require.NoError(t, f.store.Projects.Update(f.ctx, reloaded), "rewriting identical values is not a miss")
	}

	got.Color = ptr("bleu")
	assert.ErrorIs(t, f.store.Projects.Update(f.ctx, got), models.ErrInvalid)

	missing := &models.Project{ID: 999, UserID: f.user.ID, Name: "Fantôme"}
	assert.ErrorIs(t, f.store.Projects.Update(f.ctx, missing), ErrNotFound)

	require.NoError(t, f.store.Projects.Delete(f.ctx, other.ID))
	assert.ErrorIs(t, f.store.Projects.Delete(f.ctx, other.ID), ErrNotFound)
}

func TestCampaignStoreCreateRequiresProject(t *testing.T) {
	f := setupFixture(t)
	err := f.store.Campaigns.Create(f.ctx, &models.Campaign{ProjectID: 999, Name: "Orpheline"})
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := f.store.Campaigns.Get(f.ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignDraft, c.Status)
	assert.Equal(t, models.SampleCustom, c.SampleType)
	require.NotNil(t, c.Project)
	assert.Equal(t, f.project.ID, c.Project.ID)

	list, err := f.store.Campaigns.ListByProject(f.ctx, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCampaignRefreshAggregates(t *testing.T) {
	f := setupFixture(t)

	for _, a := range []*models.Audit{
		{UserID: f.user.ID, CampaignID: &f.campaign.ID, URL: "https://example.org/", ConformityRate: ptr(50.0),
			TotalIssues: 10, CriticalCount: 2, MajorCount: 5, MinorCount: 3},
		{UserID: f.user.ID, CampaignID: &f.campaign.ID, URL: "https://example.org/contact", ConformityRate: ptr(75.25),
			TotalIssues: 4, CriticalCount: 0, MajorCount: 1, MinorCount: 3},
		{UserID: f.user.ID, CampaignID: &f.campaign.ID, URL: "https://example.org/plan"},
	} {
		require.NoError(t, f.store.Audits.Create(f.ctx, a))
	}

	c, err := f.store.Campaigns.RefreshAggregates(f.ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, c.TotalPages)
	require.NotNil(t, c.AvgConformityRate)
	assert.InDelta(t, 62.63, *c.AvgConformityRate, 0.001)
	assert.Equal(t, 14, c.TotalIssues)
	assert.Equal(t, 2, c.CriticalCount)
	assert.Equal(t, 6, c.MajorCount)
	assert.Equal(t, 6, c.MinorCount)
	assert.Len(t, c.Audits, 3)

	_, err = f.store.Campaigns.RefreshAggregates(f.ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCampaignKeepsAudits(t *testing.T) {
	f := setupFixture(t)
	a := &models.Audit{UserID: f.user.ID, CampaignID: &f.campaign.ID, URL: "https://example.org/"}
	require.NoError(t, f.store.Audits.Create(f.ctx, a))
	f.newPlan(t)

	require.NoError(t, f.store.Campaigns.Delete(f.ctx, f.campaign.ID))

	got, err := f.store.Audits.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CampaignID)

	plans, err := f.store.ActionPlans.ListByCampaign(f.ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestAuditStore(t *testing.T) {
	f := setupFixture(t)
	a := &models.Audit{UserID: f.user.ID, CampaignID: &f.campaign.ID, URL: "https://example.org/", PageType: ptr("home")}
	require.NoError(t, f.store.Audits.Create(f.ctx, a))
	assert.Equal(t, models.ScopeFull, a.Scope)

	require.NoError(t, f.store.Audits.SetScope(f.ctx, a.ID, models.ScopeMainContent))
	assert.ErrorIs(t, f.store.Audits.SetScope(f.ctx, a.ID, "partial"), ErrInvalidArgument)
	assert.ErrorIs(t, f.store.Audits.SetScope(f.ctx, 999, models.ScopeFull), ErrNotFound)

	refs, err := f.store.Audits.MarkNotTested(f.ctx, a.ID, "1.3", "4.1")
	require.NoError(t, err)
	assert.Equal(t, models.CriteriaRefs{"1.3", "4.1"}, refs)
	refs, err = f.store.Audits.MarkNotTested(f.ctx, a.ID, "4.1", "8.2")
	require.NoError(t, err)
	assert.Equal(t, models.CriteriaRefs{"1.3", "4.1", "8.2"}, refs)

	_, err = f.store.Audits.MarkNotTested(f.ctx, a.ID, "quatre")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	got, err := f.store.Audits.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScopeMainContent, got.Scope)
	assert.Equal(t, models.CriteriaRefs{"1.3", "4.1", "8.2"}, got.NotTestedCriteria)

	list, err := f.store.Audits.ListByCampaign(f.ctx, f.campaign.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	err = f.store.Audits.Create(f.ctx, &models.Audit{UserID: f.user.ID, CampaignID: ptr(uint(999)), URL: "https://example.org/"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.store.Audits.Delete(f.ctx, a.ID))
	_, err = f.store.Audits.Get(f.ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManualCheckUpsert(t *testing.T) {
	f := setupFixture(t)
	a := &models.Audit{UserID: f.user.ID, URL: "https://example.org/"}
	require.NoError(t, f.store.Audits.Create(f.ctx, a))

	first, err := f.store.ManualChecks.Upsert(f.ctx, a.ID, "1.1", models.CheckNonConform, ptr("logo sans alternative"))
	require.NoError(t, err)
	second, err := f.store.ManualChecks.Upsert(f.ctx, a.ID, "1.1", models.CheckConform, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.CheckConform, second.Status)
	assert.Nil(t, second.Notes)

	_, err = f.store.ManualChecks.Upsert(f.ctx, a.ID, "3.2", models.CheckNotApplicable, nil)
	require.NoError(t, err)

	checks, err := f.store.ManualChecks.ListByAudit(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, checks, 2)

	_, err = f.store.ManualChecks.Upsert(f.ctx, a.ID, "un", models.CheckConform, nil)
	assert.ErrorIs(t, err, models.ErrInvalid)
	_, err = f.store.ManualChecks.Upsert(f.ctx, 999, "1.1", models.CheckConform, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.store.Audits.Delete(f.ctx, a.ID))
	checks, err = f.store.ManualChecks.ListByAudit(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, checks, "manual checks cascade with their audit")
}

func TestVisualErrorCriteriaStore(t *testing.T) {
	f := setupFixture(t)

	all, err := f.store.VisualErrors.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	label, err := f.store.VisualErrors.FindByErrorType(f.ctx, "form-label-missing")
	require.NoError(t, err)
	assert.Equal(t, models.CommaList{"1.3.1", "4.1.2"}, label.WCAGCriteria)
	assert.Equal(t, models.CommaList{"11.1"}, label.RGAACriteria)

	for i := 1; i <= 2; i++ {
		got, err := f.store.VisualErrors.RecordDetection(f.ctx, "text-in-image")
		require.NoError(t, err)
		assert.Equal(t, i, got.DetectionCount)
		assert.False(t, got.AutoLearned)
	}

	_, err = f.store.VisualErrors.RecordDetection(f.ctx, "blinking-marquee")
	assert.ErrorIs(t, err, ErrNotFound)
	all, err = f.store.VisualErrors.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10, "unknown error types are not learned")
}

func TestActionPlanLifecycle(t *testing.T) {
	f := setupFixture(t)
	plan := f.newPlan(t)
	assert.Equal(t, models.PlanDraft, plan.Status)
	assert.Equal(t, 3, plan.DurationYears)

	y2024 := &models.AnnualActionPlan{Year: 2024, Title: "Année 1", Objectives: models.TextList{"Corriger les contrastes"}}
	require.NoError(t, f.store.ActionPlans.AddAnnualPlan(f.ctx, plan.ID, y2024))
	y2025 := &models.AnnualActionPlan{Year: 2025, Title: "Année 2"}
	require.NoError(t, f.store.ActionPlans.AddAnnualPlan(f.ctx, plan.ID, y2025))

	err := f.store.ActionPlans.AddAnnualPlan(f.ctx, plan.ID, &models.AnnualActionPlan{Year: 2024, Title: "Doublon"})
	assert.ErrorIs(t, err, ErrConflict)
	err = f.store.ActionPlans.AddAnnualPlan(f.ctx, plan.ID, &models.AnnualActionPlan{Year: 2030, Title: "Hors plan"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = f.store.ActionPlans.AddAnnualPlan(f.ctx, 999, &models.AnnualActionPlan{Year: 2024, Title: "Sans plan"})
	assert.ErrorIs(t, err, ErrNotFound)

	annual := models.AnnualPlanParent{AnnualPlanID: y2024.ID}
	a := newItem("Contraste des boutons", annual)
	b := newItem("Alternatives des images", annual)
	c := newItem("Libellés de formulaire", annual)
	for _, item := range []*models.ActionPlanItem{a, b, c} {
		require.NoError(t, f.store.ActionPlans.AddItem(f.ctx, item))
	}
	assert.Equal(t, []int{0, 1, 2}, []int{a.DisplayOrder, b.DisplayOrder, c.DisplayOrder})
	assert.Nil(t, a.ActionPlanID, "annual items have no legacy link")

	require.NoError(t, f.store.ActionPlans.ReorderItems(f.ctx, annual, []uint{c.ID, a.ID, b.ID}))
	assert.ErrorIs(t, f.store.ActionPlans.ReorderItems(f.ctx, annual, []uint{c.ID, a.ID}), ErrInvalidArgument)
	assert.ErrorIs(t, f.store.ActionPlans.ReorderItems(f.ctx, annual, []uint{c.ID, c.ID, a.ID}), ErrInvalidArgument)

	got, err := f.store.ActionPlans.Get(f.ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.AnnualPlans, 2)
	assert.Equal(t, 2024, got.AnnualPlans[0].Year)
	titles := make([]string, 0, 3)
	for _, item := range got.AnnualPlans[0].Items {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"Libellés de formulaire", "Contraste des boutons", "Alternatives des images"}, titles)
	assert.Equal(t, models.TextList{"Corriger les contrastes"}, got.AnnualPlans[0].Objectives)
	assert.Equal(t, "Former les contributeurs", got.StrategicOrientations[0].Title)
	assert.Empty(t, got.Items)

	err = f.store.ActionPlans.AddItem(f.ctx, &models.ActionPlanItem{Title: "Orphelin", Category: models.CategoryContent,
		Severity: models.SeverityMinor, Priority: models.PriorityLow, Year: 2024})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = f.store.ActionPlans.AddItem(f.ctx, newItem("Fantôme", models.AnnualPlanParent{AnnualPlanID: 999}))
	assert.ErrorIs(t, err, ErrNotFound)

	got.TargetConformityRate = ptr(10.0)
	assert.ErrorIs(t, f.store.ActionPlans.Update(f.ctx, got), models.ErrInvalid)
	got.TargetConformityRate = ptr(90.0)
	got.Status = models.PlanActive
	require.NoError(t, f.store.ActionPlans.Update(f.ctx, got))
}

func TestDeleteActionPlanCascadesAnnualPlansOnly(t *testing.T) {
	f := setupFixture(t)
	plan := f.newPlan(t)

	y := &models.AnnualActionPlan{Year: 2024, Title: "Année 1"}
	require.NoError(t, f.store.ActionPlans.AddAnnualPlan(f.ctx, plan.ID, y))
	annualItem := newItem("Titres de page", models.AnnualPlanParent{AnnualPlanID: y.ID})
	require.NoError(t, f.store.ActionPlans.AddItem(f.ctx, annualItem))
	legacyItem := newItem("Ancien élément", models.LegacyPlanParent{PlanID: plan.ID})
	require.NoError(t, f.store.ActionPlans.AddItem(f.ctx, legacyItem))

	got, err := f.store.ActionPlans.Get(f.ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, legacyItem.ID, got.Items[0].ID)

	err = f.store.ActionPlans.Delete(f.ctx, plan.ID)
	assert.ErrorIs(t, err, ErrReferenced, "legacy items block the delete")

	require.NoError(t, f.store.ActionPlans.DeleteItem(f.ctx, legacyItem.ID))
	require.NoError(t, f.store.ActionPlans.Delete(f.ctx, plan.ID))

	_, err = f.store.ActionPlans.Get(f.ctx, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.store.ActionPlans.DeleteItem(f.ctx, annualItem.ID), ErrNotFound, "annual items cascade")
}

func TestListActionPlansByUser(t *testing.T) {
	f := setupFixture(t)
	plan := f.newPlan(t)
	require.NoError(t, f.store.ActionPlans.AddItem(f.ctx, newItem("Ancien élément", models.LegacyPlanParent{PlanID: plan.ID})))

	other := &models.User{Email: "autre@example.org"}
	require.NoError(t, f.store.Users.Create(f.ctx, other))
	otherProject := &models.Project{UserID: other.ID, Name: "Autre site"}
	require.NoError(t, f.store.Projects.Create(f.ctx, otherProject))
	otherCampaign := &models.Campaign{ProjectID: otherProject.ID, Name: "Autre campagne"}
	require.NoError(t, f.store.Campaigns.Create(f.ctx, otherCampaign))
	require.NoError(t, f.store.ActionPlans.Create(f.ctx, &models.ActionPlan{
		CampaignID: otherCampaign.ID,
		Name:       "Autre PPA",
		StartDate:  datatypes.Date(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:    datatypes.Date(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
	}))

	plans, err := f.store.ActionPlans.ListByUser(f.ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plan.ID, plans[0].ID)
	require.NotNil(t, plans[0].Campaign)
	require.NotNil(t, plans[0].Campaign.Project)
	assert.Equal(t, "Portail citoyen", plans[0].Campaign.Project.Name)
	assert.Len(t, plans[0].Items, 1)

	none, err := f.store.ActionPlans.ListByUser(f.ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteUserCascades(t *testing.T) {
	f := setupFixture(t)
	f.newPlan(t)

	require.NoError(t, f.store.ActionPlans.db.Delete(&models.User{}, f.user.ID).Error)

	_, err := f.store.Projects.Get(f.ctx, f.project.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.Campaigns.Get(f.ctx, f.campaign.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
