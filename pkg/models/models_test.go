package models

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

func ptr[T any](v T) *T { return &v }

func TestModelSchemasParse(t *testing.T) {
	cache := &sync.Map{}
	for _, m := range []any{
		&User{}, &Project{}, &Campaign{}, &Audit{}, &ManualCheck{},
		&VisualErrorCriteria{}, &ActionPlan{}, &AnnualActionPlan{}, &ActionPlanItem{},
	} {
		_, err := schema.Parse(m, cache, schema.NamingStrategy{})
		require.NoError(t, err, "%T", m)
	}

	columns := []struct {
		model    any
		field    string
		dataType schema.DataType
	}{
		{&Audit{}, "NotTestedCriteria", "json"},
		{&ActionPlan{}, "StrategicOrientations", "json"},
		{&ActionPlan{}, "ProgressAxes", "json"},
		{&ActionPlan{}, "AnnualObjectives", "json"},
		{&ActionPlan{}, "Resources", "json"},
		{&ActionPlan{}, "Indicators", "json"},
		{&AnnualActionPlan{}, "Objectives", "json"},
		{&ActionPlanItem{}, "AffectedPages", "json"},
		{&ActionPlanItem{}, "RGAACriteria", "json"},
		{&VisualErrorCriteria{}, "WCAGCriteria", schema.String},
	}
	for _, c := range columns {
		s, err := schema.Parse(c.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)
		f := s.LookUpField(c.field)
		require.NotNil(t, f, "%T.%s", c.model, c.field)
		assert.Equal(t, c.dataType, f.DataType, "%T.%s", c.model, c.field)
		assert.NotContains(t, s.Relationships.Relations, c.field, "documents are columns, not relations")
	}
}

func TestParseEnumsRejectUnknownValues(t *testing.T) {
	s, err := ParseAuditScope("main_content")
	require.NoError(t, err)
	assert.Equal(t, ScopeMainContent, s)

	_, err = ParseAuditScope("partial")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseCampaignStatus("")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseSampleType("Custom")
	assert.ErrorIs(t, err, ErrInvalidEnum, "values are case sensitive")
}

func TestEnumScanAndValue(t *testing.T) {
	var status ProjectStatus
	require.NoError(t, status.Scan([]byte("archived")))
	assert.Equal(t, ProjectArchived, status)

	assert.ErrorIs(t, status.Scan("deleted"), ErrInvalidEnum)
	assert.ErrorIs(t, status.Scan(42), ErrInvalidEnum)

	v, err := SeverityMajor.Value()
	require.NoError(t, err)
	assert.Equal(t, "major", v)

	_, err = Severity("blocker").Value()
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestEnumJSONDecoding(t *testing.T) {
	var in struct {
		Category ItemCategory `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category":"quick_win"}`), &in))
	assert.Equal(t, CategoryQuickWin, in.Category)

	err := json.Unmarshal([]byte(`{"category":"misc"}`), &in)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestEnumListsAreCopies(t *testing.T) {
	scopes := AuditScopes()
	scopes[0] = "mutated"
	assert.Equal(t, ScopeFull, AuditScopes()[0])
	assert.Len(t, CampaignStatuses(), 4)
	assert.Len(t, SampleTypes(), 3)
	assert.Len(t, ProjectStatuses(), 3)
}

func TestCriteriaRefs(t *testing.T) {
	refs := CriteriaRefs{"1.3", " 1.3", "10.11", "8.2"}.Normalize()
	assert.Equal(t, CriteriaRefs{"1.3", "10.11", "8.2"}, refs)
	require.NoError(t, refs.Validate())

	assert.ErrorIs(t, CriteriaRefs{"1.3.1"}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, CriteriaRefs{"0.1"}.Validate(), ErrInvalidDocument)

	v, err := refs.Value()
	require.NoError(t, err)
	assert.Equal(t, `["1.3","10.11","8.2"]`, v)

	var nilRefs CriteriaRefs
	v, err = nilRefs.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var scanned CriteriaRefs
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	require.NoError(t, scanned.Scan(`["4.1"]`))
	assert.Equal(t, CriteriaRefs{"4.1"}, scanned)
	assert.Error(t, scanned.Scan(3.5))
}

func TestAffectedPages(t *testing.T) {
	require.NoError(t, AffectedPages{"https://example.org/contact", "http://example.org"}.Validate())
	assert.ErrorIs(t, AffectedPages{"/contact"}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, AffectedPages{"ftp://example.org"}.Validate(), ErrInvalidDocument)

	_, err := AffectedPages{"example.org"}.Value()
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestPlanDocumentsValidate(t *testing.T) {
	assert.NoError(t, StrategicOrientations{{Title: "Former les équipes", Priority: PriorityHigh}}.Validate())
	assert.ErrorIs(t, StrategicOrientations{{Title: "x", Priority: "urgent"}}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, StrategicOrientations{{Priority: PriorityLow}}.Validate(), ErrInvalidDocument)

	assert.ErrorIs(t, ProgressAxes{{Title: "Images", Criteria: CriteriaRefs{"x"}}}.Validate(), ErrInvalidDocument)

	assert.NoError(t, AnnualObjectives{{Year: 2024, Objective: "50%"}, {Year: 2025, Objective: "75%", TargetConformityRate: ptr(75.0)}}.Validate())
	assert.ErrorIs(t, AnnualObjectives{{Year: 2024, Objective: "a"}, {Year: 2024, Objective: "b"}}.Validate(), ErrInvalidDocument)
	assert.ErrorIs(t, AnnualObjectives{{Year: 2024, Objective: "a", TargetConformityRate: ptr(120.0)}}.Validate(), ErrInvalidDocument)

	assert.NoError(t, Resources{{Kind: ResourceBudget, Label: "Audit externe", Amount: ptr(12000.0), Unit: "EUR"}}.Validate())
	assert.ErrorIs(t, Resources{{Kind: "money", Label: "x"}}.Validate(), ErrInvalidDocument)

	assert.ErrorIs(t, Indicators{{Name: "taux"}, {Name: "taux"}}.Validate(), ErrInvalidDocument)

	var res Resources
	require.NoError(t, res.Scan(`[{"kind":"human","label":"Référent"}]`))
	assert.Equal(t, Resources{{Kind: ResourceHuman, Label: "Référent"}}, res)
}

func TestCommaList(t *testing.T) {
	var l CommaList
	require.NoError(t, l.Scan("1.3.1, 4.1.2"))
	assert.Equal(t, CommaList{"1.3.1", "4.1.2"}, l)

	v, err := l.Value()
	require.NoError(t, err)
	assert.Equal(t, "1.3.1,4.1.2", v)
}

func TestItemParent(t *testing.T) {
	var item ActionPlanItem
	_, err := item.Parent()
	assert.ErrorIs(t, err, ErrInvalidParent)

	item.SetParent(AnnualPlanParent{AnnualPlanID: 7})
	p, err := item.Parent()
	require.NoError(t, err)
	assert.Equal(t, AnnualPlanParent{AnnualPlanID: 7}, p)
	assert.Nil(t, item.ActionPlanID)

	item.SetParent(LegacyPlanParent{PlanID: 3})
	p, err = item.Parent()
	require.NoError(t, err)
	assert.Equal(t, "legacy", p.Kind())
	assert.EqualValues(t, 3, p.ID())
	assert.Nil(t, item.AnnualPlanID)

	item.AnnualPlanID = ptr(uint(7))
	_, err = item.Parent()
	assert.ErrorIs(t, err, ErrInvalidParent, "both columns set")
}

func TestItemJSONCarriesParent(t *testing.T) {
	item := ActionPlanItem{ID: 1, Title: "Ajouter les alternatives", Category: CategoryContent,
		Severity: SeverityMajor, Priority: PriorityHigh, Year: 2024, Status: ItemPlanned}
	item.SetParent(AnnualPlanParent{AnnualPlanID: 9})

	b, err := json.Marshal(item)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"parent":{"kind":"annual","id":9}`)
	assert.NotContains(t, string(b), "annualPlanId")

	var back ActionPlanItem
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, ptr(uint(9)), back.AnnualPlanID)
	assert.Equal(t, item.Title, back.Title)

	err = json.Unmarshal([]byte(`{"parent":{"kind":"orphan","id":1}}`), &back)
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestActionPlanBeforeSave(t *testing.T) {
	start := datatypes.Date(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	end := datatypes.Date(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC))
	valid := func() *ActionPlan {
		return &ActionPlan{Name: "PPA 2024-2026", StartDate: start, EndDate: end,
			CurrentConformityRate: ptr(42.5), TargetConformityRate: ptr(75.0)}
	}

	plan := valid()
	require.NoError(t, plan.BeforeSave(nil))
	assert.Equal(t, PlanDraft, plan.Status)
	assert.Equal(t, 3, plan.DurationYears)

	cases := map[string]func(p *ActionPlan){
		"target_conformity_rate": func(p *ActionPlan) { p.TargetConformityRate = ptr(30.0) },
		"duration_years":         func(p *ActionPlan) { p.DurationYears = 11 },
		"end_date":               func(p *ActionPlan) { p.EndDate, p.StartDate = start, end },
		"name":                   func(p *ActionPlan) { p.Name = "  " },
		"resources":              func(p *ActionPlan) { p.Resources = Resources{{Kind: ResourceTool}} },
	}
	for field, mutate := range cases {
		p := valid()
		mutate(p)
		err := p.BeforeSave(nil)
		var fe *FieldError
		require.True(t, errors.As(err, &fe), field)
		assert.Equal(t, field, fe.Field)
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestActionPlanItemBeforeSave(t *testing.T) {
	valid := func() *ActionPlanItem {
		item := &ActionPlanItem{Title: "Contraste des boutons", Category: CategoryQuickWin,
			Severity: SeverityCritical, Priority: PriorityHigh, Year: 2025,
			Quarter: ptr(2), EstimatedEffort: ptr(1), ImpactScore: ptr(5),
			RGAACriteria: CriteriaRefs{"3.2", "3.2"}}
		item.SetParent(AnnualPlanParent{AnnualPlanID: 1})
		return item
	}

	item := valid()
	require.NoError(t, item.BeforeSave(nil))
	assert.Equal(t, ItemPlanned, item.Status)
	assert.Equal(t, CriteriaRefs{"3.2"}, item.RGAACriteria)

	cases := map[string]func(i *ActionPlanItem){
		"parent":           func(i *ActionPlanItem) { i.ActionPlanID = ptr(uint(1)) },
		"quarter":          func(i *ActionPlanItem) { i.Quarter = ptr(5) },
		"estimated_effort": func(i *ActionPlanItem) { i.EstimatedEffort = ptr(0) },
		"impact_score":     func(i *ActionPlanItem) { i.ImpactScore = ptr(6) },
		"affected_pages":   func(i *ActionPlanItem) { i.AffectedPages = AffectedPages{"contact"} },
		"rgaa_criteria":    func(i *ActionPlanItem) { i.RGAACriteria = CriteriaRefs{"13"} },
		"display_order":    func(i *ActionPlanItem) { i.DisplayOrder = -1 },
	}
	for field, mutate := range cases {
		i := valid()
		mutate(i)
		var fe *FieldError
		require.True(t, errors.As(i.BeforeSave(nil), &fe), field)
		assert.Equal(t, field, fe.Field)
	}
}

func TestProjectAndCampaignBeforeSave(t *testing.T) {
	p := &Project{Name: "Site vitrine", Color: ptr("#3b82f6")}
	require.NoError(t, p.BeforeSave(nil))
	assert.Equal(t, ProjectActive, p.Status)

	p.Color = ptr("blue")
	assert.ErrorIs(t, p.BeforeSave(nil), ErrInvalid)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := &Campaign{Name: "Campagne 2024", StartDate: &start, EndDate: ptr(start.AddDate(0, 1, 0))}
	require.NoError(t, c.BeforeSave(nil))
	assert.Equal(t, CampaignDraft, c.Status)
	assert.Equal(t, SampleCustom, c.SampleType)

	c.EndDate = ptr(start.AddDate(0, 0, -1))
	assert.ErrorIs(t, c.BeforeSave(nil), ErrInvalid)
}

func TestAuditAndManualCheckBeforeSave(t *testing.T) {
	a := &Audit{URL: "https://example.org", NotTestedCriteria: CriteriaRefs{"1.1", "1.1"}}
	require.NoError(t, a.BeforeSave(nil))
	assert.Equal(t, ScopeFull, a.Scope)
	assert.Equal(t, AuditPending, a.Status)
	assert.Equal(t, CriteriaRefs{"1.1"}, a.NotTestedCriteria)

	m := &ManualCheck{CriteriaNumber: "11.1"}
	require.NoError(t, m.BeforeSave(nil))
	assert.Equal(t, CheckNotTested, m.Status)

	m.CriteriaNumber = "eleven"
	assert.ErrorIs(t, m.BeforeSave(nil), ErrInvalid)
}
