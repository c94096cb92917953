package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ErrInvalid is wrapped by every FieldError.
var ErrInvalid = errors.New("invalid model")

// FieldError reports a rule violated by one field of a model on write.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

func fieldErr(field, format string, args ...any) error {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// GORM runs BeforeSave ahead of BeforeCreate, so defaults are applied here
// before validation.

func (p *Project) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if strings.TrimSpace(p.Name) == "" {
		return fieldErr("name", "must not be blank")
	}
	if p.Color != nil && !colorPattern.MatchString(*p.Color) {
		return fieldErr("color", "%q is not a #rrggbb color", *p.Color)
	}
	return nil
}

func (c *Campaign) BeforeSave(tx *gorm.DB) error {
	if c.Status == "" {
		c.Status = CampaignDraft
	}
	if c.SampleType == "" {
		c.SampleType = SampleCustom
	}
	if strings.TrimSpace(c.Name) == "" {
		return fieldErr("name", "must not be blank")
	}
	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return fieldErr("end_date", "must not be before start_date")
	}
	return nil
}

func (a *Audit) BeforeSave(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = AuditPending
	}
	if a.Scope == "" {
		a.Scope = ScopeFull
	}
	if strings.TrimSpace(a.URL) == "" {
		return fieldErr("url", "must not be blank")
	}
	a.NotTestedCriteria = a.NotTestedCriteria.Normalize()
	if err := a.NotTestedCriteria.Validate(); err != nil {
		return fieldErr("not_tested_criteria", "%v", err)
	}
	if r := a.ConformityRate; r != nil && (*r < 0 || *r > 100) {
		return fieldErr("conformity_rate", "%.2f is outside 0..100", *r)
	}
	return nil
}

func (m *ManualCheck) BeforeSave(tx *gorm.DB) error {
	if !ValidCriterion(m.CriteriaNumber) {
		return fieldErr("criteria_number", "%q is not an RGAA criterion number", m.CriteriaNumber)
	}
	if m.Status == "" {
		m.Status = CheckNotTested
	}
	return nil
}

// Plans span one to ten years.
const (
	MinPlanYears = 1
	MaxPlanYears = 10
)

func (p *ActionPlan) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = PlanDraft
	}
	if p.DurationYears == 0 {
		p.DurationYears = 3
	}
	if strings.TrimSpace(p.Name) == "" {
		return fieldErr("name", "must not be blank")
	}
	if p.DurationYears < MinPlanYears || p.DurationYears > MaxPlanYears {
		return fieldErr("duration_years", "%d is outside %d..%d", p.DurationYears, MinPlanYears, MaxPlanYears)
	}
	start, end := time.Time(p.StartDate), time.Time(p.EndDate)
	if start.IsZero() || end.IsZero() {
		return fieldErr("start_date", "start and end dates are required")
	}
	if end.Before(start) {
		return fieldErr("end_date", "must not be before start_date")
	}
	for _, r := range []struct {
		field string
		rate  *float64
	}{
		{"current_conformity_rate", p.CurrentConformityRate},
		{"target_conformity_rate", p.TargetConformityRate},
	} {
		if r.rate != nil && (*r.rate < 0 || *r.rate > 100) {
			return fieldErr(r.field, "%.2f is outside 0..100", *r.rate)
		}
	}
	// The schema accepts any pair of rates; a plan never aims below where it starts.
	if cur, target := p.CurrentConformityRate, p.TargetConformityRate; cur != nil && target != nil && *target < *cur {
		return fieldErr("target_conformity_rate", "%.2f is below the current rate %.2f", *target, *cur)
	}
	for _, doc := range []struct {
		field string
		doc   interface{ Validate() error }
	}{
		{"strategic_orientations", p.StrategicOrientations},
		{"progress_axes", p.ProgressAxes},
		{"annual_objectives", p.AnnualObjectives},
		{"resources", p.Resources},
		{"indicators", p.Indicators},
	} {
		if err := doc.doc.Validate(); err != nil {
			return fieldErr(doc.field, "%v", err)
		}
	}
	return nil
}

func (a *AnnualActionPlan) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(a.Title) == "" {
		return fieldErr("title", "must not be blank")
	}
	if a.Year < 2000 || a.Year > 2100 {
		return fieldErr("year", "%d is out of range", a.Year)
	}
	if err := a.Objectives.Validate(); err != nil {
		return fieldErr("objectives", "%v", err)
	}
	return nil
}

func (i *ActionPlanItem) BeforeSave(tx *gorm.DB) error {
	if i.Status == "" {
		i.Status = ItemPlanned
	}
	if _, err := i.Parent(); err != nil {
		return fieldErr("parent", "%v", err)
	}
	if strings.TrimSpace(i.Title) == "" {
		return fieldErr("title", "must not be blank")
	}
	if i.Year < 2000 || i.Year > 2100 {
		return fieldErr("year", "%d is out of range", i.Year)
	}
	if q := i.Quarter; q != nil && (*q < 1 || *q > 4) {
		return fieldErr("quarter", "%d is outside 1..4", *q)
	}
	if e := i.EstimatedEffort; e != nil && (*e < 1 || *e > 5) {
		return fieldErr("estimated_effort", "%d is outside 1..5", *e)
	}
	if s := i.ImpactScore; s != nil && (*s < 1 || *s > 5) {
		return fieldErr("impact_score", "%d is outside 1..5", *s)
	}
	if i.DisplayOrder < 0 {
		return fieldErr("display_order", "must not be negative")
	}
	if err := i.AffectedPages.Validate(); err != nil {
		return fieldErr("affected_pages", "%v", err)
	}
	i.RGAACriteria = i.RGAACriteria.Normalize()
	if err := i.RGAACriteria.Validate(); err != nil {
		return fieldErr("rgaa_criteria", "%v", err)
	}
	return nil
}
