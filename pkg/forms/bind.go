package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// ErrBind is returned when validated values still cannot be copied onto a
// model.
var ErrBind = errors.New("cannot bind form values")

// Bind validates values against d after filling defaults, and on success
// copies them onto target through bind. Failures of bind wrap ErrBind.
func Bind[T any](d *Descriptor, values Values, target *T, bind func(Values, *T) error) error {
	values = d.WithDefaults(values)
	if v := d.Validate(values); v != nil {
		return v
	}
	if err := bind(values, target); err != nil {
		return fmt.Errorf("%w: %w", ErrBind, err)
	}
	return nil
}

// BindCampaign copies validated campaign values onto c.
func BindCampaign(values Values, c *models.Campaign) error {
	var err error
	c.Name = strings.TrimSpace(values["name"])
	c.Description = optional(values["description"])
	if c.StartDate, err = optionalDate(values["start_date"]); err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	if c.EndDate, err = optionalDate(values["end_date"]); err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	if c.Status, err = models.ParseCampaignStatus(values["status"]); err != nil {
		return err
	}
	if c.SampleType, err = models.ParseSampleType(values["sample_type"]); err != nil {
		return err
	}
	return nil
}

// BindProject copies validated project values onto p.
func BindProject(values Values, p *models.Project) error {
	var err error
	p.Name = strings.TrimSpace(values["name"])
	p.Client = optional(values["client"])
	p.Description = optional(values["description"])
	p.URL = optional(values["url"])
	p.Color = optional(strings.ToLower(values["color"]))
	if p.Status, err = models.ParseProjectStatus(values["status"]); err != nil {
		return err
	}
	return nil
}

// BindActionPlan copies validated plan values onto p.
func BindActionPlan(values Values, p *models.ActionPlan) error {
	p.Name = strings.TrimSpace(values["name"])
	p.Description = optional(values["description"])
	start, err := time.Parse(DateLayout, values["start_date"])
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	end, err := time.Parse(DateLayout, values["end_date"])
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}
	p.StartDate, p.EndDate = datatypes.Date(start), datatypes.Date(end)
	if s := values["duration_years"]; s != "" {
		if p.DurationYears, err = strconv.Atoi(s); err != nil {
			return fmt.Errorf("duration_years: %w", err)
		}
	}
	if p.CurrentConformityRate, err = optionalFloat(values["current_conformity_rate"]); err != nil {
		return fmt.Errorf("current_conformity_rate: %w", err)
	}
	if p.TargetConformityRate, err = optionalFloat(values["target_conformity_rate"]); err != nil {
		return fmt.Errorf("target_conformity_rate: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func optionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
