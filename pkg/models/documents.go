package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrInvalidDocument is returned when a structured document column fails
// its schema on write.
var ErrInvalidDocument = errors.New("invalid document")

func scanJSON(kind string, dst any, value any) error {
	var b []byte
	switch v := value.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported type for %s: %T", kind, value)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
}

var criterionPattern = regexp.MustCompile(`^[1-9][0-9]?\.[1-9][0-9]?$`)

// ValidCriterion reports whether s is an RGAA criterion number such as "1.3"
// or "10.11".
func ValidCriterion(s string) bool {
	return criterionPattern.MatchString(s)
}

// CriteriaRefs is a list of RGAA criterion numbers stored as a JSON array.
type CriteriaRefs []string

// Normalize trims entries and removes duplicates, keeping the first occurrence.
func (c CriteriaRefs) Normalize() CriteriaRefs {
	if c == nil {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make(CriteriaRefs, 0, len(c))
	for _, ref := range c {
		ref = strings.TrimSpace(ref)
		if seen.Add(ref) {
			out = append(out, ref)
		}
	}
	return out
}

// Validate checks every entry of the criteria refs.
func (c CriteriaRefs) Validate() error {
	for _, ref := range c {
		if !ValidCriterion(ref) {
			return invalidf("criterion %q is not an RGAA criterion number", ref)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for CriteriaRefs.
func (c *CriteriaRefs) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}
	return scanJSON("criteria refs", c, value)
}

// Value implements the driver.Valuer interface for CriteriaRefs.
func (c CriteriaRefs) Value() (driver.Value, error) {
	if c == nil {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]string(c))
}

// GormDataType stores CriteriaRefs in a JSON column.
func (CriteriaRefs) GormDataType() string { return "json" }

// AffectedPages lists the absolute http(s) URLs a remediation item concerns.
type AffectedPages []string

// Validate checks every entry of the affected pages.
func (p AffectedPages) Validate() error {
	for _, raw := range p {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalidf("affected page %q is not an absolute http(s) URL", raw)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for AffectedPages.
func (p *AffectedPages) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}
	return scanJSON("affected pages", p, value)
}

// Value implements the driver.Valuer interface for AffectedPages.
func (p AffectedPages) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]string(p))
}

// GormDataType stores AffectedPages in a JSON column.
func (AffectedPages) GormDataType() string { return "json" }

// TextList is a list of non-blank strings stored as a JSON array.
type TextList []string

// Validate rejects blank entries.
func (l TextList) Validate() error {
	for i, s := range l {
		if strings.TrimSpace(s) == "" {
			return invalidf("entry %d is blank", i)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for TextList.
func (l *TextList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	return scanJSON("text list", l, value)
}

// Value implements the driver.Valuer interface for TextList.
func (l TextList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]string(l))
}

// GormDataType stores TextList in a JSON column.
func (TextList) GormDataType() string { return "json" }

// StrategicOrientation is one long-term direction of a pluriannual plan.
type StrategicOrientation struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
}

// StrategicOrientations is stored as a JSON array.
type StrategicOrientations []StrategicOrientation

// Validate checks every entry of the strategic orientations.
func (o StrategicOrientations) Validate() error {
	for i, v := range o {
		if strings.TrimSpace(v.Title) == "" {
			return invalidf("strategic orientation %d has no title", i)
		}
		if _, err := ParsePriority(string(v.Priority)); err != nil {
			return invalidf("strategic orientation %d: %v", i, err)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for StrategicOrientations.
func (o *StrategicOrientations) Scan(value any) error {
	if value == nil {
		*o = nil
		return nil
	}
	return scanJSON("strategic orientations", o, value)
}

// Value implements the driver.Valuer interface for StrategicOrientations.
func (o StrategicOrientations) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]StrategicOrientation(o))
}

// GormDataType stores StrategicOrientations in a JSON column.
func (StrategicOrientations) GormDataType() string { return "json" }

// ProgressAxis groups the criteria a plan intends to improve together.
type ProgressAxis struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Criteria    CriteriaRefs `json:"criteria,omitempty"`
}

// ProgressAxes is stored as a JSON array.
type ProgressAxes []ProgressAxis

// Validate checks every entry of the progress axes.
func (a ProgressAxes) Validate() error {
	for i, v := range a {
		if strings.TrimSpace(v.Title) == "" {
			return invalidf("progress axis %d has no title", i)
		}
		if err := v.Criteria.Validate(); err != nil {
			return fmt.Errorf("progress axis %d: %w", i, err)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for ProgressAxes.
func (a *ProgressAxes) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	return scanJSON("progress axes", a, value)
}

// Value implements the driver.Valuer interface for ProgressAxes.
func (a ProgressAxes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]ProgressAxis(a))
}

// GormDataType stores ProgressAxes in a JSON column.
func (ProgressAxes) GormDataType() string { return "json" }

// AnnualObjective is the conformity target of one year of a plan.
type AnnualObjective struct {
	Year                 int      `json:"year"`
	Objective            string   `json:"objective"`
	TargetConformityRate *float64 `json:"targetConformityRate,omitempty"`
}

// AnnualObjectives holds at most one objective per year, stored as a JSON
// array.
type AnnualObjectives []AnnualObjective

// Validate checks every entry of the annual objectives.
func (a AnnualObjectives) Validate() error {
	years := mapset.NewThreadUnsafeSet[int]()
	for i, v := range a {
		if v.Year < 2000 || v.Year > 2100 {
			return invalidf("annual objective %d: year %d out of range", i, v.Year)
		}
		if !years.Add(v.Year) {
			return invalidf("annual objective %d: year %d listed twice", i, v.Year)
		}
		if strings.TrimSpace(v.Objective) == "" {
			return invalidf("annual objective %d is blank", i)
		}
		if r := v.TargetConformityRate; r != nil && (*r < 0 || *r > 100) {
			return invalidf("annual objective %d: conformity rate %.2f out of range", i, *r)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for AnnualObjectives.
func (a *AnnualObjectives) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	return scanJSON("annual objectives", a, value)
}

// Value implements the driver.Valuer interface for AnnualObjectives.
func (a AnnualObjectives) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]AnnualObjective(a))
}

// GormDataType stores AnnualObjectives in a JSON column.
func (AnnualObjectives) GormDataType() string { return "json" }

// ResourceKind classifies a resource allocated to a plan.
type ResourceKind string

const (
	ResourceHuman    ResourceKind = "human"
	ResourceBudget   ResourceKind = "budget"
	ResourceTool     ResourceKind = "tool"
	ResourceTraining ResourceKind = "training"
)

var resourceKinds = []ResourceKind{ResourceHuman, ResourceBudget, ResourceTool, ResourceTraining}

// UnmarshalText rejects unknown resource kinds.
func (k *ResourceKind) UnmarshalText(b []byte) (err error) {
	*k, err = parseEnum("resource kind", resourceKinds, string(b))
	return err
}

// Resource is a person, budget line, tool or training allocated to a plan.
type Resource struct {
	Kind   ResourceKind `json:"kind"`
	Label  string       `json:"label"`
	Amount *float64     `json:"amount,omitempty"`
	Unit   string       `json:"unit,omitempty"`
}

// Resources is stored as a JSON array.
type Resources []Resource

// Validate checks every entry of the resources.
func (r Resources) Validate() error {
	for i, v := range r {
		if _, err := parseEnum("resource kind", resourceKinds, string(v.Kind)); err != nil {
			return invalidf("resource %d: %v", i, err)
		}
		if strings.TrimSpace(v.Label) == "" {
			return invalidf("resource %d has no label", i)
		}
		if v.Amount != nil && *v.Amount < 0 {
			return invalidf("resource %d: negative amount", i)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for Resources.
func (r *Resources) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}
	return scanJSON("resources", r, value)
}

// Value implements the driver.Valuer interface for Resources.
func (r Resources) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]Resource(r))
}

// GormDataType stores Resources in a JSON column.
func (Resources) GormDataType() string { return "json" }

// Indicator is a measurable signal used to follow a plan.
type Indicator struct {
	Name     string   `json:"name"`
	Unit     string   `json:"unit,omitempty"`
	Baseline *float64 `json:"baseline,omitempty"`
	Target   *float64 `json:"target,omitempty"`
}

// Indicators holds uniquely named indicators, stored as a JSON array.
type Indicators []Indicator

// Validate checks every entry of the indicators.
func (in Indicators) Validate() error {
	names := mapset.NewThreadUnsafeSet[string]()
	for i, v := range in {
		name := strings.TrimSpace(v.Name)
		if name == "" {
			return invalidf("indicator %d has no name", i)
		}
		if !names.Add(name) {
			return invalidf("indicator %q listed twice", name)
		}
	}
	return nil
}

// Scan implements the sql.Scanner interface for Indicators.
func (in *Indicators) Scan(value any) error {
	if value == nil {
		*in = nil
		return nil
	}
	return scanJSON("indicators", in, value)
}

// Value implements the driver.Valuer interface for Indicators.
func (in Indicators) Value() (driver.Value, error) {
	if in == nil {
		return nil, nil
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return jsonValue([]Indicator(in))
}

// GormDataType stores Indicators in a JSON column.
func (Indicators) GormDataType() string { return "json" }

// CommaList is a list stored as a comma separated string, as the
// visual_error_criteria reference columns are.
type CommaList []string

// Scan implements the sql.Scanner interface for CommaList.
func (l *CommaList) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported type for CommaList: %T", value)
	}
	*l = nil
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// Value implements the driver.Valuer interface for CommaList.
func (l CommaList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

// GormDataType stores CommaList in a text column.
func (CommaList) GormDataType() string { return "string" }
