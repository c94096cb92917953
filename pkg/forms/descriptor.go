// Package forms declares the form descriptors of the audit manager: per
// field widget, label, HTML attributes and validation constraints. The
// descriptors are exported to the front end as JSON and validate submitted
// values before they are bound onto models.
package forms

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Widget is the input kind a field renders as.
type Widget string

const (
	WidgetText     Widget = "text"
	WidgetTextarea Widget = "textarea"
	WidgetDate     Widget = "date"
	WidgetChoice   Widget = "choice"
	WidgetURL      Widget = "url"
	WidgetColor    Widget = "color"
	WidgetNumber   Widget = "number"
)

// FormKey collects violations that belong to no single field.
const FormKey = "_form"

// Option is one entry of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes one input of a form.
type Field struct {
	Name        string            `json:"name"`
	Widget      Widget            `json:"widget"`
	Label       string            `json:"label"`
	Help        string            `json:"help,omitempty"`
	Required    bool              `json:"required"`
	Attr        map[string]string `json:"attr,omitempty"`
	Choices     []Option          `json:"choices,omitempty"`
	Default     string            `json:"default,omitempty"`
	Constraints []Constraint      `json:"-"`
}

type constraintJSON struct {
	Type    string     `json:"type"`
	Options Constraint `json:"options"`
}

// MarshalJSON adds the constraints, tagged with their type, to the field.
func (f Field) MarshalJSON() ([]byte, error) {
	type plain Field
	cs := make([]constraintJSON, 0, len(f.Constraints))
	for _, c := range f.Constraints {
		cs = append(cs, constraintJSON{Type: c.Type(), Options: c})
	}
	return json.Marshal(struct {
		plain
		Constraints []constraintJSON `json:"constraints"`
	}{plain(f), cs})
}

// Values is a form submission keyed by field name.
type Values map[string]string

// ValuesFromJSON flattens a decoded JSON object into form values. Strings
// are kept as is, numbers and booleans are formatted and null becomes "".
func ValuesFromJSON(m map[string]any) (Values, error) {
	out := make(Values, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = t
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case json.Number:
			out[k] = t.String()
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			return nil, fmt.Errorf("field %q: unsupported value of type %T", k, v)
		}
	}
	return out, nil
}

// Violations maps a field name to its rendered violation messages.
type Violations map[string][]string

// Add records msg against field.
func (v Violations) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Empty reports whether no violation was recorded.
func (v Violations) Empty() bool { return len(v) == 0 }

// Error lists the violations, sorted by field.
func (v Violations) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], "; "))
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

// Descriptor is a named form.
type Descriptor struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	validate *validator.Validate
}

// NewDescriptor builds a descriptor over fields.
func NewDescriptor(name string, fields ...Field) *Descriptor {
	return &Descriptor{Name: name, Fields: fields, validate: validator.New()}
}

// Field returns the field called name.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// WithDefaults returns a copy of values in which every field with a default
// that is missing or blank holds that default.
func (d *Descriptor) WithDefaults(values Values) Values {
	out := make(Values, len(d.Fields))
	for k, v := range values {
		out[k] = v
	}
	for _, f := range d.Fields {
		if f.Default != "" && strings.TrimSpace(out[f.Name]) == "" {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Validate checks values against every constraint of the form. It returns
// nil when values are valid. Values for fields the form does not declare
// are reported under FormKey.
func (d *Descriptor) Validate(values Values) Violations {
	violations := Violations{}
	for _, f := range d.Fields {
		value := values[f.Name]
		for _, c := range f.Constraints {
			if msg := c.check(d.validate, value, values); msg != "" {
				violations.Add(f.Name, msg)
			}
		}
	}
	var extra []string
	for k := range values {
		if _, ok := d.Field(k); !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		violations.Add(FormKey, render(msgExtraFields, strings.Join(extra, ", "), nil))
	}
	if violations.Empty() {
		return nil
	}
	return violations
}

// Registry maps form names to descriptors.
type Registry struct {
	byName map[string]*Descriptor
}

// NewRegistry indexes descriptors by name. Later descriptors replace earlier
// ones of the same name.
func NewRegistry(descriptors ...*Descriptor) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.byName[d.Name] = d
	}
	return r
}

// DefaultRegistry holds every form of the application.
func DefaultRegistry() *Registry {
	return NewRegistry(CampaignType(), ProjectType(), ActionPlanType())
}

// Lookup returns the descriptor called name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns the registered form names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
