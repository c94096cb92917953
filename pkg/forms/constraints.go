package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

// Constraint is a validation rule attached to a field. Apart from NotBlank,
// constraints accept a blank value; combine them with NotBlank to require one.
type Constraint interface {
	// Type names the constraint in exported descriptors.
	Type() string
	// check returns the rendered violation message, or "" when value passes.
	check(v *validator.Validate, value string, form Values) string
}

// NotBlank rejects empty and whitespace-only values.
type NotBlank struct {
	Message string `json:"message"`
}

func (NotBlank) Type() string { return "NotBlank" }

func (c NotBlank) check(v *validator.Validate, value string, _ Values) string {
	if v.Var(strings.TrimSpace(value), "required") != nil {
		return render(c.Message, value, nil)
	}
	return ""
}

// Length bounds the number of characters of a value. A zero bound is not
// checked.
type Length struct {
	Min        int    `json:"min,omitempty"`
	Max        int    `json:"max,omitempty"`
	MinMessage string `json:"minMessage,omitempty"`
	MaxMessage string `json:"maxMessage,omitempty"`
}

func (Length) Type() string { return "Length" }

func (c Length) check(v *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	if c.Min > 0 && v.Var(value, "min="+strconv.Itoa(c.Min)) != nil {
		return render(c.MinMessage, value, map[string]string{"limit": strconv.Itoa(c.Min)})
	}
	if c.Max > 0 && v.Var(value, "max="+strconv.Itoa(c.Max)) != nil {
		return render(c.MaxMessage, value, map[string]string{"limit": strconv.Itoa(c.Max)})
	}
	return ""
}

// Choice restricts a value to the field's choices.
type Choice struct {
	Choices []string `json:"choices"`
	Message string   `json:"message"`
}

func (Choice) Type() string { return "Choice" }

func (c Choice) check(v *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	if v.Var(value, "oneof="+strings.Join(c.Choices, " ")) != nil {
		return render(c.Message, value, nil)
	}
	return ""
}

// Regex requires a value to match Pattern.
type Regex struct {
	Pattern string `json:"pattern"`
	Message string `json:"message"`

	re *regexp.Regexp
}

// NewRegex compiles pattern. It panics on an invalid pattern.
func NewRegex(pattern, message string) Regex {
	return Regex{Pattern: pattern, Message: message, re: regexp.MustCompile(pattern)}
}

func (Regex) Type() string { return "Regex" }

func (c Regex) check(_ *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	re := c.re
	if re == nil {
		re = regexp.MustCompile(c.Pattern)
	}
	if !re.MatchString(value) {
		return render(c.Message, value, nil)
	}
	return ""
}

// Date requires a calendar date in DateLayout.
type Date struct {
	Message string `json:"message"`
}

func (Date) Type() string { return "Date" }

func (c Date) check(v *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	if v.Var(value, "datetime="+DateLayout) != nil {
		return render(c.Message, value, nil)
	}
	return ""
}

// DateNotBefore requires a date to be on or after the date held by Field.
// Nothing is checked while either date is missing or malformed.
type DateNotBefore struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (DateNotBefore) Type() string { return "DateNotBefore" }

func (c DateNotBefore) check(v *validator.Validate, value string, form Values) string {
	end, err := time.Parse(DateLayout, value)
	if err != nil {
		return ""
	}
	start, err := time.Parse(DateLayout, form[c.Field])
	if err != nil {
		return ""
	}
	if v.VarWithValue(end, start, "gtefield") != nil {
		return render(c.Message, value, map[string]string{"compared_value": form[c.Field]})
	}
	return ""
}

// URL requires an absolute http or https URL.
type URL struct {
	Message string `json:"message"`
}

func (URL) Type() string { return "Url" }

func (c URL) check(v *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	if v.Var(value, "http_url") != nil {
		return render(c.Message, value, nil)
	}
	return ""
}

// Range bounds a numeric value, inclusively.
type Range struct {
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Integer           bool    `json:"integer,omitempty"`
	NotInRangeMessage string  `json:"notInRangeMessage"`
	InvalidMessage    string  `json:"invalidMessage"`
}

func (Range) Type() string { return "Range" }

func (c Range) check(v *validator.Validate, value string, _ Values) string {
	if value == "" {
		return ""
	}
	params := map[string]string{"min": formatNumber(c.Min), "max": formatNumber(c.Max)}
	if v.Var(value, "numeric") != nil {
		return render(c.InvalidMessage, value, params)
	}
	// numeric admits a fractional part; integers must not carry one
	if c.Integer && v.Var(value, "excludes=.") != nil {
		return render(c.InvalidMessage, value, params)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return render(c.InvalidMessage, value, params)
	}
	if v.Var(f, fmt.Sprintf("gte=%s,lte=%s", params["min"], params["max"])) != nil {
		return render(c.NotInRangeMessage, value, params)
	}
	return ""
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// render resolves the {{ value }} placeholder and every {{ key }} of params.
func render(tpl, value string, params map[string]string) string {
	pairs := []string{"{{ value }}", strconv.Quote(value)}
	for k, p := range params {
		pairs = append(pairs, "{{ "+k+" }}", p)
	}
	return strings.NewReplacer(pairs...).Replace(tpl)
}
