package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidParent is returned when an item is not attached to exactly one
// parent plan.
var ErrInvalidParent = errors.New("action plan item must belong to exactly one plan")

// ItemParent is the plan an ActionPlanItem belongs to: either a
// LegacyPlanParent or an AnnualPlanParent.
type ItemParent interface {
	isItemParent()
	// Kind is "legacy" or "annual".
	Kind() string
	ID() uint
}

// LegacyPlanParent attaches an item directly to a pluriannual plan.
type LegacyPlanParent struct {
	PlanID uint
}

func (LegacyPlanParent) isItemParent() {}
func (LegacyPlanParent) Kind() string { return "legacy" }
func (p LegacyPlanParent) ID() uint { return p.PlanID }

// AnnualPlanParent attaches an item to an annual plan.
type AnnualPlanParent struct {
	AnnualPlanID uint
}

func (AnnualPlanParent) isItemParent() {}
func (AnnualPlanParent) Kind() string { return "annual" }
func (p AnnualPlanParent) ID() uint { return p.AnnualPlanID }

// Parent decodes the two nullable parent columns.
func (i *ActionPlanItem) Parent() (ItemParent, error) {
	switch {
	case i.ActionPlanID != nil && i.AnnualPlanID == nil:
		return LegacyPlanParent{PlanID: *i.ActionPlanID}, nil
	case i.AnnualPlanID != nil && i.ActionPlanID == nil:
		return AnnualPlanParent{AnnualPlanID: *i.AnnualPlanID}, nil
	}
	return nil, ErrInvalidParent
}

// SetParent stores p into the parent columns, clearing the other one.
func (i *ActionPlanItem) SetParent(p ItemParent) {
	i.ActionPlanID, i.AnnualPlanID = nil, nil
	switch v := p.(type) {
	case LegacyPlanParent:
		id := v.PlanID
		i.ActionPlanID = &id
	case AnnualPlanParent:
		id := v.AnnualPlanID
		i.AnnualPlanID = &id
	}
}

type parentJSON struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

// MarshalJSON renders the parent columns as a single "parent" object.
func (i ActionPlanItem) MarshalJSON() ([]byte, error) {
	type plain ActionPlanItem
	out := struct {
		plain
		Parent *parentJSON `json:"parent,omitempty"`
	}{plain: plain(i)}
	if p, err := i.Parent(); err == nil {
		out.Parent = &parentJSON{Kind: p.Kind(), ID: p.ID()}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (i *ActionPlanItem) UnmarshalJSON(b []byte) error {
	type plain ActionPlanItem
	in := struct {
		*plain
		Parent *parentJSON `json:"parent"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in.Parent == nil {
		return nil
	}
	switch in.Parent.Kind {
	case "legacy":
		i.SetParent(LegacyPlanParent{PlanID: in.Parent.ID})
	case "annual":
		i.SetParent(AnnualPlanParent{AnnualPlanID: in.Parent.ID})
	default:
		return fmt.Errorf("%w: unknown parent kind %q", ErrInvalidParent, in.Parent.Kind)
	}
	return nil
}
