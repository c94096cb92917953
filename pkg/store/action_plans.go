package store

import (
	"context"
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// ActionPlanStore provides database operations for pluriannual action plans,
// their annual plans and their items.
type ActionPlanStore struct {
	db *gorm.DB
}

// NewActionPlanStore creates a new ActionPlanStore.
func NewActionPlanStore(db *gorm.DB) *ActionPlanStore {
	return &ActionPlanStore{db: db}
}

func orderByYear(db *gorm.DB) *gorm.DB { return db.Order("year, id") }
func orderByDisplay(db *gorm.DB) *gorm.DB { return db.Order("display_order, id") }

func preloadPlan(db *gorm.DB) *gorm.DB {
	return db.
		Preload("AnnualPlans", orderByYear).
		Preload("AnnualPlans.Items", orderByDisplay).
		Preload("Items", orderByDisplay)
}

// Create inserts a plan. Annual plans and items nested in p are inserted
// with it.
func (s *ActionPlanStore) Create(ctx context.Context, p *models.ActionPlan) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Campaign{}, p.CampaignID); err != nil {
			return err
		}
		return tx.Omit("Campaign").Create(p).Error
	})
	return wrap("create action plan", err)
}

// Get returns a plan with its annual plans and all items.
func (s *ActionPlanStore) Get(ctx context.Context, id uint) (*models.ActionPlan, error) {
	var p models.ActionPlan
	if err := preloadPlan(s.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, wrap("get action plan", err)
	}
	return &p, nil
}

func (s *ActionPlanStore) ListByCampaign(ctx context.Context, campaignID uint) ([]models.ActionPlan, error) {
	var out []models.ActionPlan
	err := preloadPlan(s.db.WithContext(ctx)).
		Where("campaign_id = ?", campaignID).
		Order("start_date, id").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list action plans", err)
	}
	return out, nil
}

// ListByUser returns every plan of the projects a user owns, with campaign,
// project, annual plans and items loaded.
func (s *ActionPlanStore) ListByUser(ctx context.Context, userID uint) ([]models.ActionPlan, error) {
	var out []models.ActionPlan
	err := preloadPlan(s.db.WithContext(ctx)).
		Preload("Campaign.Project").
		Joins("JOIN audit_campaign ON audit_campaign.id = action_plan.campaign_id").
		Joins("JOIN project ON project.id = audit_campaign.project_id").
		Where("project.user_id = ?", userID).
		Order("action_plan.id").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list action plans by user", err)
	}
	return out, nil
}

// Update writes the scalar and document columns of p.
func (s *ActionPlanStore) Update(ctx context.Context, p *models.ActionPlan) error {
	return updateAll(ctx, s.db, "update action plan", p)
}

// Delete removes a plan and, through the database, its annual plans and
// their items. Items attached directly to the plan are not cascaded: while
// any remain the delete fails with ErrReferenced.
func (s *ActionPlanStore) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, "delete action plan", &models.ActionPlan{}, id)
}

// AddAnnualPlan attaches an annual plan to a plan. A plan has at most one
// annual plan per year.
func (s *ActionPlanStore) AddAnnualPlan(ctx context.Context, planID uint, a *models.AnnualActionPlan) error {
	a.PluriAnnualPlanID = planID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan models.ActionPlan
		if err := tx.Select("id", "start_date", "end_date").First(&plan, planID).Error; err != nil {
			return err
		}
		first, last := time.Time(plan.StartDate).Year(), time.Time(plan.EndDate).Year()
		if a.Year < first || a.Year > last {
			return fmt.Errorf("%w: year %d is outside the plan (%d-%d)", ErrInvalidArgument, a.Year, first, last)
		}
		return tx.Omit(clause.Associations).Create(a).Error
	})
	return wrap("add annual plan", err)
}

// AddItem inserts an item under the parent recorded in it. Without an
// explicit display order the item is appended after its siblings.
func (s *ActionPlanStore) AddItem(ctx context.Context, item *models.ActionPlanItem) error {
	parent, err := item.Parent()
	if err != nil {
		return wrap("add action plan item", fmt.Errorf("%w: %w", ErrInvalidArgument, err))
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := parentExists(tx, parent); err != nil {
			return err
		}
		if item.DisplayOrder == 0 {
			var next int
			err := siblings(tx, parent).Select("COALESCE(MAX(display_order), -1) + 1").Scan(&next).Error
			if err != nil {
				return err
			}
			item.DisplayOrder = next
		}
		return tx.Create(item).Error
	})
	return wrap("add action plan item", err)
}

// ReorderItems sets the display order of every item under parent to its
// position in ids. ids must list each sibling exactly once.
func (s *ActionPlanStore) ReorderItems(ctx context.Context, parent models.ItemParent, ids []uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := parentExists(tx, parent); err != nil {
			return err
		}
		var current []uint
		if err := siblings(tx, parent).Pluck("id", &current).Error; err != nil {
			return err
		}
		want := mapset.NewThreadUnsafeSet(ids...)
		if want.Cardinality() != len(ids) || !want.Equal(mapset.NewThreadUnsafeSet(current...)) {
			return fmt.Errorf("%w: order must list each of the %d items once", ErrInvalidArgument, len(current))
		}
		now := time.Now()
		for pos, id := range ids {
			err := tx.Model(&models.ActionPlanItem{}).Where("id = ?", id).
				UpdateColumns(map[string]any{"display_order": pos, "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("reorder action plan items", err)
}

// DeleteItem removes one item.
func (s *ActionPlanStore) DeleteItem(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, "delete action plan item", &models.ActionPlanItem{}, id)
}

func parentExists(tx *gorm.DB, parent models.ItemParent) error {
	switch p := parent.(type) {
	case models.LegacyPlanParent:
		return exists(tx, &models.ActionPlan{}, p.PlanID)
	case models.AnnualPlanParent:
		return exists(tx, &models.AnnualActionPlan{}, p.AnnualPlanID)
	}
	return fmt.Errorf("%w: %w", ErrInvalidArgument, models.ErrInvalidParent)
}

func siblings(tx *gorm.DB, parent models.ItemParent) *gorm.DB {
	q := tx.Model(&models.ActionPlanItem{})
	if _, ok := parent.(models.LegacyPlanParent); ok {
		return q.Where("action_plan_id = ? AND annual_plan_id IS NULL", parent.ID())
	}
	return q.Where("annual_plan_id = ?", parent.ID())
}
