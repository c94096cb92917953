package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// AuditStore provides database operations for page audits.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Create(ctx context.Context, a *models.Audit) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.CampaignID != nil {
			if err := exists(tx, &models.Campaign{}, *a.CampaignID); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(a).Error
	})
	return wrap("create audit", err)
}

// Get returns an audit with its manual checks.
func (s *AuditStore) Get(ctx context.Context, id uint) (*models.Audit, error) {
	var a models.Audit
	err := s.db.WithContext(ctx).
		Preload("ManualChecks", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&a, id).Error
	if err != nil {
		return nil, wrap("get audit", err)
	}
	return &a, nil
}

func (s *AuditStore) ListByCampaign(ctx context.Context, campaignID uint) ([]models.Audit, error) {
	var out []models.Audit
	err := s.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("id").Find(&out).Error
	if err != nil {
		return nil, wrap("list audits", err)
	}
	return out, nil
}

// SetScope changes the part of the page an audit covers.
func (s *AuditStore) SetScope(ctx context.Context, id uint, scope models.AuditScope) error {
	if _, err := models.ParseAuditScope(string(scope)); err != nil {
		return fmt.Errorf("set audit scope: %w: %w", ErrInvalidArgument, err)
	}
	return s.updateColumns(ctx, "set audit scope", id, map[string]any{"audit_scope": scope})
}

// MarkNotTested adds criteria to the audit's not-tested list. Criteria
// already listed are kept once.
func (s *AuditStore) MarkNotTested(ctx context.Context, id uint, criteria ...string) (models.CriteriaRefs, error) {
	refs := models.CriteriaRefs(criteria).Normalize()
	if err := refs.Validate(); err != nil {
		return nil, fmt.Errorf("mark criteria not tested: %w: %w", ErrInvalidArgument, err)
	}

	var merged models.CriteriaRefs
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Audit
		if err := tx.Select("id", "not_tested_criteria").First(&a, id).Error; err != nil {
			return err
		}
		merged = append(a.NotTestedCriteria, refs...).Normalize()
		return tx.Model(&models.Audit{}).Where("id = ?", id).UpdateColumns(map[string]any{
			"not_tested_criteria": merged,
			"updated_at":          time.Now(),
		}).Error
	})
	if err != nil {
		return nil, wrap("mark criteria not tested", err)
	}
	return merged, nil
}

func (s *AuditStore) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, "delete audit", &models.Audit{}, id)
}

func (s *AuditStore) updateColumns(ctx context.Context, op string, id uint, cols map[string]any) error {
	cols["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Audit{}).Where("id = ?", id).UpdateColumns(cols)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(op, gorm.ErrRecordNotFound)
	}
	return nil
}

// ManualCheckStore provides database operations for manual checks.
type ManualCheckStore struct {
	db *gorm.DB
}

// NewManualCheckStore creates a new ManualCheckStore.
func NewManualCheckStore(db *gorm.DB) *ManualCheckStore {
	return &ManualCheckStore{db: db}
}

// Upsert records the verdict for one criterion of an audit, replacing any
// earlier verdict for the same criterion.
func (s *ManualCheckStore) Upsert(ctx context.Context, auditID uint, criterion string, status models.CheckStatus, notes *string) (*models.ManualCheck, error) {
	check := &models.ManualCheck{AuditID: auditID, CriteriaNumber: criterion, Status: status, Notes: notes}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Audit{}, auditID); err != nil {
			return err
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "audit_id"}, {Name: "criteria_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "notes", "updated_at"}),
		}).Create(check).Error
		if err != nil {
			return err
		}
		var stored models.ManualCheck
		if err := tx.Where("audit_id = ? AND criteria_number = ?", auditID, check.CriteriaNumber).First(&stored).Error; err != nil {
			return err
		}
		*check = stored
		return nil
	})
	if err != nil {
		return nil, wrap("upsert manual check", err)
	}
	return check, nil
}

func (s *ManualCheckStore) ListByAudit(ctx context.Context, auditID uint) ([]models.ManualCheck, error) {
	var out []models.ManualCheck
	if err := s.db.WithContext(ctx).Where("audit_id = ?", auditID).Order("id").Find(&out).Error; err != nil {
		return nil, wrap("list manual checks", err)
	}
	return out, nil
}
