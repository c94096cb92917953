package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// VisualErrorCriteriaStore reads the visual error reference table and keeps
// its detection counters.
type VisualErrorCriteriaStore struct {
	db *gorm.DB
}

// NewVisualErrorCriteriaStore creates a new VisualErrorCriteriaStore.
func NewVisualErrorCriteriaStore(db *gorm.DB) *VisualErrorCriteriaStore {
	return &VisualErrorCriteriaStore{db: db}
}

// List returns every mapping ordered by error type.
func (s *VisualErrorCriteriaStore) List(ctx context.Context) ([]models.VisualErrorCriteria, error) {
	var out []models.VisualErrorCriteria
	if err := s.db.WithContext(ctx).Order("error_type").Find(&out).Error; err != nil {
		return nil, wrap("list visual error criteria", err)
	}
	return out, nil
}

func (s *VisualErrorCriteriaStore) FindByErrorType(ctx context.Context, errorType string) (*models.VisualErrorCriteria, error) {
	var v models.VisualErrorCriteria
	if err := s.db.WithContext(ctx).Where("error_type = ?", errorType).First(&v).Error; err != nil {
		return nil, wrap("find visual error criteria", err)
	}
	return &v, nil
}

// RecordDetection increments the detection counter of a known error type and
// returns the updated mapping. Unknown error types are not inserted: they
// yield ErrNotFound.
func (s *VisualErrorCriteriaStore) RecordDetection(ctx context.Context, errorType string) (*models.VisualErrorCriteria, error) {
	res := s.db.WithContext(ctx).Model(&models.VisualErrorCriteria{}).
		Where("error_type = ?", errorType).
		UpdateColumns(map[string]any{
			"detection_count": gorm.Expr("detection_count + 1"),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return nil, wrap("record detection", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, wrap("record detection", gorm.ErrRecordNotFound)
	}
	return s.FindByErrorType(ctx, errorType)
}
