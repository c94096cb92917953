package store

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// CampaignStore provides database operations for audit campaigns.
type CampaignStore struct {
	db *gorm.DB
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(db *gorm.DB) *CampaignStore {
	return &CampaignStore{db: db}
}

// Create inserts a campaign. The project must exist.
func (s *CampaignStore) Create(ctx context.Context, c *models.Campaign) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Project{}, c.ProjectID); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(c).Error
	})
	return wrap("create campaign", err)
}

// Get returns a campaign with its project and audits.
func (s *CampaignStore) Get(ctx context.Context, id uint) (*models.Campaign, error) {
	var c models.Campaign
	err := s.db.WithContext(ctx).
		Preload("Project").
		Preload("Audits", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&c, id).Error
	if err != nil {
		return nil, wrap("get campaign", err)
	}
	return &c, nil
}

// ListByProject returns the campaigns of a project, most recent first.
func (s *CampaignStore) ListByProject(ctx context.Context, projectID uint) ([]models.Campaign, error) {
	var out []models.Campaign
	err := s.db.WithContext(ctx).Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").Find(&out).Error
	if err != nil {
		return nil, wrap("list campaigns", err)
	}
	return out, nil
}

// Update writes every column of c, which must already exist.
func (s *CampaignStore) Update(ctx context.Context, c *models.Campaign) error {
	return updateAll(ctx, s.db, "update campaign", c)
}

// Delete removes a campaign and its action plans. Audits of the campaign are
// kept with their campaign link cleared.
func (s *CampaignStore) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, "delete campaign", &models.Campaign{}, id)
}

type campaignAggregates struct {
	Pages    int
	AvgRate  *float64
	Issues   int
	Critical int
	Major    int
	Minor    int
}

// RefreshAggregates recomputes the page count, average conformity rate and
// issue counters of a campaign from its audits.
func (s *CampaignStore) RefreshAggregates(ctx context.Context, id uint) (*models.Campaign, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := exists(tx, &models.Campaign{}, id); err != nil {
			return err
		}
		var agg campaignAggregates
		err := tx.Model(&models.Audit{}).
			Select(`COUNT(*) AS pages,
				AVG(conformity_rate) AS avg_rate,
				COALESCE(SUM(total_issues), 0) AS issues,
				COALESCE(SUM(critical_count), 0) AS critical,
				COALESCE(SUM(major_count), 0) AS major,
				COALESCE(SUM(minor_count), 0) AS minor`).
			Where("campaign_id = ?", id).
			Scan(&agg).Error
		if err != nil {
			return err
		}
		if agg.AvgRate != nil {
			rounded := math.Round(*agg.AvgRate*100) / 100
			agg.AvgRate = &rounded
		}
		return tx.Model(&models.Campaign{}).Where("id = ?", id).UpdateColumns(map[string]any{
			"total_pages":         agg.Pages,
			"avg_conformity_rate": agg.AvgRate,
			"total_issues":        agg.Issues,
			"critical_count":      agg.Critical,
			"major_count":         agg.Major,
			"minor_count":         agg.Minor,
			"updated_at":          time.Now(),
		}).Error
	})
	if err != nil {
		return nil, wrap("refresh campaign aggregates", err)
	}
	return s.Get(ctx, id)
}

// exists returns gorm.ErrRecordNotFound when model's table has no row with id.
func exists(tx *gorm.DB, model any, id uint) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
