package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rgaa-audit/audit-manager/pkg/models"
)

// ProjectStore provides database operations for projects.
type ProjectStore struct {
	db *gorm.DB
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// ProjectFilter narrows List. Zero fields are ignored.
type ProjectFilter struct {
	UserID uint
	Status models.ProjectStatus
}

func (s *ProjectStore) Create(ctx context.Context, p *models.Project) error {
	return wrap("create project", s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error)
}

func (s *ProjectStore) Get(ctx context.Context, id uint) (*models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).
		Preload("Campaigns", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&p, id).Error
	if err != nil {
		return nil, wrap("get project", err)
	}
	return &p, nil
}

// List returns projects ordered by name.
func (s *ProjectStore) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	q := s.db.WithContext(ctx).Model(&models.Project{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.Project
	if err := q.Order("name, id").Find(&out).Error; err != nil {
		return nil, wrap("list projects", err)
	}
	return out, nil
}

// Update writes every column of p, which must already exist.
func (s *ProjectStore) Update(ctx context.Context, p *models.Project) error {
	return updateAll(ctx, s.db, "update project", p)
}

// Delete removes a project together with its campaigns, their audits'
// campaign link and their action plans. It fails with ErrReferenced while a
// plan still has items attached directly to it.
func (s *ProjectStore) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, s.db, "delete project", &models.Project{}, id)
}
