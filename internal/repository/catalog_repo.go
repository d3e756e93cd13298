package repository

import (
	"context"

	"tailorshop/internal/model"

	"gorm.io/gorm"
)

type CatalogRepository interface {
	FindServiceByName(ctx context.Context, name string) (*model.Service, error)
	CreateService(ctx context.Context, svc *model.Service) error
	ListServices(ctx context.Context, sectionName string) ([]model.Service, error)
	FindSectionByName(ctx context.Context, name string) (*model.Section, error)
	CreateSection(ctx context.Context, section *model.Section) error
	ListSections(ctx context.Context) ([]model.Section, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) FindServiceByName(ctx context.Context, name string) (*model.Service, error) {
	var svc model.Service
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *catalogRepository) CreateService(ctx context.Context, svc *model.Service) error {
	return GetDB(ctx, r.db).Create(svc).Error
}

func (r *catalogRepository) ListServices(ctx context.Context, sectionName string) ([]model.Service, error) {
	var rows []model.Service
	q := GetDB(ctx, r.db).Model(&model.Service{})
	if sectionName != "" {
		q = q.Where("section_name = ?", sectionName)
	}
	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *catalogRepository) FindSectionByName(ctx context.Context, name string) (*model.Section, error) {
	var section model.Section
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&section).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *catalogRepository) CreateSection(ctx context.Context, section *model.Section) error {
	return GetDB(ctx, r.db).Omit("Services").Create(section).Error
}

func (r *catalogRepository) ListSections(ctx context.Context) ([]model.Section, error) {
	var rows []model.Section
	if err := GetDB(ctx, r.db).Preload("Services", func(db *gorm.DB) *gorm.DB {
		return db.Order("name")
	}).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
