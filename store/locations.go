package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// LocationStore persists locations. Only admins mutate them.
type LocationStore struct {
	db *gorm.DB
}

// FindByID returns the location or ErrNotFound.
func (s *LocationStore) FindByID(id uint) (*models.Location, error) {
	var l models.Location
	if err := s.db.First(&l, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// List serves the admin list view: search over name.
func (s *LocationStore) List(f AdminFilter) (utils.Page[models.Location], error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			db = db.Where("name LIKE ?", likePattern(f.Search))
		}
		if f.IsPublished != nil {
			db = db.Where("is_published = ?", *f.IsPublished)
		}
		return db
	}
	var total int64
	if err := s.db.Model(&models.Location{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Location]{}, fmt.Errorf("count locations: %w", err)
	}
	number, numPages, offset := utils.PageWindow(f.PageParam, total, f.PageSize)
	var items []models.Location
	err := s.db.Scopes(scope).Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize(f.PageSize)).Find(&items).Error
	if err != nil {
		return utils.Page[models.Location]{}, fmt.Errorf("list locations: %w", err)
	}
	return utils.NewPage(items, number, numPages, f.PageSize, total), nil
}

// Create inserts a location.
func (s *LocationStore) Create(l *models.Location) error {
	if err := s.db.Create(l).Error; err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update saves every editable field of l.
func (s *LocationStore) Update(l *models.Location) error {
	if err := s.db.Model(l).Select("name", "is_published").Updates(l).Error; err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// Delete removes a location; posts tagged with it lose the tag.
func (s *LocationStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Location{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete location: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		err := tx.Model(&models.Post{}).Where("location_id = ?", id).Update("location_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach posts from location: %w", err)
		}
		return nil
	})
}
