package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// CategoryStore persists categories. Only admins mutate them.
type CategoryStore struct {
	db *gorm.DB
}

// FindByID returns the category or ErrNotFound.
func (s *CategoryStore) FindByID(id uint) (*models.Category, error) {
	var c models.Category
	if err := s.db.First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindPublishedBySlug returns a published category; hidden ones are reported as ErrNotFound.
func (s *CategoryStore) FindPublishedBySlug(slug string) (*models.Category, error) {
	var c models.Category
	if err := s.db.Where("slug = ? AND is_published = ?", slug, true).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// List serves the admin list view: search over title, description and slug.
func (s *CategoryStore) List(f AdminFilter) (utils.Page[models.Category], error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			p := likePattern(f.Search)
			db = db.Where("title LIKE ? OR description LIKE ? OR slug LIKE ?", p, p, p)
		}
		if f.IsPublished != nil {
			db = db.Where("is_published = ?", *f.IsPublished)
		}
		return db
	}
	var total int64
	if err := s.db.Model(&models.Category{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Category]{}, fmt.Errorf("count categories: %w", err)
	}
	number, numPages, offset := utils.PageWindow(f.PageParam, total, f.PageSize)
	var items []models.Category
	err := s.db.Scopes(scope).Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize(f.PageSize)).Find(&items).Error
	if err != nil {
		return utils.Page[models.Category]{}, fmt.Errorf("list categories: %w", err)
	}
	return utils.NewPage(items, number, numPages, f.PageSize, total), nil
}

// Create inserts a category, rejecting duplicate slugs.
func (s *CategoryStore) Create(c *models.Category) error {
	if err := s.ensureSlugFree(c.Slug, 0); err != nil {
		return err
	}
	if err := s.db.Create(c).Error; err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update saves every editable field of c.
func (s *CategoryStore) Update(c *models.Category) error {
	if err := s.ensureSlugFree(c.Slug, c.ID); err != nil {
		return err
	}
	err := s.db.Model(c).Select("title", "description", "slug", "is_published").Updates(c).Error
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category and detaches its posts, which stay in place uncategorised.
func (s *CategoryStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		err := tx.Model(&models.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach posts from category: %w", err)
		}
		return nil
	})
}

func (s *CategoryStore) ensureSlugFree(slug string, exceptID uint) error {
	var existing models.Category
	err := s.db.Select("id").Where("slug = ?", slug).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check slug: %w", err)
	case existing.ID != exceptID:
		return ErrSlugTaken
	default:
		return nil
	}
}

func pageSize(n int) int {
	if n <= 0 {
		return utils.DefaultPageSize
	}
	return n
}
