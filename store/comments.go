package store

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// CommentStore persists comments.
type CommentStore struct {
	db *gorm.DB
}

// ForPost lists a post's comments, oldest first.
func (s *CommentStore) ForPost(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Get returns the comment only if it belongs to postID.
func (s *CommentStore) Get(postID, commentID uint) (*models.Comment, error) {
	var c models.Comment
	err := s.db.Preload("Author").Where("id = ? AND post_id = ?", commentID, postID).First(&c).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// Create inserts a comment.
func (s *CommentStore) Create(c *models.Comment) error {
	if err := s.db.Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UpdateText replaces the comment body.
func (s *CommentStore) UpdateText(c *models.Comment) error {
	if err := s.db.Model(c).Update("text", c.Text).Error; err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	return nil
}

// Delete removes one comment.
func (s *CommentStore) Delete(id uint) error {
	res := s.db.Delete(&models.Comment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of comments.
func (s *CommentStore) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.Comment{}).Count(&n).Error
	return n, err
}

// List serves the admin list view: search over post title, author username and text.
func (s *CommentStore) List(f AdminFilter) (utils.Page[models.Comment], error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			p := likePattern(f.Search)
			db = db.Joins("LEFT JOIN posts ON posts.id = comments.post_id").
				Joins("LEFT JOIN users ON users.id = comments.author_id").
				Where("posts.title LIKE ? OR users.username LIKE ? OR comments.text LIKE ?", p, p, p)
		}
		return db
	}
	var total int64
	if err := s.db.Model(&models.Comment{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Comment]{}, fmt.Errorf("count comments: %w", err)
	}
	number, numPages, offset := utils.PageWindow(f.PageParam, total, f.PageSize)
	var items []models.Comment
	err := s.db.Model(&models.Comment{}).
		Scopes(scope).
		Select("comments.*").
		Preload("Author").
		Order("comments.created_at DESC, comments.id DESC").
		Offset(offset).Limit(pageSize(f.PageSize)).
		Find(&items).Error
	if err != nil {
		return utils.Page[models.Comment]{}, fmt.Errorf("list comments: %w", err)
	}
	return utils.NewPage(items, number, numPages, f.PageSize, total), nil
}
