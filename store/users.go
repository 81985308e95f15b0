package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/blogicum/models"
)

// UserStore persists accounts.
type UserStore struct {
	db *gorm.DB
}

// FindByID returns the user or ErrNotFound.
func (s *UserStore) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByUsername returns the user or ErrNotFound.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// Create inserts a user, rejecting duplicate usernames.
func (s *UserStore) Create(user *models.User) error {
	if err := s.ensureUsernameFree(user.Username, 0); err != nil {
		return err
	}
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateProfile saves the editable profile fields of user.
func (s *UserStore) UpdateProfile(user *models.User) error {
	if err := s.ensureUsernameFree(user.Username, user.ID); err != nil {
		return err
	}
	err := s.db.Model(user).Select("username", "first_name", "last_name", "email").Updates(map[string]interface{}{
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
	}).Error
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetPassword stores a new hash and bumps the token version, which ends every session
// issued before the change.
func (s *UserStore) SetPassword(user *models.User, hash string) error {
	err := s.db.Model(user).Updates(map[string]interface{}{
		"password_hash": hash,
		"token_version": gorm.Expr("token_version + 1"),
	}).Error
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	// reload the bumped version so a fresh token can be issued for the current session
	return s.db.Select("token_version", "password_hash").First(user, user.ID).Error
}

// Delete removes a user with their posts, the comments on those posts and their own comments.
func (s *UserStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		ownPosts := tx.Model(&models.Post{}).Select("id").Where("author_id = ?", id)
		if err := tx.Where("post_id IN (?)", ownPosts).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments on user posts: %w", err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete user comments: %w", err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Post{}).Error; err != nil {
			return fmt.Errorf("delete user posts: %w", err)
		}
		return nil
	})
}

// Count returns the number of accounts.
func (s *UserStore) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.User{}).Count(&n).Error
	return n, err
}

func (s *UserStore) ensureUsernameFree(username string, exceptID uint) error {
	var existing models.User
	err := s.db.Select("id").Where("username = ?", username).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check username: %w", err)
	case existing.ID != exceptID:
		return ErrUsernameTaken
	default:
		return nil
	}
}
