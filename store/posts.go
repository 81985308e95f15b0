package store

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// Columns PostQuery.Filters may constrain by equality.
var postFilterColumns = map[string]bool{
	"author_id":   true,
	"category_id": true,
	"location_id": true,
}

const (
	publicPostCondition = "posts.is_published = ? AND posts.pub_date <= ? AND (posts.category_id IS NULL OR categories.is_published = ?)"
	commentCountColumn  = "(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"
)

// PostQuery selects the page of posts a viewer may see.
type PostQuery struct {
	// Viewer is nil for anonymous requests.
	Viewer *models.User
	// Filters are equality constraints on author_id, category_id or location_id.
	Filters map[string]interface{}
	// IncludeOwn adds the viewer's own posts whatever their state. Only set it when the
	// viewer is the subject of the listing, e.g. their own profile.
	IncludeOwn bool
	PageSize   int
	PageParam  string
	// Now defaults to the current time.
	Now time.Time
}

// PostStore persists posts.
type PostStore struct {
	db *gorm.DB
}

// Page returns one page of visible posts, newest pub_date first, each annotated with its
// comment count.
func (s *PostStore) Page(q PostQuery) (utils.Page[models.Post], error) {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		if !postFilterColumns[k] {
			return utils.Page[models.Post]{}, fmt.Errorf("unsupported post filter %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Joins("LEFT JOIN categories ON categories.id = posts.category_id")
		if q.IncludeOwn && q.Viewer != nil {
			db = db.Where("(("+publicPostCondition+") OR posts.author_id = ?)", true, now, true, q.Viewer.ID)
		} else {
			db = db.Where(publicPostCondition, true, now, true)
		}
		for _, k := range keys {
			db = db.Where("posts."+k+" = ?", q.Filters[k])
		}
		return db
	}

	var total int64
	if err := s.db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}

	number, numPages, offset := utils.PageWindow(q.PageParam, total, q.PageSize)
	var posts []models.Post
	err := s.db.Model(&models.Post{}).
		Scopes(scope).
		Select("posts.*, " + commentCountColumn).
		Preload("Author").Preload("Category").Preload("Location").
		Order("posts.pub_date DESC, posts.id DESC").
		Offset(offset).Limit(pageSize(q.PageSize)).
		Find(&posts).Error
	if err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return utils.NewPage(posts, number, numPages, q.PageSize, total), nil
}

// Get loads a post with author, category and location, whatever its visibility.
// Callers decide visibility with Post.VisibleTo.
func (s *PostStore) Get(id uint) (*models.Post, error) {
	var post models.Post
	err := s.db.Preload("Author").Preload("Category").Preload("Location").First(&post, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// Create inserts a post. IsScheduled is derived here from PubDate against now.
func (s *PostStore) Create(post *models.Post, now time.Time) error {
	post.PubDate = post.PubDate.UTC()
	post.IsScheduled = post.PubDate.After(now)
	if err := s.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Update saves the author-editable fields. IsScheduled keeps its creation-time value.
func (s *PostStore) Update(post *models.Post) error {
	post.PubDate = post.PubDate.UTC()
	err := s.db.Model(post).
		Select("title", "text", "pub_date", "category_id", "location_id", "image").
		Updates(map[string]interface{}{
			"title":       post.Title,
			"text":        post.Text,
			"pub_date":    post.PubDate,
			"category_id": post.CategoryID,
			"location_id": post.LocationID,
			"image":       post.Image,
		}).Error
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// SetPublished toggles the admin-controlled publication flag.
func (s *PostStore) SetPublished(id uint, published bool) error {
	res := s.db.Model(&models.Post{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return fmt.Errorf("set post published: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a post together with its comments.
func (s *PostStore) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete post comments: %w", err)
		}
		return nil
	})
}

// List serves the admin list view: search over title, text, author username and
// location name; filter by category, location and publication flag.
func (s *PostStore) List(f AdminFilter) (utils.Page[models.Post], error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Joins("LEFT JOIN users ON users.id = posts.author_id").
			Joins("LEFT JOIN locations ON locations.id = posts.location_id")
		if f.Search != "" {
			p := likePattern(f.Search)
			db = db.Where("posts.title LIKE ? OR posts.text LIKE ? OR users.username LIKE ? OR locations.name LIKE ?", p, p, p, p)
		}
		if f.IsPublished != nil {
			db = db.Where("posts.is_published = ?", *f.IsPublished)
		}
		if f.CategoryID != 0 {
			db = db.Where("posts.category_id = ?", f.CategoryID)
		}
		if f.LocationID != 0 {
			db = db.Where("posts.location_id = ?", f.LocationID)
		}
		return db
	}
	var total int64
	if err := s.db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("count posts: %w", err)
	}
	number, numPages, offset := utils.PageWindow(f.PageParam, total, f.PageSize)
	var posts []models.Post
	err := s.db.Model(&models.Post{}).
		Scopes(scope).
		Select("posts.*, " + commentCountColumn).
		Preload("Author").Preload("Category").Preload("Location").
		Order("posts.pub_date DESC, posts.id DESC").
		Offset(offset).Limit(pageSize(f.PageSize)).
		Find(&posts).Error
	if err != nil {
		return utils.Page[models.Post]{}, fmt.Errorf("list posts: %w", err)
	}
	return utils.NewPage(posts, number, numPages, f.PageSize, total), nil
}

// CountPublic counts posts anyone can see at now.
func (s *PostStore) CountPublic(now time.Time) (int64, error) {
	var n int64
	err := s.db.Model(&models.Post{}).
		Joins("LEFT JOIN categories ON categories.id = posts.category_id").
		Where(publicPostCondition, true, now.UTC(), true).
		Count(&n).Error
	return n, err
}
