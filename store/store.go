// Package store is the persistence layer. Each entity gets a small store over a shared
// *gorm.DB; cascade and nullify rules on delete run here inside transactions.
package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlugTaken is returned when a category slug is already used.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrUsernameTaken is returned when a username is already used.
	ErrUsernameTaken = errors.New("username already taken")
)

// Store aggregates the per-entity stores.
type Store struct {
	users      *UserStore
	categories *CategoryStore
	locations  *LocationStore
	posts      *PostStore
	comments   *CommentStore
}

// New builds every store on the same connection.
func New(db *gorm.DB) *Store {
	return &Store{
		users:      &UserStore{db: db},
		categories: &CategoryStore{db: db},
		locations:  &LocationStore{db: db},
		posts:      &PostStore{db: db},
		comments:   &CommentStore{db: db},
	}
}

func (s *Store) Users() *UserStore           { return s.users }
func (s *Store) Categories() *CategoryStore { return s.categories }
func (s *Store) Locations() *LocationStore  { return s.locations }
func (s *Store) Posts() *PostStore          { return s.posts }
func (s *Store) Comments() *CommentStore    { return s.comments }

// notFound maps gorm's sentinel onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func likePattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}

// AdminFilter narrows admin list views.
type AdminFilter struct {
	Search      string
	IsPublished *bool
	CategoryID  uint
	LocationID  uint
	PageParam   string
	PageSize    int
}
