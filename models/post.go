package models

import "time"

// Post is a blog entry. PubDate may lie in the future for scheduled posts.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	PubDate     time.Time `gorm:"index;not null" json:"pub_date"`
	IsScheduled bool      `gorm:"not null" json:"is_scheduled"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Author      User      `json:"author"`
	LocationID  *uint     `gorm:"index" json:"location_id"`
	Location    *Location `json:"location,omitempty"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Image       string    `gorm:"size:512" json:"image"`
	PublishInfo `gorm:"embedded"`

	// Populated by listing queries only.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`
}

// IsAuthoredBy reports whether u wrote the post.
func (p *Post) IsAuthoredBy(u *User) bool {
	return u != nil && p.AuthorID == u.ID
}

// IsPubliclyVisible requires Category to be loaded when CategoryID is set.
func (p *Post) IsPubliclyVisible(now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	return p.Category == nil || p.Category.IsPublished
}

// VisibleTo reports whether viewer may open the post; authors always see their own.
func (p *Post) VisibleTo(viewer *User, now time.Time) bool {
	return p.IsAuthoredBy(viewer) || p.IsPubliclyVisible(now)
}

// All lists every model for migrations.
func All() []interface{} {
	return []interface{}{&User{}, &Category{}, &Location{}, &Post{}, &Comment{}}
}
