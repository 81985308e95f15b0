package models

// Category groups posts under a slug addressable page.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:256;not null" json:"title"`
	Description string `gorm:"type:text;not null" json:"description"`
	Slug        string `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	PublishInfo `gorm:"embedded"`
}
