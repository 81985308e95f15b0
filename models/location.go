package models

// Location is a place a post can be tagged with.
type Location struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:256;not null" json:"name"`
	PublishInfo `gorm:"embedded"`
}
