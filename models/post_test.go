package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostVisibleTo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	author := &User{ID: 1}
	other := &User{ID: 2}

	published := func() *Post {
		p := &Post{AuthorID: author.ID, PubDate: now.Add(-time.Minute)}
		p.IsPublished = true
		return p
	}

	p := published()
	assert.True(t, p.VisibleTo(nil, now))
	assert.True(t, p.VisibleTo(other, now))

	p = published()
	p.IsPublished = false
	assert.False(t, p.VisibleTo(nil, now))
	assert.False(t, p.VisibleTo(other, now))
	assert.True(t, p.VisibleTo(author, now))

	p = published()
	p.PubDate = now.Add(time.Hour)
	assert.False(t, p.VisibleTo(other, now))
	assert.True(t, p.VisibleTo(other, now.Add(2*time.Hour)))

	p = published()
	p.Category = &Category{}
	assert.False(t, p.VisibleTo(other, now))
	p.Category.IsPublished = true
	assert.True(t, p.VisibleTo(other, now))

	// pub_date equal to now is already visible
	p = published()
	p.PubDate = now
	assert.True(t, p.IsPubliclyVisible(now))
}
