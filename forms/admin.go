package forms

import (
	"strings"

	"github.com/gosimple/slug"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// CategoryForm edits a category. A blank slug is derived from the title.
type CategoryForm struct {
	Title       string `form:"title" json:"title" binding:"required,max=256"`
	Description string `form:"description" json:"description" binding:"required"`
	Slug        string `form:"slug" json:"slug" binding:"max=64"`
	IsPublished *bool  `form:"is_published" json:"is_published"`
}

// Clean sanitizes the values and fills in c. New records default to published.
func (f *CategoryForm) Clean(c *models.Category) Errors {
	errs := Errors{}
	c.Title = utils.StripTags(f.Title)
	c.Description = utils.Sanitize(f.Description)
	if c.Title == "" {
		errs.Add("title", "This field is required.")
	}
	if c.Description == "" {
		errs.Add("description", "This field is required.")
	}

	s := strings.TrimSpace(f.Slug)
	if s == "" {
		s = slug.Make(c.Title)
	}
	if len(s) > 64 {
		s = strings.Trim(s[:64], "-")
	}
	if !slug.IsSlug(s) {
		errs.Add("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
	}
	c.Slug = s
	c.IsPublished = published(f.IsPublished, c.ID == 0, c.IsPublished)
	return errs
}

// LocationForm edits a location.
type LocationForm struct {
	Name        string `form:"name" json:"name" binding:"required,max=256"`
	IsPublished *bool  `form:"is_published" json:"is_published"`
}

// Clean sanitizes the values and fills in l. New records default to published.
func (f *LocationForm) Clean(l *models.Location) Errors {
	errs := Errors{}
	l.Name = utils.StripTags(f.Name)
	if l.Name == "" {
		errs.Add("name", "This field is required.")
	}
	l.IsPublished = published(f.IsPublished, l.ID == 0, l.IsPublished)
	return errs
}

// PublishForm toggles the publication flag of a post.
type PublishForm struct {
	IsPublished *bool `form:"is_published" json:"is_published" binding:"required"`
}

func published(v *bool, isNew, current bool) bool {
	switch {
	case v != nil:
		return *v
	case isNew:
		return true
	default:
		return current
	}
}
