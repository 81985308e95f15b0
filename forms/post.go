package forms

import (
	"time"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// PostForm carries the author-editable post fields. Publication flag, creation time,
// author and the scheduled flag are computed by the server and never bound.
type PostForm struct {
	Title    string `form:"title" json:"title" binding:"required,max=256"`
	Text     string `form:"text" json:"text" binding:"required"`
	PubDate  string `form:"pub_date" json:"pub_date"`
	Category uint   `form:"category" json:"category" binding:"required"`
	Location uint   `form:"location" json:"location"`
	// ClearImage drops the current image when no new file is uploaded.
	ClearImage bool `form:"image-clear" json:"image_clear"`
}

// PostFields is the cleaned result of a PostForm.
type PostFields struct {
	Title    string
	Text     string
	PubDate  time.Time
	Category uint
	Location *uint
}

// NewPostForm returns the blank creation form, publication defaulting to now.
func NewPostForm(now time.Time) PostForm {
	return PostForm{PubDate: now.UTC().Format(time.RFC3339)}
}

// PostFormFrom pre-fills the form with an existing post.
func PostFormFrom(p *models.Post) PostForm {
	f := PostForm{
		Title:   p.Title,
		Text:    p.Text,
		PubDate: p.PubDate.UTC().Format(time.RFC3339),
	}
	if p.CategoryID != nil {
		f.Category = *p.CategoryID
	}
	if p.LocationID != nil {
		f.Location = *p.LocationID
	}
	return f
}

// Clean sanitizes the bound values and parses the publication date. A blank date means now.
func (f *PostForm) Clean(now time.Time) (PostFields, Errors) {
	errs := Errors{}
	out := PostFields{
		Title:    utils.StripTags(f.Title),
		Text:     utils.Sanitize(f.Text),
		Category: f.Category,
	}
	if out.Title == "" {
		errs.Add("title", "This field is required.")
	}
	if out.Text == "" {
		errs.Add("text", "This field is required.")
	}
	if f.PubDate == "" {
		out.PubDate = now.UTC()
	} else if t, err := ParseDateTime(f.PubDate); err != nil {
		errs.Add("pub_date", "Enter a valid date/time.")
	} else {
		out.PubDate = t
	}
	if f.Location != 0 {
		loc := f.Location
		out.Location = &loc
	}
	return out, errs
}
