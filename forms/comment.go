package forms

import "github.com/cppla/blogicum/utils"

// CommentForm is the single field a commenter submits.
type CommentForm struct {
	Text string `form:"text" json:"text" binding:"required"`
}

// Clean returns the sanitized text.
func (f *CommentForm) Clean() (string, Errors) {
	errs := Errors{}
	text := utils.Sanitize(f.Text)
	if text == "" {
		errs.Add("text", "This field is required.")
	}
	return text, errs
}
