package forms

import (
	"strings"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/utils"
)

// ProfileForm edits the public profile fields.
type ProfileForm struct {
	Username  string `form:"username" json:"username" binding:"required,max=150,username"`
	FirstName string `form:"first_name" json:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" json:"last_name" binding:"max=150"`
	Email     string `form:"email" json:"email" binding:"omitempty,email,max=254"`
}

// ProfileFormFrom pre-fills the form with the current profile.
func ProfileFormFrom(u *models.User) ProfileForm {
	return ProfileForm{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}

// Apply copies the cleaned values onto u.
func (f *ProfileForm) Apply(u *models.User) {
	u.Username = strings.TrimSpace(f.Username)
	u.FirstName = utils.StripTags(f.FirstName)
	u.LastName = utils.StripTags(f.LastName)
	u.Email = strings.TrimSpace(f.Email)
}

// RegisterForm creates an account.
type RegisterForm struct {
	Username string `form:"username" json:"username" binding:"required,max=150,username"`
	Password string `form:"password" json:"password" binding:"required"`
	Confirm  string `form:"confirm" json:"confirm" binding:"required"`
}

// Clean checks that the passwords match and are strong enough.
func (f *RegisterForm) Clean() Errors {
	errs := Errors{}
	if f.Password != f.Confirm {
		errs.Add("confirm", "The two password fields didn't match.")
	}
	if problems := utils.ValidatePassword(f.Password, f.Username); len(problems) > 0 {
		errs.Add("password", strings.Join(problems, " "))
	}
	return errs
}

// LoginForm authenticates an account.
type LoginForm struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// PasswordChangeForm replaces the password of the signed-in user.
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" json:"old_password" binding:"required"`
	NewPassword1 string `form:"new_password1" json:"new_password1" binding:"required"`
	NewPassword2 string `form:"new_password2" json:"new_password2" binding:"required"`
}

// Clean verifies the old password against u and validates the new one.
func (f *PasswordChangeForm) Clean(u *models.User) Errors {
	errs := Errors{}
	if !utils.CheckPassword(u.PasswordHash, f.OldPassword) {
		errs.Add("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	if f.NewPassword1 != f.NewPassword2 {
		errs.Add("new_password2", "The two password fields didn't match.")
	}
	if problems := utils.ValidatePassword(f.NewPassword1, u.Username); len(problems) > 0 {
		errs.Add("new_password2", strings.Join(problems, " "))
	}
	return errs
}
