package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// ProfileController serves user profiles and the self-service account forms.
type ProfileController struct {
	store *store.Store
	cfg   config.AppConfig
	now   func() time.Time
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(st *store.Store, cfg config.AppConfig) *ProfileController {
	return &ProfileController{store: st, cfg: cfg, now: time.Now}
}

// Profile lists a user's posts. The owner also sees their unpublished, scheduled and
// hidden-category posts.
func (p *ProfileController) Profile(ctx *gin.Context) {
	profile, err := p.store.Users().FindByUsername(ctx.Param("username"))
	if err != nil {
		storeFailure(ctx, err, "user")
		return
	}
	viewer := middleware.Viewer(ctx)
	page, err := p.store.Posts().Page(store.PostQuery{
		Viewer:     viewer,
		Filters:    map[string]interface{}{"author_id": profile.ID},
		IncludeOwn: resolveAccess(viewer, profile.ID) == owner,
		PageSize:   p.cfg.PostsPerPage,
		PageParam:  ctx.Query("page"),
		Now:        p.now(),
	})
	if err != nil {
		storeFailure(ctx, err, "posts")
		return
	}
	utils.Success(ctx, gin.H{"profile": profile, "page": page})
}

// EditForm returns the profile form pre-filled with the viewer's data.
func (p *ProfileController) EditForm(ctx *gin.Context) {
	if !p.isSelf(ctx) {
		return
	}
	utils.Success(ctx, gin.H{"form": forms.ProfileFormFrom(middleware.Viewer(ctx))})
}

// Edit saves the viewer's profile and sends them to it under the possibly new username.
func (p *ProfileController) Edit(ctx *gin.Context) {
	if !p.isSelf(ctx) {
		return
	}
	var form forms.ProfileForm
	errs := forms.Bind(ctx, &form)
	if errs.Any() {
		utils.Invalid(ctx, 40040, errs, form)
		return
	}
	user := *middleware.Viewer(ctx)
	form.Apply(&user)
	err := p.store.Users().UpdateProfile(&user)
	if errors.Is(err, store.ErrUsernameTaken) {
		utils.Invalid(ctx, 40041, forms.Errors{"username": "A user with that username already exists."}, form)
		return
	}
	if err != nil {
		storeFailure(ctx, err, "user")
		return
	}
	utils.Redirect(ctx, profilePath(user.Username))
}

// ChangePassword replaces the viewer's password. Every other session ends; the current
// one receives a fresh token.
func (p *ProfileController) ChangePassword(ctx *gin.Context) {
	if !p.isSelf(ctx) {
		return
	}
	user := *middleware.Viewer(ctx)

	var form forms.PasswordChangeForm
	errs := forms.Bind(ctx, &form)
	if !errs.Any() {
		errs = form.Clean(&user)
	}
	if errs.Any() {
		utils.Invalid(ctx, 40042, errs, forms.PasswordChangeForm{})
		return
	}

	hash, err := utils.HashPassword(form.NewPassword1)
	if err != nil {
		utils.Sugar.Errorw("hash password failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to change password")
		return
	}
	if err := p.store.Users().SetPassword(&user, hash); err != nil {
		storeFailure(ctx, err, "user")
		return
	}
	if old, ok := ctx.Get(middleware.ContextTokenKey); ok {
		if claims := middleware.Claims(ctx); claims != nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(ctx.Request.Context(), old.(string), claims.ExpiresAt.Time)
		}
	}
	if _, err := issueSession(ctx, &user); err != nil {
		utils.Sugar.Errorw("issue token failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to issue token")
		return
	}
	utils.Sugar.Infow("password changed", "user_id", user.ID)
	utils.Redirect(ctx, profilePath(user.Username))
}

// isSelf lets the request through only when the path names the viewer. Anyone else is
// redirected to the read-only profile.
func (p *ProfileController) isSelf(ctx *gin.Context) bool {
	username := ctx.Param("username")
	viewer := middleware.Viewer(ctx)
	if viewer == nil || viewer.Username != username {
		utils.Redirect(ctx, profilePath(username))
		return false
	}
	return true
}
