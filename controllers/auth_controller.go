package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// AuthController handles registration and token sessions.
type AuthController struct {
	store *store.Store
	cfg   config.AppConfig
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(st *store.Store, cfg config.AppConfig) *AuthController {
	return &AuthController{store: st, cfg: cfg}
}

// Register creates an account from a username and a confirmed password.
func (a *AuthController) Register(ctx *gin.Context) {
	var form forms.RegisterForm
	errs := forms.Bind(ctx, &form)
	if !errs.Any() {
		errs = form.Clean()
	}
	echo := gin.H{"username": form.Username}
	if errs.Any() {
		utils.Invalid(ctx, 40001, errs, echo)
		return
	}

	hash, err := utils.HashPassword(form.Password)
	if err != nil {
		utils.Sugar.Errorw("hash password failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to create user")
		return
	}
	user := models.User{Username: strings.TrimSpace(form.Username), PasswordHash: hash}
	err = a.store.Users().Create(&user)
	if errors.Is(err, store.ErrUsernameTaken) {
		utils.Invalid(ctx, 40002, forms.Errors{"username": "A user with that username already exists."}, echo)
		return
	}
	if err != nil {
		storeFailure(ctx, err, "user")
		return
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username)
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"user": userResponse(&user, a.cfg.AdminUsernames)})
}

// Login checks the credentials and opens a session: the token is returned and set as a cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var form forms.LoginForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		utils.Invalid(ctx, 40003, errs, gin.H{"username": form.Username})
		return
	}

	user, err := a.store.Users().FindByUsername(strings.TrimSpace(form.Username))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		storeFailure(ctx, err, "user")
		return
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, form.Password) {
		utils.Invalid(ctx, 40004, forms.Errors{
			forms.NonFieldErrors: "Please enter a correct username and password. Note that both fields may be case-sensitive.",
		}, gin.H{"username": form.Username})
		return
	}

	token, err := issueSession(ctx, user)
	if err != nil {
		utils.Sugar.Errorw("issue token failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	payload := gin.H{
		"token": token,
		"user":  userResponse(user, a.cfg.AdminUsernames),
	}
	if next := safeNext(ctx.Query("next")); next != "" {
		payload["next"] = next
	}
	utils.Success(ctx, payload)
}

// Logout revokes the current token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	raw, _ := ctx.Get(middleware.ContextTokenKey)
	token, _ := raw.(string)

	expiresAt := time.Now().Add(utils.TokenTTL())
	if claims := middleware.Claims(ctx); claims != nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if token != "" {
		utils.BlacklistToken(ctx.Request.Context(), token, expiresAt)
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.AuthCookieName, "", -1, "/", "", false, true)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the signed-in user.
func (a *AuthController) Me(ctx *gin.Context) {
	utils.Success(ctx, userResponse(middleware.Viewer(ctx), a.cfg.AdminUsernames))
}

// issueSession signs a token for the user's current token version and stores it in the
// session cookie.
func issueSession(ctx *gin.Context, user *models.User) (string, error) {
	ttl := utils.TokenTTL()
	token, err := utils.GenerateToken(user.ID, user.Username, user.TokenVersion, ttl)
	if err != nil {
		return "", err
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(utils.AuthCookieName, token, int(ttl/time.Second), "/", "", false, true)
	return token, nil
}

func userResponse(user *models.User, admins []string) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"created_at": user.CreatedAt,
		"is_admin":   middleware.IsAdmin(user, admins),
	}
}
