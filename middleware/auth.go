package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

const (
	// ContextViewerKey stores the authenticated *models.User inside Gin context.
	ContextViewerKey = "viewer"
	// ContextTokenKey stores the raw session token inside Gin context.
	ContextTokenKey = "token"
	// ContextClaimsKey stores the parsed token claims inside Gin context.
	ContextClaimsKey = "claims"
)

// Authenticate resolves the viewer from a Bearer token or the session cookie.
// Missing, revoked, expired or outdated tokens leave the request anonymous.
func Authenticate(users *store.UserStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token == "" {
			ctx.Next()
			return
		}
		if utils.IsTokenBlacklisted(ctx.Request.Context(), token) {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil {
			ctx.Next()
			return
		}
		user, err := users.FindByID(claims.UserID)
		if err != nil {
			ctx.Next()
			return
		}
		// a password change bumps the version and ends older sessions
		if user.TokenVersion != claims.TokenVersion {
			ctx.Next()
			return
		}

		ctx.Set(ContextViewerKey, user)
		ctx.Set(ContextTokenKey, token)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous requests to the login route, remembering where they came from.
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if Viewer(ctx) != nil {
			ctx.Next()
			return
		}
		utils.Redirect(ctx, LoginRedirect(loginURL, ctx.Request.URL.RequestURI()))
	}
}

// AdminRequired rejects viewers whose username is not listed as admin.
func AdminRequired(admins []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		viewer := Viewer(ctx)
		if viewer == nil || !IsAdmin(viewer, admins) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// IsAdmin reports whether u is one of the configured admin usernames.
func IsAdmin(u *models.User, admins []string) bool {
	for _, name := range admins {
		if strings.EqualFold(strings.TrimSpace(name), u.Username) {
			return true
		}
	}
	return false
}

// Viewer returns the authenticated user or nil for anonymous requests.
func Viewer(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextViewerKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// Claims returns the parsed token claims of the current session.
func Claims(ctx *gin.Context) *utils.Claims {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	c, _ := v.(*utils.Claims)
	return c
}

// LoginRedirect builds the login location with a next parameter.
func LoginRedirect(loginURL, next string) string {
	sep := "?"
	if strings.Contains(loginURL, "?") {
		sep = "&"
	}
	return loginURL + sep + "next=" + url.QueryEscape(next)
}

func tokenFromRequest(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := ctx.Cookie(utils.AuthCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}
