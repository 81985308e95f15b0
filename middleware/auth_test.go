package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/cppla/blogicum/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login?next=%2Fposts%2Fcreate%3Fa%3D1", LoginRedirect("/login", "/posts/create?a=1"))
	assert.Equal(t, "/login?lang=en&next=%2Fx", LoginRedirect("/login?lang=en", "/x"))
}

func TestIsAdmin(t *testing.T) {
	admins := []string{" root ", "Editor"}
	assert.True(t, IsAdmin(&models.User{Username: "root"}, admins))
	assert.True(t, IsAdmin(&models.User{Username: "editor"}, admins))
	assert.False(t, IsAdmin(&models.User{Username: "alice"}, admins))
}

func TestLoginRequiredRedirectsAnonymous(t *testing.T) {
	r := gin.New()
	r.GET("/secret", LoginRequired("/auth/login"), func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret?page=2", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?next=%2Fsecret%3Fpage%3D2", w.Header().Get("Location"))
}

func TestAdminRequired(t *testing.T) {
	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		if name := ctx.GetHeader("X-User"); name != "" {
			ctx.Set(ContextViewerKey, &models.User{ID: 1, Username: name})
		}
	})
	r.GET("/admin", AdminRequired([]string{"root"}), func(ctx *gin.Context) { ctx.String(http.StatusOK, "ok") })

	for user, code := range map[string]int{"": http.StatusForbidden, "alice": http.StatusForbidden, "root": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, user)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(2), func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestIPLimiterRefills(t *testing.T) {
	l := &ipLimiter{clients: map[string]*clientLimiter{}, limit: 1, burst: 1}
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.False(t, l.allow("a", now))
	assert.True(t, l.allow("b", now))
	assert.True(t, l.allow("a", now.Add(2*time.Second)))
}
