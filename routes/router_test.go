package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

const testPassword = "a long test phrase"

type testServer struct {
	router *gin.Engine
	store  *store.Store
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := config.AppConfig{
		JWTSecret:          "router-test-secret",
		TokenTTLHours:      1,
		RateLimitPerMinute: 10000,
		AllowedOrigins:     []string{"*"},
		AdminUsernames:     []string{"admin"},
		LoginURL:           "/api/v1/auth/login",
		GinMode:            "test",
		DBDriver:           "sqlite",
		SQLitePath:         filepath.Join(dir, "blog.db"),
		LogLevel:           "silent",
		PostsPerPage:       10,
		MediaRoot:          filepath.Join(dir, "media"),
		MaxImageSizeMB:     5,
	}
	config.Set(cfg)

	db, err := config.InitDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	st := store.New(db)
	return &testServer{router: SetupRouter(st, cfg), store: st}
}

func (s *testServer) user(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: hash}
	require.NoError(t, s.store.Users().Create(u))
	token, err := utils.GenerateToken(u.ID, u.Username, u.TokenVersion, time.Hour)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) category(t *testing.T, slug string, published bool) *models.Category {
	t.Helper()
	c := &models.Category{Title: slug, Description: slug, Slug: slug}
	c.IsPublished = published
	require.NoError(t, s.store.Categories().Create(c))
	return c
}

func (s *testServer) post(t *testing.T, author *models.User, c *models.Category, published bool) *models.Post {
	t.Helper()
	p := &models.Post{Title: "Original", Text: "Original text", PubDate: time.Now().Add(-time.Hour), AuthorID: author.ID}
	if c != nil {
		id := c.ID
		p.CategoryID = &id
	}
	p.IsPublished = published
	require.NoError(t, s.store.Posts().Create(p, time.Now()))
	return p
}

func (s *testServer) do(method, path, token string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)

	w := s.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, decode(t, w, nil).Code)
}

func TestAnonymousMutationsRedirectToLogin(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.user(t, "alice")
	post := s.post(t, alice, nil, true)

	paths := []string{
		"/api/v1/posts/create",
		fmt.Sprintf("/api/v1/posts/%d/edit", post.ID),
		fmt.Sprintf("/api/v1/posts/%d/delete", post.ID),
		fmt.Sprintf("/api/v1/posts/%d/comment", post.ID),
		"/api/v1/profile/alice/edit",
		"/api/v1/profile/alice/password",
	}
	for _, p := range paths {
		w := s.do(http.MethodPost, p, "", url.Values{"text": {"x"}})
		assert.Equal(t, http.StatusFound, w.Code, p)
		assert.Equal(t, "/api/v1/auth/login?next="+url.QueryEscape(p), w.Header().Get("Location"), p)
	}
}

func TestCreatePostRedirectsToProfile(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	travel := s.category(t, "travel", true)

	w := s.do(http.MethodPost, "/api/v1/posts/create", token, url.Values{
		"title":    {"First trip"},
		"text":     {"We went north."},
		"category": {fmt.Sprint(travel.ID)},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/api/v1/profile/alice", w.Header().Get("Location"))

	page, err := s.store.Posts().Page(store.PostQuery{Filters: map[string]interface{}{"author_id": alice.ID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "First trip", page.Items[0].Title)
	assert.True(t, page.Items[0].IsPublished)
	assert.False(t, page.Items[0].IsScheduled)
}

func TestCreatePostValidation(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")

	w := s.do(http.MethodPost, "/api/v1/posts/create", token, url.Values{
		"title":    {"Lost"},
		"text":     {"Nowhere"},
		"category": {"999"},
		"location": {"998"},
		"pub_date": {"whenever"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var data struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, w, &data)
	assert.Contains(t, data.Errors, "category")
	assert.Contains(t, data.Errors, "location")
	assert.Contains(t, data.Errors, "pub_date")

	n, err := s.store.Posts().CountPublic(time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScheduledPostIsHiddenFromOthers(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "alice")
	travel := s.category(t, "travel", true)

	w := s.do(http.MethodPost, "/api/v1/posts/create", token, url.Values{
		"title":    {"Later"},
		"text":     {"Soon"},
		"category": {fmt.Sprint(travel.ID)},
		"pub_date": {time.Now().Add(48 * time.Hour).UTC().Format("2006-01-02T15:04")},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	var index struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/posts", "", nil), &index)
	assert.Empty(t, index.Page.Items)

	var profile struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/profile/alice", token, nil), &profile)
	require.Len(t, profile.Page.Items, 1)
	assert.True(t, profile.Page.Items[0].IsScheduled)

	var anonymous struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/profile/alice", "", nil), &anonymous)
	assert.Empty(t, anonymous.Page.Items)
}

func TestNonOwnerCannotEditOrDeletePost(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.user(t, "alice")
	_, bobToken := s.user(t, "bob")
	travel := s.category(t, "travel", true)
	post := s.post(t, alice, travel, true)
	detail := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	for _, action := range []string{"edit", "delete"} {
		path := fmt.Sprintf("%s/%s", detail, action)
		w := s.do(http.MethodPost, path, bobToken, url.Values{
			"title":    {"Hijacked"},
			"text":     {"Hijacked"},
			"category": {fmt.Sprint(travel.ID)},
		})
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, detail, w.Header().Get("Location"), path)

		w = s.do(http.MethodGet, path, bobToken, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
	}

	stored, err := s.store.Posts().Get(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", stored.Title)
}

func TestOwnerEditsAndDeletesPost(t *testing.T) {
	s := newTestServer(t)
	alice, token := s.user(t, "alice")
	travel := s.category(t, "travel", true)
	post := s.post(t, alice, travel, true)
	detail := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	var form struct {
		Form struct {
			Title    string `json:"title"`
			Category uint   `json:"category"`
		} `json:"form"`
	}
	w := s.do(http.MethodGet, detail+"/edit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &form)
	assert.Equal(t, "Original", form.Form.Title)
	assert.Equal(t, travel.ID, form.Form.Category)

	w = s.do(http.MethodPost, detail+"/edit", token, url.Values{
		"title":    {"Edited"},
		"text":     {"New text"},
		"category": {fmt.Sprint(travel.ID)},
		"pub_date": {"2020-01-01 10:00"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, detail, w.Header().Get("Location"))

	stored, err := s.store.Posts().Get(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", stored.Title)
	assert.Equal(t, 2020, stored.PubDate.Year())

	w = s.do(http.MethodPost, detail+"/delete", token, url.Values{})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/profile/alice", w.Header().Get("Location"))
	_, err = s.store.Posts().Get(post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostDetailVisibility(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.user(t, "alice")
	_, bobToken := s.user(t, "bob")
	draft := s.post(t, alice, nil, false)
	path := fmt.Sprintf("/api/v1/posts/%d", draft.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, bobToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, aliceToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/posts/424242", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/posts/abc", "", nil).Code)

	// commenting needs the post to be visible to the commenter
	w := s.do(http.MethodPost, path+"/comment", bobToken, url.Values{"text": {"hi"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentFlow(t *testing.T) {
	s := newTestServer(t)
	alice, aliceToken := s.user(t, "alice")
	_, bobToken := s.user(t, "bob")
	post := s.post(t, alice, nil, true)
	detail := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	w := s.do(http.MethodPost, detail+"/comment", bobToken, url.Values{"text": {"Nice post"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, detail, w.Header().Get("Location"))

	w = s.do(http.MethodPost, detail+"/comment", bobToken, url.Values{"text": {"   "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var view struct {
		Post     models.Post      `json:"post"`
		Comments []models.Comment `json:"comments"`
	}
	decode(t, s.do(http.MethodGet, detail, "", nil), &view)
	require.Len(t, view.Comments, 1)
	assert.EqualValues(t, 1, view.Post.CommentCount)
	assert.Equal(t, "bob", view.Comments[0].Author.Username)
	commentPath := fmt.Sprintf("%s/edit_comment/%d", detail, view.Comments[0].ID)
	deletePath := fmt.Sprintf("%s/delete_comment/%d", detail, view.Comments[0].ID)

	// the post author does not own the comment
	w = s.do(http.MethodPost, commentPath, aliceToken, url.Values{"text": {"Changed"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detail, w.Header().Get("Location"))
	w = s.do(http.MethodPost, deletePath, aliceToken, url.Values{})
	assert.Equal(t, http.StatusFound, w.Code)

	comments, err := s.store.Comments().ForPost(post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Nice post", comments[0].Text)

	w = s.do(http.MethodPost, commentPath, bobToken, url.Values{"text": {"Very nice post"}})
	require.Equal(t, http.StatusFound, w.Code)
	comments, err = s.store.Comments().ForPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Very nice post", comments[0].Text)

	// comment ids are resolved together with the post id
	other := s.post(t, alice, nil, true)
	wrong := fmt.Sprintf("/api/v1/posts/%d/delete_comment/%d", other.ID, comments[0].ID)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, wrong, bobToken, url.Values{}).Code)

	w = s.do(http.MethodPost, deletePath, bobToken, url.Values{})
	require.Equal(t, http.StatusFound, w.Code)
	n, err := s.store.Comments().Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCategoryListing(t *testing.T) {
	s := newTestServer(t)
	alice, _ := s.user(t, "alice")
	travel := s.category(t, "travel", true)
	hidden := s.category(t, "hidden", false)
	s.post(t, alice, travel, true)
	for i := 0; i < 3; i++ {
		s.post(t, alice, hidden, true)
	}

	var data struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	w := s.do(http.MethodGet, "/api/v1/category/travel", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &data)
	assert.Len(t, data.Page.Items, 1)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/category/hidden", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/category/missing", "", nil).Code)

	var index struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/posts?page=99", "", nil), &index)
	assert.Equal(t, 1, index.Page.Number)
	assert.Len(t, index.Page.Items, 1)
}

func TestProfileEditOnlyForSelf(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "alice")
	_, bobToken := s.user(t, "bob")

	w := s.do(http.MethodPost, "/api/v1/profile/alice/edit", bobToken, url.Values{"username": {"mallory"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v1/profile/alice", w.Header().Get("Location"))
	_, err := s.store.Users().FindByUsername("alice")
	assert.NoError(t, err)

	w = s.do(http.MethodPost, "/api/v1/profile/bob/edit", bobToken, url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/profile/bob/edit", bobToken, url.Values{
		"username":   {"robert"},
		"first_name": {"Robert"},
		"email":      {"robert@example.com"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/api/v1/profile/robert", w.Header().Get("Location"))
	u, err := s.store.Users().FindByUsername("robert")
	require.NoError(t, err)
	assert.Equal(t, "Robert", u.FirstName)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/v1/profile/bob", "", nil).Code)
}

func TestPasswordChangeEndsOtherSessions(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "alice")

	w := s.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/auth/me", login.Token, nil).Code)

	w = s.do(http.MethodPost, "/api/v1/profile/alice/password", login.Token, url.Values{
		"old_password":  {"wrong one"},
		"new_password1": {"brand new phrase"},
		"new_password2": {"brand new phrase"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/profile/alice/password", login.Token, url.Values{
		"old_password":  {testPassword},
		"new_password1": {"brand new phrase"},
		"new_password2": {"brand new phrase"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/api/v1/profile/alice", w.Header().Get("Location"))

	var fresh string
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.AuthCookieName {
			fresh = c.Value
		}
	}
	require.NotEmpty(t, fresh)

	assert.Equal(t, http.StatusFound, s.do(http.MethodGet, "/api/v1/auth/me", login.Token, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/auth/me", fresh, nil).Code)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "alice", "password": "brand new phrase"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol", "password": "short", "confirm": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol", "password": testPassword, "confirm": testPassword,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "carol", "password": testPassword, "confirm": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "carol", "password": "nope nope nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(http.MethodPost, "/api/v1/auth/login?next=/api/v1/posts/create", map[string]string{"username": "carol", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
		Next  string `json:"next"`
	}
	decode(t, w, &login)
	assert.Equal(t, "/api/v1/posts/create", login.Next)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/auth/logout", login.Token, nil).Code)
	assert.Equal(t, http.StatusFound, s.do(http.MethodGet, "/api/v1/auth/me", login.Token, nil).Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin")
	alice, aliceToken := s.user(t, "alice")
	post := s.post(t, alice, nil, true)

	w := s.do(http.MethodPost, "/api/v1/admin/categories", aliceToken, url.Values{"title": {"Travel Notes"}, "description": {"Trips"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/admin/categories", adminToken, url.Values{"title": {"Travel Notes"}, "description": {"Trips"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Category models.Category `json:"category"`
	}
	decode(t, w, &created)
	assert.Equal(t, "travel-notes", created.Category.Slug)
	assert.True(t, created.Category.IsPublished)

	w = s.do(http.MethodPost, "/api/v1/admin/categories", adminToken, url.Values{"title": {"Travel Notes"}, "description": {"Again"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, fmt.Sprintf("/api/v1/admin/posts/%d", post.ID), adminToken, url.Values{"is_published": {"false"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", post.ID), "", nil).Code)

	w = s.do(http.MethodGet, "/api/v1/admin/posts?is_published=false", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Page utils.Page[models.Post] `json:"page"`
	}
	decode(t, w, &list)
	assert.Len(t, list.Page.Items, 1)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", alice.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := s.store.Posts().Get(post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	var stats struct {
		UserCount int64 `json:"user_count"`
		PostCount int64 `json:"post_count"`
	}
	decode(t, s.do(http.MethodGet, "/api/v1/stats", "", nil), &stats)
	assert.EqualValues(t, 1, stats.UserCount)
	assert.Zero(t, stats.PostCount)
}
