package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// AdminController manages categories, locations, publication flags and accounts.
type AdminController struct {
	store *store.Store
	cfg   config.AppConfig
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(st *store.Store, cfg config.AppConfig) *AdminController {
	return &AdminController{store: st, cfg: cfg}
}

// ListCategories supports ?q= and ?is_published=.
func (a *AdminController) ListCategories(ctx *gin.Context) {
	page, err := a.store.Categories().List(a.filter(ctx))
	if err != nil {
		storeFailure(ctx, err, "categories")
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// CreateCategory adds a category; the slug is generated from the title when omitted.
func (a *AdminController) CreateCategory(ctx *gin.Context) {
	var form forms.CategoryForm
	var category models.Category
	if !bindCategory(ctx, &form, &category) {
		return
	}
	if err := a.store.Categories().Create(&category); err != nil {
		categoryFailure(ctx, err, form)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"category": category})
}

// UpdateCategory replaces the editable fields of a category.
func (a *AdminController) UpdateCategory(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	category, err := a.store.Categories().FindByID(id)
	if err != nil {
		storeFailure(ctx, err, "category")
		return
	}
	var form forms.CategoryForm
	if !bindCategory(ctx, &form, category) {
		return
	}
	if err := a.store.Categories().Update(category); err != nil {
		categoryFailure(ctx, err, form)
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// DeleteCategory removes a category; its posts become uncategorised.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := a.store.Categories().Delete(id); err != nil {
		storeFailure(ctx, err, "category")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// ListLocations supports ?q= and ?is_published=.
func (a *AdminController) ListLocations(ctx *gin.Context) {
	page, err := a.store.Locations().List(a.filter(ctx))
	if err != nil {
		storeFailure(ctx, err, "locations")
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// CreateLocation adds a location.
func (a *AdminController) CreateLocation(ctx *gin.Context) {
	var form forms.LocationForm
	var location models.Location
	if !bindLocation(ctx, &form, &location) {
		return
	}
	if err := a.store.Locations().Create(&location); err != nil {
		storeFailure(ctx, err, "location")
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{"location": location})
}

// UpdateLocation replaces the editable fields of a location.
func (a *AdminController) UpdateLocation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	location, err := a.store.Locations().FindByID(id)
	if err != nil {
		storeFailure(ctx, err, "location")
		return
	}
	var form forms.LocationForm
	if !bindLocation(ctx, &form, location) {
		return
	}
	if err := a.store.Locations().Update(location); err != nil {
		storeFailure(ctx, err, "location")
		return
	}
	utils.Success(ctx, gin.H{"location": location})
}

// DeleteLocation removes a location; tagged posts lose the tag.
func (a *AdminController) DeleteLocation(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := a.store.Locations().Delete(id); err != nil {
		storeFailure(ctx, err, "location")
		return
	}
	utils.Success(ctx, gin.H{"deleted": id})
}

// ListPosts shows every post whatever its state; supports ?q=, ?is_published=,
// ?category_id= and ?location_id=.
func (a *AdminController) ListPosts(ctx *gin.Context) {
	page, err := a.store.Posts().List(a.filter(ctx))
	if err != nil {
		storeFailure(ctx, err, "posts")
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// SetPostPublished hides or republishes a post.
func (a *AdminController) SetPostPublished(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	var form forms.PublishForm
	if errs := forms.Bind(ctx, &form); errs.Any() {
		utils.Invalid(ctx, 40060, errs, form)
		return
	}
	if err := a.store.Posts().SetPublished(id, *form.IsPublished); err != nil {
		storeFailure(ctx, err, "post")
		return
	}
	utils.Sugar.Infow("post publication changed", "post_id", id, "is_published", *form.IsPublished,
		"admin", middleware.Viewer(ctx).Username)
	utils.Success(ctx, gin.H{"id": id, "is_published": *form.IsPublished})
}

// ListComments supports ?q=.
func (a *AdminController) ListComments(ctx *gin.Context) {
	page, err := a.store.Comments().List(a.filter(ctx))
	if err != nil {
		storeFailure(ctx, err, "comments")
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// DeleteUser removes an account with its posts and comments.
func (a *AdminController) DeleteUser(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	if err := a.store.Users().Delete(id); err != nil {
		storeFailure(ctx, err, "user")
		return
	}
	utils.Sugar.Infow("user deleted", "user_id", id, "admin", middleware.Viewer(ctx).Username)
	utils.Success(ctx, gin.H{"deleted": id})
}

func (a *AdminController) filter(ctx *gin.Context) store.AdminFilter {
	f := store.AdminFilter{
		Search:    strings.TrimSpace(ctx.Query("q")),
		PageParam: ctx.Query("page"),
		PageSize:  a.cfg.PostsPerPage,
	}
	if v, err := strconv.ParseBool(ctx.Query("is_published")); err == nil {
		f.IsPublished = &v
	}
	if v, err := strconv.ParseUint(ctx.Query("category_id"), 10, 64); err == nil {
		f.CategoryID = uint(v)
	}
	if v, err := strconv.ParseUint(ctx.Query("location_id"), 10, 64); err == nil {
		f.LocationID = uint(v)
	}
	return f
}

func bindCategory(ctx *gin.Context, form *forms.CategoryForm, c *models.Category) bool {
	errs := forms.Bind(ctx, form)
	for k, v := range form.Clean(c) {
		errs.Add(k, v)
	}
	if errs.Any() {
		utils.Invalid(ctx, 40050, errs, form)
		return false
	}
	return true
}

func bindLocation(ctx *gin.Context, form *forms.LocationForm, l *models.Location) bool {
	errs := forms.Bind(ctx, form)
	for k, v := range form.Clean(l) {
		errs.Add(k, v)
	}
	if errs.Any() {
		utils.Invalid(ctx, 40051, errs, form)
		return false
	}
	return true
}

func categoryFailure(ctx *gin.Context, err error, form forms.CategoryForm) {
	if errors.Is(err, store.ErrSlugTaken) {
		utils.Invalid(ctx, 40052, forms.Errors{"slug": "Category with this slug already exists."}, form)
		return
	}
	storeFailure(ctx, err, "category")
}
