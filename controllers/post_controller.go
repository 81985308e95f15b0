package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// PostController serves post listings, detail pages and the author's create/edit/delete flow.
type PostController struct {
	store *store.Store
	cfg   config.AppConfig
	now   func() time.Time
}

// NewPostController creates a new PostController instance.
func NewPostController(st *store.Store, cfg config.AppConfig) *PostController {
	return &PostController{store: st, cfg: cfg, now: time.Now}
}

// Index lists every publicly visible post.
func (p *PostController) Index(ctx *gin.Context) {
	page, err := p.store.Posts().Page(store.PostQuery{
		Viewer:    middleware.Viewer(ctx),
		PageSize:  p.cfg.PostsPerPage,
		PageParam: ctx.Query("page"),
		Now:       p.now(),
	})
	if err != nil {
		storeFailure(ctx, err, "posts")
		return
	}
	utils.Success(ctx, gin.H{"page": page})
}

// CategoryPosts lists the visible posts of a published category.
func (p *PostController) CategoryPosts(ctx *gin.Context) {
	category, err := p.store.Categories().FindPublishedBySlug(ctx.Param("slug"))
	if err != nil {
		storeFailure(ctx, err, "category")
		return
	}
	page, err := p.store.Posts().Page(store.PostQuery{
		Viewer:    middleware.Viewer(ctx),
		Filters:   map[string]interface{}{"category_id": category.ID},
		PageSize:  p.cfg.PostsPerPage,
		PageParam: ctx.Query("page"),
		Now:       p.now(),
	})
	if err != nil {
		storeFailure(ctx, err, "posts")
		return
	}
	utils.Success(ctx, gin.H{"category": category, "page": page})
}

// Detail shows one post with its comments. Hidden posts are 404 for everyone but the author.
func (p *PostController) Detail(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	viewer := middleware.Viewer(ctx)
	post, err := p.store.Posts().Get(id)
	if err != nil {
		storeFailure(ctx, err, "post")
		return
	}
	if !post.VisibleTo(viewer, p.now()) {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}
	comments, err := p.store.Comments().ForPost(post.ID)
	if err != nil {
		storeFailure(ctx, err, "comments")
		return
	}
	post.CommentCount = int64(len(comments))

	payload := gin.H{"post": post, "comments": comments}
	if viewer != nil {
		payload["form"] = forms.CommentForm{}
	}
	utils.Success(ctx, payload)
}

// CreateForm returns the blank creation form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"form": forms.NewPostForm(p.now())})
}

// Create stores a new post by the viewer and sends them to their profile.
func (p *PostController) Create(ctx *gin.Context) {
	viewer := middleware.Viewer(ctx)
	now := p.now()

	var form forms.PostForm
	fields, errs := p.cleanPostForm(ctx, &form, now)
	if errs.Any() {
		utils.Invalid(ctx, 40020, errs, form)
		return
	}
	image, errs := p.receiveImage(ctx, "", false)
	if errs.Any() {
		utils.Invalid(ctx, 40021, errs, form)
		return
	}

	post := models.Post{
		Title:       fields.Title,
		Text:        fields.Text,
		PubDate:     fields.PubDate,
		AuthorID:    viewer.ID,
		CategoryID:  &fields.Category,
		LocationID:  fields.Location,
		Image:       image,
		PublishInfo: models.PublishInfo{IsPublished: true},
	}
	if err := p.store.Posts().Create(&post, now); err != nil {
		utils.RemoveImage(p.cfg.MediaRoot, image)
		storeFailure(ctx, err, "post")
		return
	}
	utils.Sugar.Infow("post created", "post_id", post.ID, "author", viewer.Username, "scheduled", post.IsScheduled)
	utils.Redirect(ctx, profilePath(viewer.Username))
}

// EditForm returns the edit form pre-filled with the post.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"post": post, "form": forms.PostFormFrom(post)})
}

// Edit saves the author's changes and returns to the post.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}

	var form forms.PostForm
	fields, errs := p.cleanPostForm(ctx, &form, p.now())
	if errs.Any() {
		utils.Invalid(ctx, 40022, errs, form)
		return
	}
	previous := post.Image
	image, errs := p.receiveImage(ctx, previous, form.ClearImage)
	if errs.Any() {
		utils.Invalid(ctx, 40023, errs, form)
		return
	}

	post.Title = fields.Title
	post.Text = fields.Text
	post.PubDate = fields.PubDate
	post.CategoryID = &fields.Category
	post.LocationID = fields.Location
	post.Image = image
	if err := p.store.Posts().Update(post); err != nil {
		if image != previous {
			utils.RemoveImage(p.cfg.MediaRoot, image)
		}
		storeFailure(ctx, err, "post")
		return
	}
	if image != previous {
		utils.RemoveImage(p.cfg.MediaRoot, previous)
	}
	utils.Redirect(ctx, postDetailPath(post.ID))
}

// DeleteForm returns the post as a confirmation payload.
func (p *PostController) DeleteForm(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"post": post, "form": forms.PostFormFrom(post)})
}

// Delete removes the post and its comments, then returns the author to their profile.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.ownedPost(ctx)
	if !ok {
		return
	}
	if err := p.store.Posts().Delete(post.ID); err != nil {
		storeFailure(ctx, err, "post")
		return
	}
	utils.RemoveImage(p.cfg.MediaRoot, post.Image)
	utils.Sugar.Infow("post deleted", "post_id", post.ID, "author", post.Author.Username)
	utils.Redirect(ctx, profilePath(post.Author.Username))
}

// ownedPost loads the post named in the path and lets only its author through.
// Other signed-in users are sent back to the post detail route.
func (p *PostController) ownedPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return nil, false
	}
	post, err := p.store.Posts().Get(id)
	if err != nil {
		storeFailure(ctx, err, "post")
		return nil, false
	}
	if resolveAccess(middleware.Viewer(ctx), post.AuthorID) != owner {
		utils.Redirect(ctx, postDetailPath(post.ID))
		return nil, false
	}
	return post, true
}

// cleanPostForm binds, sanitizes and checks the category and location references.
func (p *PostController) cleanPostForm(ctx *gin.Context, form *forms.PostForm, now time.Time) (forms.PostFields, forms.Errors) {
	errs := forms.Bind(ctx, form)
	fields, cleanErrs := form.Clean(now)
	for k, v := range cleanErrs {
		errs.Add(k, v)
	}
	if form.Category != 0 {
		if _, err := p.store.Categories().FindByID(form.Category); err != nil {
			errs.Add("category", invalidChoice(err))
		}
	}
	if fields.Location != nil {
		if _, err := p.store.Locations().FindByID(*fields.Location); err != nil {
			errs.Add("location", invalidChoice(err))
		}
	}
	return fields, errs
}

// receiveImage stores an uploaded image, if any. Without an upload the current image is
// kept, or dropped when clear is set.
func (p *PostController) receiveImage(ctx *gin.Context, current string, clear bool) (string, forms.Errors) {
	errs := forms.Errors{}
	header, err := ctx.FormFile("image")
	if err != nil {
		if clear {
			return "", errs
		}
		return current, errs
	}
	maxBytes := int64(p.cfg.MaxImageSizeMB) << 20
	rel, err := utils.SaveImage(header, p.cfg.MediaRoot, maxBytes)
	switch {
	case errors.Is(err, utils.ErrImageTooLarge):
		errs.Add("image", "The image file is too large.")
	case errors.Is(err, utils.ErrImageType):
		errs.Add("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	case err != nil:
		utils.Sugar.Errorw("save image failed", "error", err)
		errs.Add("image", "The image could not be saved.")
	}
	return rel, errs
}

func invalidChoice(err error) string {
	if !errors.Is(err, store.ErrNotFound) {
		utils.Sugar.Errorw("lookup failed", "error", err)
	}
	return "Select a valid choice. That choice is not one of the available choices."
}
