package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/forms"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// CommentController handles adding, editing and deleting comments under a post.
type CommentController struct {
	store *store.Store
	now   func() time.Time
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(st *store.Store) *CommentController {
	return &CommentController{store: st, now: time.Now}
}

// Add attaches a comment by the viewer to a post they can see.
func (c *CommentController) Add(ctx *gin.Context) {
	id, ok := paramID(ctx, "id")
	if !ok {
		return
	}
	viewer := middleware.Viewer(ctx)
	post, err := c.store.Posts().Get(id)
	if err != nil {
		storeFailure(ctx, err, "post")
		return
	}
	if !post.VisibleTo(viewer, c.now()) {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}

	var form forms.CommentForm
	text, errs := bindComment(ctx, &form)
	if errs.Any() {
		utils.Invalid(ctx, 40030, errs, form)
		return
	}
	comment := models.Comment{Text: text, PostID: post.ID, AuthorID: viewer.ID}
	if err := c.store.Comments().Create(&comment); err != nil {
		storeFailure(ctx, err, "comment")
		return
	}
	utils.Redirect(ctx, postDetailPath(post.ID))
}

// EditForm returns the comment form pre-filled with the current text.
func (c *CommentController) EditForm(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"comment": comment, "form": forms.CommentForm{Text: comment.Text}})
}

// Edit replaces the comment text.
func (c *CommentController) Edit(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	var form forms.CommentForm
	text, errs := bindComment(ctx, &form)
	if errs.Any() {
		utils.Invalid(ctx, 40031, errs, form)
		return
	}
	comment.Text = text
	if err := c.store.Comments().UpdateText(comment); err != nil {
		storeFailure(ctx, err, "comment")
		return
	}
	utils.Redirect(ctx, postDetailPath(comment.PostID))
}

// DeleteForm returns the comment as a confirmation payload.
func (c *CommentController) DeleteForm(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// Delete removes the comment.
func (c *CommentController) Delete(ctx *gin.Context) {
	comment, ok := c.ownedComment(ctx)
	if !ok {
		return
	}
	if err := c.store.Comments().Delete(comment.ID); err != nil {
		storeFailure(ctx, err, "comment")
		return
	}
	utils.Redirect(ctx, postDetailPath(comment.PostID))
}

// ownedComment loads the comment by (comment_id, id) and lets only its author through.
func (c *CommentController) ownedComment(ctx *gin.Context) (*models.Comment, bool) {
	postID, ok := paramID(ctx, "id")
	if !ok {
		return nil, false
	}
	commentID, ok := paramID(ctx, "comment_id")
	if !ok {
		return nil, false
	}
	comment, err := c.store.Comments().Get(postID, commentID)
	if err != nil {
		storeFailure(ctx, err, "comment")
		return nil, false
	}
	if resolveAccess(middleware.Viewer(ctx), comment.AuthorID) != owner {
		utils.Redirect(ctx, postDetailPath(postID))
		return nil, false
	}
	return comment, true
}

func bindComment(ctx *gin.Context, form *forms.CommentForm) (string, forms.Errors) {
	errs := forms.Bind(ctx, form)
	text, cleanErrs := form.Clean()
	for k, v := range cleanErrs {
		errs.Add(k, v)
	}
	return text, errs
}
