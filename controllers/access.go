package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/models"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// APIPrefix is the mount point of every blog route.
const APIPrefix = "/api/v1"

type accessState int

const (
	unauthenticated accessState = iota
	nonOwner
	owner
)

// resolveAccess classifies the viewer against the owner of a record.
func resolveAccess(viewer *models.User, ownerID uint) accessState {
	switch {
	case viewer == nil:
		return unauthenticated
	case viewer.ID == ownerID:
		return owner
	default:
		return nonOwner
	}
}

func postDetailPath(id uint) string {
	return fmt.Sprintf("%s/posts/%d", APIPrefix, id)
}

func profilePath(username string) string {
	return APIPrefix + "/profile/" + url.PathEscape(username)
}

// paramID parses a positive numeric path parameter. Anything else is answered with 404,
// the same as an unknown record.
func paramID(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(n), true
}

// storeFailure answers a store error: ErrNotFound becomes 404, anything else is logged
// and reported as 500.
func storeFailure(ctx *gin.Context, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, what+" not found")
		return
	}
	utils.Sugar.Errorw("store failure", "what", what, "path", ctx.Request.URL.Path, "error", err)
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
}

// safeNext accepts only local absolute paths as a post-login destination.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
