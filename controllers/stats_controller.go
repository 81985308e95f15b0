package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// StatsController provides blog statistics.
type StatsController struct {
	store *store.Store
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(st *store.Store) *StatsController {
	return &StatsController{store: st}
}

// GetStats returns aggregate counts. A failing count is reported as 0 instead of failing
// the whole endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	userCount, err := s.store.Users().Count()
	if err != nil {
		utils.Sugar.Warnw("count users failed", "error", err)
	}
	postCount, err := s.store.Posts().CountPublic(time.Now())
	if err != nil {
		utils.Sugar.Warnw("count posts failed", "error", err)
	}
	commentCount, err := s.store.Comments().Count()
	if err != nil {
		utils.Sugar.Warnw("count comments failed", "error", err)
	}

	utils.Success(ctx, gin.H{
		"user_count":    userCount,
		"post_count":    postCount,
		"comment_count": commentCount,
	})
}
