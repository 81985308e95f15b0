package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/controllers"
	"github.com/cppla/blogicum/middleware"
	"github.com/cppla/blogicum/store"
	"github.com/cppla/blogicum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(st *store.Store, cfg config.AppConfig) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file; the application log level is reused
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin logger init failed, falling back to default recovery: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Authenticate(st.Users()))

	if cfg.MediaRoot != "" {
		r.Static("/media", cfg.MediaRoot)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(st, cfg)
	commentController := controllers.NewCommentController(st)
	profileController := controllers.NewProfileController(st, cfg)
	authController := controllers.NewAuthController(st, cfg)
	adminController := controllers.NewAdminController(st, cfg)
	statsController := controllers.NewStatsController(st)

	loginRequired := middleware.LoginRequired(cfg.LoginURL)

	api := r.Group(controllers.APIPrefix)
	api.GET("/stats", statsController.GetStats)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", loginRequired, authController.Logout)
	authGroup.GET("/me", loginRequired, authController.Me)

	api.GET("/posts", postController.Index)
	api.GET("/category/:slug", postController.CategoryPosts)
	api.GET("/profile/:username", profileController.Profile)

	posts := api.Group("/posts")
	posts.GET("/:id", postController.Detail)

	protected := api.Group("")
	protected.Use(loginRequired, middleware.RateLimit(cfg.RateLimitPerMinute))
	protected.GET("/posts/create", postController.CreateForm)
	protected.POST("/posts/create", postController.Create)
	protected.GET("/posts/:id/edit", postController.EditForm)
	protected.POST("/posts/:id/edit", postController.Edit)
	protected.GET("/posts/:id/delete", postController.DeleteForm)
	protected.POST("/posts/:id/delete", postController.Delete)
	protected.POST("/posts/:id/comment", commentController.Add)
	protected.GET("/posts/:id/edit_comment/:comment_id", commentController.EditForm)
	protected.POST("/posts/:id/edit_comment/:comment_id", commentController.Edit)
	protected.GET("/posts/:id/delete_comment/:comment_id", commentController.DeleteForm)
	protected.POST("/posts/:id/delete_comment/:comment_id", commentController.Delete)
	protected.GET("/profile/:username/edit", profileController.EditForm)
	protected.POST("/profile/:username/edit", profileController.Edit)
	protected.POST("/profile/:username/password", profileController.ChangePassword)

	admin := api.Group("/admin")
	admin.Use(loginRequired, middleware.AdminRequired(cfg.AdminUsernames))
	admin.GET("/categories", adminController.ListCategories)
	admin.POST("/categories", adminController.CreateCategory)
	admin.PUT("/categories/:id", adminController.UpdateCategory)
	admin.DELETE("/categories/:id", adminController.DeleteCategory)
	admin.GET("/locations", adminController.ListLocations)
	admin.POST("/locations", adminController.CreateLocation)
	admin.PUT("/locations/:id", adminController.UpdateLocation)
	admin.DELETE("/locations/:id", adminController.DeleteLocation)
	admin.GET("/posts", adminController.ListPosts)
	admin.PATCH("/posts/:id", adminController.SetPostPublished)
	admin.GET("/comments", adminController.ListComments)
	admin.DELETE("/users/:id", adminController.DeleteUser)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/media/") {
			ctx.JSON(http.StatusNotFound, gin.H{"message": "media file not found"})
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
