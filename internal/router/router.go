package router

import (
	"net/http"

	"postpulse/internal/handlers"
	"postpulse/internal/middleware"
	"postpulse/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps 路由需要的服务
type Deps struct {
	Ledger      *services.Ledger
	Posts       *services.PostService
	Users       *services.UserService
	Tokens      *services.TokenService
	RateLimiter *middleware.RateLimiter
	Metrics     http.Handler
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Handlers
	engagementHandler := handlers.NewEngagementHandler(deps.Ledger)
	postHandler := handlers.NewPostHandler(deps.Posts)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api")
	api.Use(middleware.LoadUser(deps.Users, deps.Tokens))

	// 写接口限流
	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if deps.RateLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{deps.RateLimiter.Middleware(), h}
	}

	api.GET("/posts", postHandler.List)            // 文章列表
	api.GET("/categories", postHandler.Categories) // 分类列表

	// 文章与互动 (Posts & Engagement)
	posts := api.Group("/posts/:slug")
	{
		posts.GET("", postHandler.Detail)                              // 文章详情
		posts.GET("/views", engagementHandler.GetViews)                // 浏览量
		posts.POST("/views", limited(engagementHandler.RecordView)...) // 记录浏览
		posts.GET("/likes", engagementHandler.GetLikes)                // 点赞数与当前访客状态
		posts.POST("/likes", limited(engagementHandler.ToggleLike)...) // 点赞/取消点赞

		posts.POST("/views/reconcile", middleware.AdminRequired(), engagementHandler.ReconcileViews) // 重算浏览量
	}

	// 认证 (Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/register", limited(authHandler.Register)...) // 注册
		auth.POST("/login", limited(authHandler.Login)...)       // 登录
		auth.POST("/logout", authHandler.Logout)                 // 退出登录
		auth.GET("/me", authHandler.Me)                          // 当前用户
	}
}
