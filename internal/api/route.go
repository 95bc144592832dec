package api

import (
	"Lumen/internal/api/middleware"
	"Lumen/internal/pkg/logger"
	"Lumen/internal/pkg/metrics"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RouterOptions 路由相关配置
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func SetupRouter(group *HandlersGroup, opts RouterOptions) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware("/metrics"))
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(middleware.TimeoutMiddleware(opts.RequestTimeout))
	logger.SetupGin(r)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		meGroup := apiGroup.Group("/me")
		meGroup.Use(middleware.AuthMiddleware())
		{
			meGroup.GET("", group.UserHandler.GetMe)
			meGroup.PATCH("", group.UserHandler.UpdateProfile)
		}

		userGroup := apiGroup.Group("/users")
		{
			authOptGroup := userGroup.Group("")
			authOptGroup.Use(middleware.AuthOptionalMiddleware())
			{
				authOptGroup.GET("/:user_id", group.UserHandler.GetUserInfo)
				authOptGroup.GET("/:user_id/follow", group.FollowHandler.GetFollowStatus)
				authOptGroup.GET("/:user_id/following", group.FollowHandler.ListFollowing)
				authOptGroup.GET("/:user_id/contents", group.ContentHandler.ListByAuthor)
			}

			authGroup := userGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.POST("/:user_id/follow", group.FollowHandler.ToggleFollow)
			}
		}

		contentGroup := apiGroup.Group("/contents")
		{
			authOptGroup := contentGroup.Group("")
			authOptGroup.Use(middleware.AuthOptionalMiddleware())
			{
				authOptGroup.GET("/:content_id", group.ContentHandler.GetContent)
				authOptGroup.GET("/:content_id/comments", group.CommentHandler.ListComments)
			}

			authGroup := contentGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("/feed", group.ContentHandler.ListFeed)
				authGroup.POST("", group.ContentHandler.CreateContent)
				authGroup.DELETE("/:content_id", group.ContentHandler.DeleteContent)
				authGroup.POST("/:content_id/like", group.ContentHandler.ToggleLike)
				authGroup.POST("/:content_id/comments", group.CommentHandler.CreateComment)
			}
		}

		recommendGroup := apiGroup.Group("/recommendations")
		recommendGroup.Use(middleware.AuthMiddleware())
		{
			recommendGroup.GET("", group.RecommendHandler.GetRecommendations)
			recommendGroup.GET("/explore", group.RecommendHandler.GetExplore)
		}
	}

	return r
}
