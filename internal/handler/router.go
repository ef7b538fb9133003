package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/gsqlai/internal/middleware"
)

type RouterDeps struct {
	GSQL            *GSQLHandler
	Authenticator   middleware.Authenticator
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	group := api.Group("/gsql-ai")
	group.GET("/health", deps.GSQL.Health)

	authGroup := group.Group("")
	authGroup.Use(middleware.Auth(deps.Authenticator))
	limited := middleware.RateLimit(deps.RateLimitWindow)
	authGroup.POST("/generate", limited, deps.GSQL.Generate)
	authGroup.POST("/chat", limited, deps.GSQL.Chat)
	authGroup.POST("/search", deps.GSQL.Search)
	authGroup.GET("/sections", deps.GSQL.Sections)
	authGroup.GET("/generations", deps.GSQL.Generations)
}
