package app

import (
	"studyshare_backend/docs"
	"studyshare_backend/internal/config"
	"studyshare_backend/internal/middleware"
	"studyshare_backend/internal/model"
	"studyshare_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
		public.GET("/stats", c.course.Stats)
		public.POST("/translate", c.translate.Translate)
	}

	// 内容浏览：游客可访问公开内容，登录用户可见自己的私有内容
	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(cfg))
	{
		browse.GET("/courses", c.course.List)
		browse.GET("/courses/:courseId", c.course.Get)
		browse.GET("/courses/:courseId/materials", c.material.ListByCourse)
		browse.GET("/courses/:courseId/papers", c.paper.ListByCourse)
		browse.GET("/materials/search", c.material.Search)
		browse.GET("/materials/popular", c.material.Popular)
		browse.GET("/materials/:id", c.material.Get)
		browse.GET("/papers/popular", c.paper.Popular)
		browse.GET("/papers/:id", c.paper.Get)
	}

	// 授权路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/profile", c.auth.UpdateProfile)
		authGroup.PUT("/profile/password", c.auth.ChangePassword)

		authGroup.POST("/materials", c.material.Upload)
		authGroup.PUT("/materials/:id", c.material.Update)
		authGroup.DELETE("/materials/:id", c.material.Delete)
		authGroup.GET("/materials/:id/download", c.material.Download)
		authGroup.POST("/materials/:id/like", c.material.ToggleLike)
		authGroup.POST("/materials/:id/rate", c.material.Rate)

		// 试卷生成与管理
		authGroup.POST("/papers/generate", c.paper.Generate)
		authGroup.GET("/papers/:id/generation-status", c.paper.GenerationStatus)
		authGroup.GET("/papers/:id/download", c.paper.Download)
		authGroup.PUT("/papers/:id", c.paper.Update)
		authGroup.DELETE("/papers/:id", c.paper.Delete)
		authGroup.POST("/papers/:id/like", c.paper.ToggleLike)
		authGroup.POST("/papers/:id/rate", c.paper.Rate)

		authGroup.GET("/ws/notifications", c.notify.Connect)
	}

	// 管理员路由
	adminGroup := router.Group("/api")
	adminGroup.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		adminGroup.POST("/courses", c.course.Create)
	}
}
