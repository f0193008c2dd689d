package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyshare_backend/internal/config"
	"studyshare_backend/internal/controller"
	"studyshare_backend/internal/repository"
	"studyshare_backend/internal/service"
	"studyshare_backend/pkg/database"
	"studyshare_backend/pkg/logger"
	"studyshare_backend/pkg/monitoring"
	"studyshare_backend/pkg/security"
	"studyshare_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	material    *repository.MaterialRepository
	paper       *repository.PaperRepository
	interaction *repository.InteractionRepository
}

type services struct {
	auth        *service.AuthService
	storage     *service.StorageService
	course      *service.CourseService
	material    *service.MaterialService
	paper       *service.PaperService
	generation  *service.GenerationService
	generator   *service.GeneratorService
	translation *service.TranslationService
	stats       *service.StatsService
	notifyHub   *service.NotifyHub
}

type controllers struct {
	auth      *controller.AuthController
	course    *controller.CourseController
	material  *controller.MaterialController
	paper     *controller.PaperController
	translate *controller.TranslateController
	notify    *controller.NotifyController
	health    *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		material:    repository.NewMaterialRepository(db),
		paper:       repository.NewPaperRepository(db),
		interaction: repository.NewInteractionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course)
	s.material = service.NewMaterialService(repos.material, repos.course, repos.interaction, s.storage)
	s.paper = service.NewPaperService(repos.paper, repos.course, repos.interaction)
	s.translation = service.NewTranslationService(cfg.Translate, rdb)
	s.stats = service.NewStatsService(repos.user, repos.course, repos.material, repos.paper)

	s.notifyHub = service.NewNotifyHub(rdb)
	go s.notifyHub.Run()

	s.generator = service.NewGeneratorService(cfg.Generator)
	s.generation = service.NewGenerationService(
		repos.paper,
		repos.material,
		repos.course,
		s.generator,
		s.material,
		s.notifyHub,
		cfg.Generator,
		logger.Log,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth),
		course:    controller.NewCourseController(s.course, s.stats),
		material:  controller.NewMaterialController(s.material),
		paper:     controller.NewPaperController(s.paper, s.generation),
		translate: controller.NewTranslateController(s.translation),
		notify:    controller.NewNotifyController(s.notifyHub),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	gin.SetMode(cfg.Server.Mode)

	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 不可用时降级运行：翻译缓存与多实例通知广播失效，其余功能不受影响
		logger.Log.Warn("Redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("studyshare-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// OnConfigReload 配置热加载回调。只替换可以安全热更的部分，
// 端口、数据库连接等需要重启才会生效。
func (a *App) OnConfigReload(cfg *config.Config) {
	a.Config.Translate = cfg.Translate
	a.Config.RateLimit = cfg.RateLimit
	a.Config.CORS = cfg.CORS
	logger.Log.Info("配置已热加载")
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.services != nil && a.services.notifyHub != nil {
		a.services.notifyHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
