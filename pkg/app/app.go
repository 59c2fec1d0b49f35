// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/yeisme/mediavault/pkg/api"
	"github.com/yeisme/mediavault/pkg/configs"
	"github.com/yeisme/mediavault/pkg/context"
	"github.com/yeisme/mediavault/pkg/internal/connector"
	"github.com/yeisme/mediavault/pkg/internal/service"
	"github.com/yeisme/mediavault/pkg/internal/storage"
	"github.com/yeisme/mediavault/pkg/log"
	"github.com/yeisme/mediavault/pkg/metrics"
	"github.com/yeisme/mediavault/pkg/middleware"
	"github.com/yeisme/mediavault/pkg/tracing"
)

type App struct {
	Engine *gin.Engine

	config    *configs.AppConfig
	manager   *storage.Manager
	scheduler gocron.Scheduler
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()
	if config.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	// 建表迁移
	if err := connector.NewGorm(manager.GetDBClient().DB).Migrate(ctx); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	// 写后钩子：把每次成功写入广播到 MQ
	service.Hooks().Register(service.MQPublishHook(manager.GetMQClient()))

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.ActorMiddleware(),
		middleware.StorageMiddleware(manager),
	)

	api.RegisterGroup(engine)

	// 本地后端时直接静态暴露公共读路径；生产部署可由网关接管
	if config.Storage.Provider == configs.StorageProviderLocal {
		engine.Static(config.Storage.LocalPublicBase, config.Storage.LocalRoot)
	}

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	app := &App{
		Engine:  engine,
		config:  config,
		manager: manager,
	}

	app.startJanitor(ctx)

	return app
}

// startJanitor 启动后台清理任务，定期回收过期的 pending 上传.
func (a *App) startJanitor(ctx contextPkg.Context) {
	interval := a.config.Storage.JanitorInterval()
	if interval <= 0 {
		return
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Logger().Error().Err(err).Msg("create janitor scheduler")
		return
	}

	// janitor 以系统身份运行，context 携带存储 Manager
	jobCtx := context.WithStorageManager(ctx, a.manager)

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			svc := service.NewFmService(jobCtx)

			n, rerr := svc.ReapStalePending(jobCtx)
			if rerr != nil {
				log.Logger().Error().Err(rerr).Msg("reap stale pending uploads")
				return
			}

			if n > 0 {
				metrics.ReapedPending.Add(float64(n))
				log.Logger().Info().Int("reaped", n).Msg("stale pending uploads reclaimed")
			}
		}),
	)
	if err != nil {
		log.Logger().Error().Err(err).Msg("schedule janitor job")
		return
	}

	sched.Start()
	a.scheduler = sched
}

// Run 启动 HTTP 服务，阻塞直到退出.
func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}

// Close 释放后台任务与存储资源.
func (a *App) Close() error {
	if a.scheduler != nil {
		_ = a.scheduler.Shutdown()
	}

	_ = tracing.ShutdownTracer(contextPkg.Background())

	if a.manager != nil {
		return a.manager.Close()
	}

	return nil
}
