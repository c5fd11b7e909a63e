package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voluntaria/platform/internal/application"
	applicationdomain "github.com/voluntaria/platform/internal/application/domain"
	"github.com/voluntaria/platform/internal/clock"
	"github.com/voluntaria/platform/internal/config"
	"github.com/voluntaria/platform/internal/event"
	eventdomain "github.com/voluntaria/platform/internal/event/domain"
	"github.com/voluntaria/platform/internal/notification"
	notificationdomain "github.com/voluntaria/platform/internal/notification/domain"
	"github.com/voluntaria/platform/internal/observability"
	obslogger "github.com/voluntaria/platform/internal/observability/logger"
	obsmetrics "github.com/voluntaria/platform/internal/observability/metrics"
	obstracing "github.com/voluntaria/platform/internal/observability/tracing"
	"github.com/voluntaria/platform/internal/providers/email"
	"github.com/voluntaria/platform/internal/sweeper"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	application.Module,
	event.Module,
	notification.Module,
	email.Module,
	sweeper.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type ServerParams struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Config          config.Config
	ApplicationSvc  applicationdomain.Service
	NotificationSvc notificationdomain.Service
	EventRepo       eventdomain.Repository
	Sweeper         *sweeper.Sweeper
	SweepScheduler  *sweeper.Scheduler
}

type Server struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             config.Config
	applicationSvc  applicationdomain.Service
	notificationSvc notificationdomain.Service
	eventRepo       eventdomain.Repository
	sweeper         *sweeper.Sweeper
	sweepScheduler  *sweeper.Scheduler
}

func NewServer(p ServerParams) *Server {
	return &Server{
		db:              p.DB,
		log:             p.Log.Named("server"),
		cfg:             p.Config,
		applicationSvc:  p.ApplicationSvc,
		notificationSvc: p.NotificationSvc,
		eventRepo:       p.EventRepo,
		sweeper:         p.Sweeper,
		sweepScheduler:  p.SweepScheduler,
	}
}

func registerRoutes(r *gin.Engine, s *Server) {
	api := r.Group("/api")
	api.POST("/applications/transition", s.TransitionApplication)
	api.GET("/events", s.ListEvents)
	api.POST("/events/sweep", s.SweepEvents)
	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
