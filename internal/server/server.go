// Package server assembles the gin engine and runs it.
//
// New is the composition root: it builds the repositories, services and
// handlers from the injected dependencies and registers every route. Run
// serves until its context ends, then drains in-flight requests and stops
// the image cleanup workers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"shopper/internal/apperror"
	"shopper/internal/cleanup"
	"shopper/internal/config"
	"shopper/internal/handler"
	"shopper/internal/imagestore"
	"shopper/internal/metrics"
	"shopper/internal/middleware"
	"shopper/internal/repository"
	"shopper/internal/service"
	"shopper/internal/views"
)

// Deps are the long-lived collaborators created by main.
type Deps struct {
	DB      *gorm.DB
	Images  imagestore.Store
	Queue   cleanup.Queue
	Metrics *metrics.Metrics
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer
}

type Server struct {
	cfg    *config.Config
	deps   Deps
	engine *gin.Engine
	logger *slog.Logger
}

func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := views.Parse(cfg.App.ViewsDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		engine: gin.New(),
		logger: logger,
	}
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.MaxMultipartMemory = cfg.Images.MaxBytes
	s.routes()
	return s, nil
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	users := repository.NewUserStore(s.deps.DB)
	products := repository.NewProductStore(s.deps.DB)
	auth := service.NewAuth(users, s.logger)
	catalog := service.NewCatalog(products, s.deps.Images, s.deps.Queue, s.deps.Metrics, s.logger)

	store := cookie.NewStore([]byte(s.cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   s.cfg.Session.MaxAge,
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	r := s.engine
	r.Use(middleware.Logger(s.logger))

	// health checks and assets skip sessions
	r.GET("/health", s.health)
	if s.deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if local, ok := s.deps.Images.(*imagestore.Local); ok {
		r.Static(s.cfg.Images.URLPrefix, local.Dir())
	}

	pages := r.Group("/",
		sessions.Sessions(s.cfg.Session.CookieName, store),
		middleware.ErrorBoundary(s.logger),
		middleware.Recover(s.logger),
		middleware.LoadUser(auth, s.logger),
		middleware.LimitBody(s.cfg.Images.MaxBytes+1<<20),
		middleware.CSRF(s.logger),
	)

	shop := handler.NewShopHandler(catalog, s.logger)
	pages.GET("/", shop.Index)

	ah := handler.NewAuthHandler(auth, s.logger)
	pages.GET("/auth/signup", ah.SignupForm)
	pages.POST("/auth/signup", ah.Signup)
	pages.GET("/auth/login", ah.LoginForm)
	pages.POST("/auth/login", ah.Login)
	pages.POST("/auth/logout", ah.Logout)

	admin := handler.NewAdminHandler(catalog, s.logger)
	ag := pages.Group("/admin", middleware.RequireLogin())
	ag.GET("/all-products", admin.Products)
	ag.GET("/add-product", admin.AddForm)
	ag.POST("/add-product", admin.Add)
	ag.GET("/edit-product/:itemId", admin.EditForm)
	ag.POST("/edit-product", admin.Edit)
	ag.POST("/delete-product", admin.Delete)

	r.NoRoute(
		sessions.Sessions(s.cfg.Session.CookieName, store),
		middleware.ErrorBoundary(s.logger),
		middleware.LoadUser(auth, s.logger),
		func(c *gin.Context) {
			_ = c.Error(apperror.NotFound("page", c.Request.URL.Path))
		},
	)
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.deps.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.logger.ErrorContext(c.Request.Context(), "health check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Run serves HTTP and the cleanup workers until ctx is done, then shuts
// both down. In-flight requests get 30 seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.App.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.deps.Queue.Run(workerCtx)
	}()
	defer func() {
		stopWorkers()
		wg.Wait()
		s.logger.Info("image cleanup workers stopped")
	}()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("environment", s.cfg.App.Environment),
			slog.String("images", s.cfg.Images.Provider),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
