package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"modu-consult/config"
	"modu-consult/consumer"
	"modu-consult/handlers"
	"modu-consult/middleware"
	"modu-consult/models"
	"modu-consult/monitoring"
	"modu-consult/notifier"
	"modu-consult/utils"
)

func main() {
	logger := log.New(os.Stdout, "CONSULT: ", log.LstdFlags|log.Lshortfile)

	cfg := config.Load()

	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := utils.InitSentry(cfg.SentryDSN); err != nil {
			logger.Printf("Sentry disabled: %v", err)
			sentryEnabled = false
		}
	}

	repo, err := models.NewPostgresRepository(models.PostgresConfig{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize Postgres: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Printf("Error closing database connection: %v", err)
		}
	}()

	// Redis holds admin sessions, so connect with retries before serving.
	var redisClient utils.RedisClient
	maxRetries := 5
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		redisClient, err = utils.NewRedisClient(cfg.RedisHost, cfg.RedisPassword)
		if err == nil {
			break
		}
		logger.Printf("Attempt %d: Failed to connect to Redis: %v", i+1, err)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		logger.Fatalf("Failed to initialize Redis after %d attempts: %v", maxRetries, err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Printf("Error closing Redis connection: %v", err)
		}
	}()

	var kafkaProducer utils.KafkaProducer
	if cfg.KafkaBroker != "" {
		kafkaProducer, err = utils.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			logger.Printf("Kafka disabled: %v", err)
			kafkaProducer = nil
		} else {
			defer kafkaProducer.Close()
		}
	} else {
		logger.Println("KAFKA_BROKER not set, notification dispatch disabled")
	}

	var esClient utils.ElasticsearchClient
	if cfg.ElasticsearchURL != "" {
		esClient, err = utils.NewElasticsearchClient(cfg.ElasticsearchURL)
		if err != nil {
			logger.Printf("Elasticsearch disabled: %v", err)
			esClient = nil
		}
	}

	// The consumer only runs when events are actually being produced.
	if kafkaProducer != nil {
		consultConsumer := consumer.NewConsultConsumer(cfg.KafkaBroker, buildNotifier(cfg, logger), esClient)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		consultConsumer.Start(ctx)
		defer consultConsumer.Stop()
	}

	monitoring.Init()

	consultHandler := handlers.NewConsultHandler(repo, kafkaProducer, redisClient, esClient, handlers.StatsConfig{
		BaselineTotal:    cfg.BaselineTotal,
		DailyLimit:       cfg.DailyLimit,
		UTCOffsetMinutes: cfg.UTCOffsetMinutes,
	})
	adminHandler := handlers.NewAdminHandler(redisClient, cfg.AdminID, cfg.AdminPW)

	router := setupRouter(consultHandler, adminHandler, redisClient, sentryEnabled)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Printf("Server is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Server shutdown error: %v", err)
	}
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

func buildNotifier(cfg *config.Config, logger *log.Logger) notifier.Notifier {
	multi := notifier.NewMulti()

	if cfg.SMTPHost != "" && cfg.NotifyTo != "" {
		multi.Add("email", notifier.NewEmail(notifier.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.NotifyFrom,
			To:       cfg.NotifyTo,
		}))
	}
	if cfg.WebhookURL != "" {
		multi.Add("webhook", notifier.NewWebhook(cfg.WebhookURL))
	}

	if multi.Len() == 0 {
		logger.Println("No notification transport configured, logging alerts to console")
		return notifier.NewConsole()
	}
	return multi
}

func setupRouter(consultHandler *handlers.ConsultHandler, adminHandler *handlers.AdminHandler, cache utils.RedisClient, sentryEnabled bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "서버 오류가 발생했습니다."})
	}))
	router.Use(middleware.PrometheusMetrics())
	if sentryEnabled {
		router.Use(middleware.SentryMiddleware(), middleware.ErrorHandler())
	}

	router.GET("/metrics", gin.WrapH(monitoring.Handler()))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := cache.SetToCache(ctx, "healthcheck", "ping", 10*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"details": gin.H{"redis": "unavailable"},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"details": gin.H{"redis": "available"},
		})
	})

	api := router.Group("/api")
	{
		api.POST("/consult", consultHandler.CreateConsult)
		api.GET("/consult/stats", consultHandler.GetDailyStats)

		authed := api.Group("", middleware.RequireAdmin(cache))
		{
			authed.GET("/consult", consultHandler.ListConsults)
			authed.GET("/consult/search", consultHandler.SearchConsults)
			authed.GET("/consult/:id", consultHandler.GetConsult)
			authed.PATCH("/consult/:id/status", consultHandler.UpdateStatus)
			authed.DELETE("/consult/:id", consultHandler.DeleteConsult)
		}
	}

	router.POST("/admin/login", adminHandler.Login)
	router.POST("/admin/logout", adminHandler.Logout)
	router.GET("/admin/login", func(c *gin.Context) {
		c.File("./public/admin-login.html")
	})
	router.GET("/admin", middleware.RequireAdmin(cache), func(c *gin.Context) {
		c.File("./public/admin.html")
	})

	// Landing page and assets. admin.html is reachable only through the
	// authenticated /admin route above.
	router.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "페이지를 찾을 수 없습니다."})
			return
		}
		if c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, gin.H{"error": "페이지를 찾을 수 없습니다."})
			return
		}
		if p == "/admin.html" {
			c.String(http.StatusForbidden, "Forbidden")
			return
		}
		if p == "/" {
			c.File("./public/index.html")
			return
		}
		c.File(filepath.Join("public", filepath.Clean("/"+p)))
	})

	return router
}
