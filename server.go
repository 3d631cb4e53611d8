package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/middlewares"
	"github.com/mmdatafocus/procurement_backend/utils"
	"github.com/mmdatafocus/procurement_backend/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	_ = godotenv.Load()

	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sheetCfg, err := config.LoadSheetConfig()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "config"}).Fatal(err.Error())
	}

	client := gsheets.NewClient(sheetCfg, logger)
	executor := gsheets.NewExecutor(sheetCfg, logger)
	loader := workflow.NewSheetLoader(client, sheetCfg, logger)
	store := workflow.NewStore(loader, logger)
	coordinator := workflow.NewCoordinator(store, executor, sheetCfg, logger)

	api := &apiServer{
		cfg:         sheetCfg,
		client:      client,
		executor:    executor,
		store:       store,
		coordinator: coordinator,
		logger:      logger,
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS: explicit allowlist in production, allow-all otherwise.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.UniqueSlice(utils.SplitAndTrim(allowedOrigins))
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.POST("/auth/login", api.loginHandler())

	r.GET("/api/mismatch", api.mismatchHandler())
	r.POST("/api/mismatch/reload", api.reloadHandler())
	r.POST("/api/corrections", api.submitCorrectionHandler())
	r.GET("/api/dashboard", api.dashboardHandler())
	r.GET("/api/reports/mismatch.xlsx", api.mismatchExcelHandler())

	r.GET("/api/sheets/:tab", api.sheetRowsHandler())
	r.POST("/api/sheets/:tab/rows", api.insertRowHandler())
	r.PATCH("/api/sheets/:tab/rows/:index", api.updateCellsHandler())

	r.POST("/api/uploads", api.uploadHandler())

	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}
