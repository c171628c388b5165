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

	"bitbucket.org/mmdatafocus/transfer_console/catalog"
	"bitbucket.org/mmdatafocus/transfer_console/config"
	"bitbucket.org/mmdatafocus/transfer_console/middlewares"
	"bitbucket.org/mmdatafocus/transfer_console/orders"
	"bitbucket.org/mmdatafocus/transfer_console/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func newRouter(a *api) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(customErrorLogger(config.GetLogger()))
	r.Use(middlewares.CorrelationMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())

	r.GET("/catalog/search", a.searchCatalogHandler)

	r.POST("/workspaces", a.createWorkspaceHandler)
	r.GET("/workspaces/:id", a.getWorkspaceHandler)
	r.GET("/workspaces/:id/totals", a.workspaceTotalsHandler)
	r.DELETE("/workspaces/:id", a.discardWorkspaceHandler)

	r.POST("/workspaces/:id/destinations", a.addDestinationHandler)
	r.DELETE("/workspaces/:id/destinations/:destinationId", a.removeDestinationHandler)
	r.PUT("/workspaces/:id/destinations/:destinationId/target", a.setDestinationTargetHandler)

	r.POST("/workspaces/:id/destinations/:destinationId/lines", a.addLineHandler)
	r.PUT("/workspaces/:id/destinations/:destinationId/lines/:index", a.updateLineHandler)
	r.DELETE("/workspaces/:id/destinations/:destinationId/lines/:index", a.removeLineHandler)
	r.POST("/workspaces/:id/destinations/:destinationId/catalog-lines", a.selectProductHandler)

	r.POST("/workspaces/:id/import", a.stageImportHandler)
	r.POST("/workspaces/:id/import/confirm", a.confirmImportHandler)
	r.DELETE("/workspaces/:id/import", a.cancelImportHandler)

	r.POST("/workspaces/:id/submit", a.submitHandler)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	a := &api{store: session.NewStore()}

	if catalogClient, err := catalog.NewClient(); err != nil {
		logger.WithFields(logrus.Fields{"field": "catalog"}).Warn("catalog search disabled: " + err.Error())
	} else {
		a.catalog = catalogClient
	}

	if ordersClient, err := orders.NewClient(); err != nil {
		logger.WithFields(logrus.Fields{"field": "orders"}).Warn("order submission disabled: " + err.Error())
	} else {
		a.submitter = orders.NewSubmitter(ordersClient)
	}

	r := newRouter(a)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect Redis after the port is open, off the main goroutine so an
	// unreachable Redis never blocks the shutdown path. Sessions survive
	// without it, just not across a restart.
	go config.ConnectRedisWithRetry(sigCtx)

	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
