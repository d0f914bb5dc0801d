package servehttp

import (
	"context"
	"ieflow/bizerror"
	"ieflow/common"
	"ieflow/infra/tracing"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const DefaultAddr = ":8080"

// NewEngine creates the gin engine with error rendering and tracing installed,
// GET / answers the service name for health checks.
func NewEngine() *gin.Engine {
	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})
	return engine
}

// StartHTTPServer serves until SIGINT or SIGTERM, then shuts down gracefully. HTTP_ADDR overrides the address.
func StartHTTPServer(engine *gin.Engine) {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		logrus.Infof("http server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	// kill -9 can't be caught
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Infoln("[QUIT] shutdown signal has been received, the service will exit in 3 seconds.")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("[QUIT] http server shutdown failed: %v", err)
	}
	logrus.Infoln("[QUIT] http server is shutdown gracefully, new request will be rejected.")
}
