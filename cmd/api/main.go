package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"referral-tracking-api/config"
	"referral-tracking-api/middleware"
	"referral-tracking-api/monitor"
	"referral-tracking-api/repository"
	"referral-tracking-api/routes"
	"referral-tracking-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, logWriter := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	// Initialize database
	config.InitDB()

	if len(config.JWTSecret()) == 0 {
		log.Println("Warning: JWT_SECRET is empty, tokens are signed with an empty key")
	}

	// Set Gin mode
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	store := repository.NewStore(config.DB)
	mailer := config.NewMailer(config.LoadMailConfig())
	notifier := services.NewTemplateNotifier(store, mailer)

	// Create Gin router
	router := gin.New()

	// Add logging middleware
	router.Use(gin.Logger())

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware())

	monitor.RegisterLogsRoute(router)

	// Setup routes
	routes.SetupRoutes(router, routes.Services{
		Workflow: services.NewReferralWorkflow(store, notifier),
		Users:    services.NewUserService(store),
		Admin:    services.NewAdminService(store),
	})

	// Start server
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	log.Printf("Portal links point to %s", config.FrontendBaseURL())
	if ginMode == "release" {
		log.Printf("Running in production mode")
	} else {
		log.Printf("Running in development mode")
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(server, quit, notifier.Wait); err != nil {
		log.Fatal("Failed to start server:", err)
	}
	log.Println("Server stopped")
}

// serve runs server until quit fires, shuts it down, then calls drain so
// background work started by requests can finish.
func serve(server *http.Server, quit <-chan os.Signal, drain func()) error {
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Requests are drained; let queued emails finish before exiting.
	drain()
	return nil
}
