package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Jaychangani2005/StackIt/internal/database"
	"github.com/Jaychangani2005/StackIt/internal/handlers"
	"github.com/Jaychangani2005/StackIt/internal/middleware"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize database and migrate schema
	svc := database.New()

	// Apply the ledger constraints AutoMigrate cannot express; this is
	// the one-time schema step, never repeated from request handlers.
	bootstrap, err := database.NewDatabase()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := bootstrap.Initialize(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	bootstrap.Close()

	// Create unified handler
	handler := handlers.NewHandler(svc.GetDB())

	// Create server instance
	newServer := &Server{
		db:      svc,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if s.db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		c.JSON(http.StatusOK, s.db.Health())
	})

	// API routes
	api := r.Group("/api")
	{
		// Public reads; a bearer token is optional and only fills in
		// the caller's own vote on each item
		public := api.Group("")
		public.Use(middleware.OptionalAuth())
		{
			public.GET("/questions", s.handler.Question.GetQuestions)
			public.GET("/questions/:id", s.handler.Question.GetQuestion)
			public.GET("/questions/:id/answers", s.handler.Answer.GetAnswers)
			public.GET("/users/:id", s.handler.User.GetUser)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/me", s.handler.User.GetMe)
			protected.PUT("/me", s.handler.User.UpdateMe)
			protected.GET("/me/questions", s.handler.User.GetMyQuestions)
			protected.GET("/me/answers", s.handler.User.GetMyAnswers)

			protected.POST("/questions", s.handler.Question.CreateQuestion)
			protected.PUT("/questions/:id", s.handler.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", s.handler.Question.DeleteQuestion)
			protected.POST("/questions/:id/vote", s.handler.Question.VoteQuestion)
			protected.POST("/questions/:id/accept-answer/:answerId", s.handler.Question.AcceptAnswer)

			protected.POST("/answers", s.handler.Answer.CreateAnswer)
			protected.PUT("/answers/:id", s.handler.Answer.UpdateAnswer)
			protected.DELETE("/answers/:id", s.handler.Answer.DeleteAnswer)
			protected.POST("/answers/:id/vote", s.handler.Answer.VoteAnswer)

			protected.POST("/admin/reconcile-scores", s.handler.Admin.ReconcileScores)
		}
	}

	return r
}
