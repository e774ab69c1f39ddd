package server

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"alumniportal/internal/config"
	"alumniportal/internal/handler"
	"alumniportal/internal/middleware"
	"alumniportal/internal/repository"
	"alumniportal/internal/service"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	txm := repository.NewTxManager(db)

	mailer := service.NewMailer(cfg)
	dispatcher := service.NewNotificationDispatcher(notificationRepo)

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mailer, cfg)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)

	conversationSvc := service.NewConversationService(conversationRepo, userRepo, dispatcher, notificationSvc, txm)
	conversationHandler := handler.NewConversationHandler(conversationSvc)

	requestSvc := service.NewRequestService(requestRepo, userRepo, resourceRepo, dispatcher, conversationSvc, notificationSvc, txm, redisClient, cfg)
	requestHandler := handler.NewRequestHandler(requestSvc)

	authSvc := service.NewAuthService(userRepo, requestSvc, txm, cfg)
	authHandler := handler.NewAuthHandler(authSvc)

	moderationSvc := service.NewModerationService(resourceRepo, dispatcher, notificationSvc, txm)
	moderationHandler := handler.NewModerationHandler(moderationSvc)

	router := gin.New()

	setupCORS(router, cfg)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Admin routes
		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/registrations", requestHandler.ListRegistrations)
			adminGroup.GET("/resources/pending", moderationHandler.ListPending)
			adminGroup.POST("/resources/:id/approve", moderationHandler.Approve)
			adminGroup.POST("/resources/:id/reject", moderationHandler.Reject)
		}

		// Request routes
		protected.POST("/requests/contact", requestHandler.SubmitContact)
		protected.POST("/requests/job", requestHandler.SubmitJob)
		protected.POST("/requests/:id/approve", requestHandler.Approve)
		protected.POST("/requests/:id/reject", requestHandler.Reject)
		protected.GET("/requests/sent", requestHandler.ListSent)
		protected.GET("/requests/received", requestHandler.ListReceived)
		protected.GET("/contacts/:user_id/status", requestHandler.ContactStatus)

		// Resource routes
		protected.POST("/resources", moderationHandler.Create)
		protected.GET("/resources", moderationHandler.List)
		protected.GET("/resources/me", moderationHandler.ListMine)
		protected.GET("/resources/:id", moderationHandler.Get)
		protected.PUT("/resources/:id", moderationHandler.Update)
		protected.POST("/resources/:id/submit", moderationHandler.SubmitForReview)
		protected.POST("/resources/:id/close", moderationHandler.Close)
		protected.POST("/resources/:id/archive", moderationHandler.Archive)

		// Notification routes
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCounts)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.PUT("/notifications/:id/archive", notificationHandler.Archive)
		protected.DELETE("/notifications/:id", notificationHandler.Delete)

		// Conversation routes
		protected.GET("/conversations", conversationHandler.List)
		protected.GET("/conversations/:id/messages", conversationHandler.ListMessages)
		protected.POST("/conversations/:id/messages", conversationHandler.SendMessage)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func setupCORS(router *gin.Engine, cfg *config.Config) {
	origins := strings.Split(cfg.AllowedOrigins, ",")

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
