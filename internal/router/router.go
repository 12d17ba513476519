package router

import (
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/threadline/backend/internal/cache"
	"github.com/threadline/backend/internal/handlers"
	"github.com/threadline/backend/internal/middleware"
	"github.com/threadline/backend/internal/models"
	"github.com/threadline/backend/internal/repositories"
	"github.com/threadline/backend/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const (
	cacheSize = 1024
	cacheTTL  = 5 * time.Minute
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Membership{},
		&models.Comment{},
		&models.Vote{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	if err := repositories.EnsureVoteIndexes(pgdb); err != nil {
		log.Fatalf("Failed to create vote indexes: %v", err)
	}
	log.Println("PostgreSQL migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	membershipRepo := repositories.NewPostgresMembershipRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	voteRepo := repositories.NewPostgresVoteRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("threadline"))

	// --- Shared tag cache ---
	tagCache, err := cache.New(cacheSize, cacheTTL)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	// --- Services ---
	commentService := services.NewCommentService(commentRepo, postRepo, membershipRepo, tagCache)
	voteService := services.NewVoteService(voteRepo, commentRepo, postRepo, tagCache)
	feedService := services.NewFeedService(postRepo, commentRepo, tagCache)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	postHandler := handlers.NewPostHandler(postRepo, membershipRepo)
	postHandler.RegisterPostRoutes(api)

	commentHandler := handlers.NewCommentHandler(commentService)
	commentHandler.RegisterCommentRoutes(api)

	voteHandler := handlers.NewVoteHandler(voteService)
	voteHandler.RegisterVoteRoutes(api)

	feedHandler := handlers.NewFeedHandler(feedService)
	feedHandler.RegisterFeedRoutes(api)

	log.Println("All routes configured.")
}
