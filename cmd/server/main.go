package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/threadline/backend/internal/router"
	"github.com/threadline/backend/internal/validators"
	"github.com/threadline/backend/pkg/config"
	"github.com/threadline/backend/pkg/firebase"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	// Initialize Firebase
	authClient, err := firebase.InitAuthClient(context.Background(), cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, authClient)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
