package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/cache"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/database"
	"studybuddy/backend/internal/handler"
	"studybuddy/backend/internal/match"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	// Swagger imports
	_ "studybuddy/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           StudyBuddy API
// @version         1.0
// @description     This is the API for the StudyBuddy service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.AppConfig

	// Connect to the database
	database.Connect(cfg.DatabaseURL)

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// The KV cache is never authoritative, but failing to open an embedded
	// store is a configuration problem, so it is fatal at startup.
	kv, err := cache.Open(cfg.CachePath)
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer kv.Close()

	matchCache := cache.NewMatchCache(kv, logger,
		time.Duration(cfg.MatchCacheTTLSeconds)*time.Second,
		time.Duration(cfg.ProfileCacheTTLSeconds)*time.Second,
	)
	limiter := cache.NewRateLimiter(kv, logger)

	store := database.NewStore(database.DB)
	engine := match.NewEngine(store, matchCache, logger)

	users := handler.NewUserHandler(database.DB, matchCache)
	availability := handler.NewAvailabilityHandler(database.DB, matchCache)
	associations := handler.NewAssociationHandler(database.DB, matchCache)
	courses := handler.NewCourseHandler(database.DB)
	topics := handler.NewTopicHandler(database.DB)
	matches := handler.NewMatchHandler(engine, limiter,
		cfg.RateLimitMax,
		time.Duration(cfg.RateLimitWindowSeconds)*time.Second,
	)
	connections := handler.NewConnectionHandler(engine, database.DB)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", users.Register)
			authRoutes.POST("/login", users.Login)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware())
		{
			userRoutes.GET("/me", users.GetMe)
			userRoutes.PUT("/me", users.UpdateMe)
			userRoutes.POST("/me/verify", users.VerifyMe)
			userRoutes.GET("/:id", users.GetUserByID)

			// Weekly availability
			userRoutes.GET("/me/availability", availability.List)
			userRoutes.POST("/me/availability", availability.Create)
			userRoutes.DELETE("/me/availability/:id", availability.Delete)

			// Course/topic associations
			userRoutes.GET("/me/contexts", associations.List)
			userRoutes.POST("/me/contexts", associations.Join)
			userRoutes.DELETE("/me/contexts", associations.Leave)

			// Connection requests
			userRoutes.GET("/me/connections", connections.List)
			userRoutes.POST("/:id/connect", connections.SendRequest)
		}

		// Connection lifecycle (protected)
		connectionRoutes := apiV1.Group("/connections")
		connectionRoutes.Use(auth.AuthMiddleware())
		{
			connectionRoutes.POST("/:id/accept", connections.Accept)
			connectionRoutes.POST("/:id/decline", connections.Decline)
		}

		// Match discovery (protected, rate limited)
		matchRoutes := apiV1.Group("/matches")
		matchRoutes.Use(auth.AuthMiddleware(), matches.RateLimit())
		{
			matchRoutes.GET("", matches.GetMatches)
		}

		// Catalog routes (public, token optional)
		catalogRoutes := apiV1.Group("")
		catalogRoutes.Use(auth.OptionalAuthMiddleware())
		{
			catalogRoutes.GET("/courses", courses.List)
			catalogRoutes.GET("/topics", topics.List)
		}

		// Admin routes (protected by auth and admin check)
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(auth.AuthMiddleware(), auth.AdminMiddleware())
		{
			// Courses CRUD
			adminCourses := adminRoutes.Group("/courses")
			{
				adminCourses.POST("", courses.Create)
				adminCourses.PUT("/:id", courses.Update)
				adminCourses.DELETE("/:id", courses.Delete)
			}

			// Topics CRUD
			adminTopics := adminRoutes.Group("/topics")
			{
				adminTopics.POST("", topics.Create)
				adminTopics.PUT("/:id", topics.Update)
				adminTopics.DELETE("/:id", topics.Delete)
			}
		}
	}

	fmt.Printf("Server is running on %s\n", cfg.ServerAddr)
	fmt.Println("Swagger UI is available at http://localhost:8080/swagger/index.html")
	log.Fatal(router.Run(cfg.ServerAddr))
}
