package main

import (
	"os"
	"time"

	"github.com/Mechmay/dinjure-online/internal/config"
	"github.com/Mechmay/dinjure-online/internal/database"
	"github.com/Mechmay/dinjure-online/internal/handlers"
	"github.com/Mechmay/dinjure-online/internal/middleware"
	"github.com/Mechmay/dinjure-online/internal/services"
	"github.com/Mechmay/dinjure-online/internal/ws"

	_ "github.com/Mechmay/dinjure-online/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Dinjure Online API
// @version         1.0
// @description     API for the dead/injured number guessing game: matchmaking lobby, shared sessions and guess scoring
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	gameService := services.NewGameService(db)

	authHandler := handlers.NewAuthHandler(authService)
	gameHandler := handlers.NewGameHandler(gameService, hub)
	wsHandler := handlers.NewWSHandler(hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/games/:id", wsHandler.HandleGameWebSocket)
	r.GET("/ws/lobby", wsHandler.HandleLobbyWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		games := api.Group("/games")
		games.Use(middleware.JWTAuth(authService))
		{
			games.GET("", gameHandler.Lobby)
			games.POST("", gameHandler.CreateGame)
			games.GET("/:id", gameHandler.GetGame)
			games.DELETE("/:id", gameHandler.DeleteGame)
			games.POST("/:id/join", gameHandler.JoinGame)
			games.POST("/:id/numbers", gameHandler.SetNumbers)
			games.POST("/:id/guess", gameHandler.SubmitGuess)
		}
	}

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
