package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"outfit-planner/internal/app"
	"outfit-planner/internal/auth"
	"outfit-planner/internal/calendar"
	"outfit-planner/internal/config"
	"outfit-planner/internal/database"
	"outfit-planner/internal/llm"
	"outfit-planner/internal/metrics"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/recommender"
	"outfit-planner/internal/server"
	"outfit-planner/internal/telegram"
	"outfit-planner/internal/wardrobe"
	"outfit-planner/internal/weather"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 3. LLMs
	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	var textGen llm.TextGenerator = geminiClient
	if cfg.GroqAPIKey != "" {
		textGen = llm.NewFallback(geminiClient, llm.NewGroqClient(cfg.GroqAPIKey, 0.7))
	}
	textGen = llm.NewRateLimited(textGen, cfg.LLMRequestsPerMinute)

	// 4. Services
	users := auth.NewUserRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	deps := app.Deps{
		Wardrobe: wardrobe.NewRepository(db.SQL),
		Outfits:  outfit.NewRepository(db.SQL),
		Users:    users,
		Stylist:  recommender.NewRecommender(textGen),
		Metrics:  metricsStore,
		Location: cfg.Location,
	}
	if cfg.WeatherAPIKey != "" {
		deps.Weather = weather.NewClient(cfg.WeatherAPIKey)
	} else {
		log.Println("WEATHER_API_KEY not set, city lookups disabled")
	}
	if cfg.CalendarSyncEnabled() {
		deps.Calendar = calendar.NewSyncer(cfg.GoogleClientID, cfg.GoogleClientSecret)
	}
	application := app.NewApp(deps)

	dataDir := filepath.Dir(cfg.DatabasePath)
	opts := server.Options{
		CORSOrigins: cfg.CORSOrigins,
		StaticDir:   cfg.StaticDir,
		DataDir:     dataDir,
	}

	// 5. Telegram Bot (optional)
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg, func(userID int64) telegram.Services {
			return application.ForUser(userID)
		}, metricsStore, dataDir)
		if err != nil {
			log.Fatalf("Failed to initialize Telegram Bot: %v", err)
		}
		opts.Extra = func(r *gin.Engine) { bot.RegisterRoutes(r) }
	}

	// 6. Start Server with Graceful Shutdown
	gin.SetMode(gin.ReleaseMode)
	srv := server.New(application, auth.NewIssuer(cfg.JWTSecret), users, opts)
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server exiting")
}
