package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDatabasePath   = "data/outfits.db"
	defaultStaticDir      = "static"
	defaultPort           = "8080"
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultLLMRequestsRPM = 15
)

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"https://personalized-outfit-recommendation.vercel.app",
}

// Config holds the configuration for the server and the Telegram bot.
type Config struct {
	JWTSecret    string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string

	WeatherAPIKey string

	DatabasePath string
	StaticDir    string
	Port         string
	CORSOrigins  []string

	// Free-tier Gemini allows 15 requests per minute.
	LLMRequestsPerMinute int

	// Google Calendar sync (optional)
	GoogleClientID     string
	GoogleClientSecret string

	// Telegram Config (optional)
	TelegramBotToken   string
	TelegramWebhookURL string
	TelegramUsers      map[int64]int64
	TelegramAdminID    int64

	Location *time.Location
}

// ClientConfig holds what the command line client needs to talk to a backend.
type ClientConfig struct {
	BackendURL  string
	AccessToken string
	Location    *time.Location
}

// CalendarSyncEnabled reports whether Google credentials are configured.
func (c *Config) CalendarSyncEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// TelegramEnabled reports whether the bot should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	rpm := defaultLLMRequestsRPM
	if raw := os.Getenv("LLM_REQUESTS_PER_MINUTE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("LLM_REQUESTS_PER_MINUTE must be a positive integer, got %q", raw)
		}
		rpm = parsed
	}

	telegramUsers, err := parseTelegramUsers(os.Getenv("TELEGRAM_USERS"))
	if err != nil {
		return nil, err
	}

	var telegramAdminID int64
	if raw := os.Getenv("TELEGRAM_ADMIN_ID"); raw != "" {
		telegramAdminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ADMIN_ID must be numeric, got %q", raw)
		}
	}

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}

	corsOrigins := defaultCORSOrigins
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		corsOrigins = splitList(raw)
	}

	return &Config{
		JWTSecret:            jwtSecret,
		GeminiAPIKey:         geminiAPIKey,
		GeminiModel:          getEnv("GEMINI_MODEL", defaultGeminiModel),
		GroqAPIKey:           os.Getenv("GROQ_API_KEY"),
		WeatherAPIKey:        os.Getenv("WEATHER_API_KEY"),
		DatabasePath:         getEnv("DATABASE_PATH", defaultDatabasePath),
		StaticDir:            getEnv("STATIC_DIR", defaultStaticDir),
		Port:                 getEnv("PORT", defaultPort),
		CORSOrigins:          corsOrigins,
		LLMRequestsPerMinute: rpm,
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:   os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramUsers:        telegramUsers,
		TelegramAdminID:      telegramAdminID,
		Location:             loc,
	}, nil
}

// NewClientFromEnv creates a ClientConfig from environment variables.
func NewClientFromEnv() (*ClientConfig, error) {
	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable not set")
	}

	accessToken := os.Getenv("ACCESS_TOKEN")
	if accessToken == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN environment variable not set")
	}

	loc, err := loadLocation()
	if err != nil {
		return nil, err
	}

	return &ClientConfig{
		BackendURL:  strings.TrimRight(backendURL, "/"),
		AccessToken: accessToken,
		Location:    loc,
	}, nil
}

func loadLocation() (*time.Location, error) {
	name := os.Getenv("PLANNER_TIMEZONE")
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid PLANNER_TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

// parseTelegramUsers reads "telegramID:userID" pairs separated by commas.
func parseTelegramUsers(raw string) (map[int64]int64, error) {
	users := make(map[int64]int64)
	for _, pair := range splitList(raw) {
		tgID, userID, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid TELEGRAM_USERS entry %q: expected telegramID:userID", pair)
		}
		tg, err := strconv.ParseInt(strings.TrimSpace(tgID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid telegram id in TELEGRAM_USERS entry %q: %w", pair, err)
		}
		uid, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id in TELEGRAM_USERS entry %q: %w", pair, err)
		}
		users[tg] = uid
	}
	return users, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
