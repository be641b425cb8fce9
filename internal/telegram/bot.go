package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"outfit-planner/internal/config"
	"outfit-planner/internal/metrics"
	"outfit-planner/internal/planner"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackGenerate = "generate"
	callbackSave     = "save"

	generationTimeout = 2 * time.Minute
)

// Sender is the part of the Telegram API the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Services are the planner collaborators for one user.
type Services interface {
	planner.HistoryService
	planner.GenerationService
	planner.PersistenceService
}

// ServicesFor resolves the collaborators for a planner user id.
type ServicesFor func(userID int64) Services

// UsageReporter supplies the admin report.
type UsageReporter interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

type chat struct {
	session   *planner.Session
	city      string
	announced bool
}

// Bot drives one planner session per Telegram chat.
type Bot struct {
	api      Sender
	cfg      *config.Config
	services ServicesFor
	usage    UsageReporter
	dataDir  string

	mu    sync.Mutex
	chats map[int64]*chat

	// run starts background work; tests replace it to run inline.
	run func(func())
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, services ServicesFor, usage UsageReporter, dataDir string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Authorized on account %s", api.Self.UserName)

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		log.Printf("Webhook set response: %s", resp.Description)
	}

	return newBot(api, cfg, services, usage, dataDir), nil
}

func newBot(api Sender, cfg *config.Config, services ServicesFor, usage UsageReporter, dataDir string) *Bot {
	return &Bot{
		api:      api,
		cfg:      cfg,
		services: services,
		usage:    usage,
		dataDir:  dataDir,
		chats:    make(map[int64]*chat),
		run:      func(f func()) { go f() },
	}
}

// RegisterRoutes mounts the webhook endpoint on the HTTP router.
func (b *Bot) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook", func(c *gin.Context) {
		var update tgbotapi.Update
		if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
			log.Printf("Error parsing update: %v", err)
			c.Status(http.StatusBadRequest)
			return
		}
		b.HandleUpdate(update)
		c.Status(http.StatusOK)
	})
}

// HandleUpdate routes one Telegram update.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	if q := update.CallbackQuery; q != nil {
		if q.Message == nil || q.From == nil {
			return
		}
		b.api.Request(tgbotapi.NewCallback(q.ID, ""))
		userID, ok := b.authorize(q.From)
		if !ok {
			return
		}
		b.handleAction(q.Message.Chat.ID, userID, q.Data, "")
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}
	userID, ok := b.authorize(msg.From)
	if !ok {
		return
	}

	switch msg.Command() {
	case "metrics":
		b.handleMetricsRequest(msg)
	case "generate":
		b.handleAction(msg.Chat.ID, userID, callbackGenerate, strings.TrimSpace(msg.CommandArguments()))
	case "save":
		b.handleAction(msg.Chat.ID, userID, callbackSave, "")
	case "start", "week", "":
		b.handleWeek(msg.Chat.ID, userID)
	default:
		b.sendText(msg.Chat.ID, "Commands: /week, /generate [city], /save")
	}
}

func (b *Bot) authorize(from *tgbotapi.User) (int64, bool) {
	userID, ok := b.cfg.TelegramUsers[from.ID]
	if !ok {
		log.Printf("⚠️ Unauthorized access attempt from UserID: %d (@%s)", from.ID, from.UserName)
	}
	return userID, ok
}

// chatFor returns the chat state, creating its session on first use.
func (b *Bot) chatFor(chatID, userID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.chats[chatID]; ok {
		return c
	}
	svc := b.services(userID)
	c := &chat{}
	c.session = planner.NewSession(svc, svc, svc,
		planner.WithLocation(b.cfg.Location),
		planner.WithNotifier(planner.NotifierFunc(func(n planner.Notification) {
			b.notify(chatID, n)
		})),
		planner.WithObserver(func(v planner.View) {
			b.observe(chatID, c, v)
		}),
	)
	b.chats[chatID] = c
	return c
}

func (b *Bot) handleWeek(chatID, userID int64) {
	c := b.chatFor(chatID, userID)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Load failures still install an empty week.
	_ = c.session.Load(ctx)
	b.sendWeek(chatID, c.session.View())
}

func (b *Bot) handleAction(chatID, userID int64, action, city string) {
	c := b.chatFor(chatID, userID)
	if len(c.session.Window()) == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = c.session.Load(ctx)
		cancel()
	}

	switch action {
	case callbackGenerate:
		b.startGeneration(chatID, c, city)
	case callbackSave:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.session.Save(ctx); errors.Is(err, planner.ErrIncomplete) {
			b.sendText(chatID, "Every day needs a top and a bottom before saving.")
			return
		}
		b.sendWeek(chatID, c.session.View())
	}
}

func (b *Bot) startGeneration(chatID int64, c *chat, city string) {
	b.mu.Lock()
	if city != "" {
		c.city = city
	}
	city = c.city
	c.announced = false
	b.mu.Unlock()

	if c.session.Generating() {
		b.sendText(chatID, "⏳ Already generating, hang on.")
		return
	}

	b.run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		err := c.session.Generate(ctx, city)
		if errors.Is(err, planner.ErrGenerationInProgress) {
			b.sendText(chatID, "⏳ Already generating, hang on.")
			return
		}
		b.sendWeek(chatID, c.session.View())
	})
}

// observe shows the blanked week once per generation.
func (b *Bot) observe(chatID int64, c *chat, view planner.View) {
	if !view.Generating {
		return
	}
	b.mu.Lock()
	first := !c.announced
	c.announced = true
	b.mu.Unlock()
	if first {
		b.sendWeek(chatID, view)
	}
}

func (b *Bot) notify(chatID int64, n planner.Notification) {
	icon := "✅"
	if n.Level == planner.LevelError {
		icon = "❌"
		if n.Err != nil {
			log.Printf("Chat %d: %s %v", chatID, n.Message, n.Err)
		}
	}
	b.sendText(chatID, icon+" "+n.Message)
}

func (b *Bot) sendWeek(chatID int64, view planner.View) {
	msg := tgbotapi.NewMessage(chatID, formatWeekMarkdown(view))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb := weekKeyboard(view); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send week to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message to chat %d: %v", chatID, err)
	}
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.TelegramAdminID || b.usage == nil {
		b.sendText(msg.Chat.ID, "⛔ Access Denied: Admin only.")
		return
	}

	usage, err := b.usage.GetDailyUsage(7)
	if err != nil {
		b.sendText(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, formatMetricsMarkdown(usage, metrics.GetSysHealth(b.dataDir)))
	out.ParseMode = tgbotapi.ModeMarkdown
	b.api.Send(out)
}
