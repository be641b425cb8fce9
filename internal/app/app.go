package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"outfit-planner/internal/auth"
	"outfit-planner/internal/llm"
	"outfit-planner/internal/metrics"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/recommender"
	"outfit-planner/internal/wardrobe"
)

// ErrGeneration wraps any failure of the stylist itself.
var ErrGeneration = errors.New("failed to generate outfits")

// WardrobeReader lists a user's garments.
type WardrobeReader interface {
	ListByUser(ctx context.Context, userID int64) ([]wardrobe.Garment, error)
}

// OutfitStore reads and writes saved outfits.
type OutfitStore interface {
	WeekForUser(ctx context.Context, userID int64, from, to outfit.Date) ([]outfit.DayPlan, error)
	SaveWeek(ctx context.Context, userID int64, entries []outfit.SaveEntry) ([]outfit.DayPlan, error)
}

// UserReader looks up accounts.
type UserReader interface {
	Get(ctx context.Context, id int64) (auth.User, error)
}

// Stylist produces a weekly plan from a wardrobe.
type Stylist interface {
	Recommend(ctx context.Context, req recommender.Request) (recommender.Result, error)
}

// Forecaster returns the average temperature for the coming week.
type Forecaster interface {
	AverageTemperature(ctx context.Context, city string) (float64, error)
}

// CalendarSyncer mirrors saved outfits into an external calendar.
type CalendarSyncer interface {
	Sync(ctx context.Context, refreshToken string, days []outfit.DayPlan) error
}

// MetricsRecorder persists LLM execution metadata.
type MetricsRecorder interface {
	RecordMeta(meta llm.AgentMeta) error
}

// Deps are the collaborators of App. Weather, Calendar and Metrics are optional.
type Deps struct {
	Wardrobe WardrobeReader
	Outfits  OutfitStore
	Users    UserReader
	Stylist  Stylist
	Weather  Forecaster
	Calendar CalendarSyncer
	Metrics  MetricsRecorder
	Location *time.Location
	Now      func() time.Time
}

// App holds the application's dependencies.
type App struct {
	wardrobe WardrobeReader
	outfits  OutfitStore
	users    UserReader
	stylist  Stylist
	weather  Forecaster
	calendar CalendarSyncer
	metrics  MetricsRecorder
	loc      *time.Location
	now      func() time.Time
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	a := &App{
		wardrobe: d.Wardrobe,
		outfits:  d.Outfits,
		users:    d.Users,
		stylist:  d.Stylist,
		weather:  d.Weather,
		calendar: d.Calendar,
		metrics:  d.Metrics,
		loc:      d.Location,
		now:      d.Now,
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Today returns the current calendar date in the planner's time zone.
func (a *App) Today() outfit.Date {
	return outfit.DateOf(a.now().In(a.loc))
}

// WeekOutfits returns the user's saved outfits from today through today+6.
func (a *App) WeekOutfits(ctx context.Context, userID int64) ([]outfit.DayPlan, error) {
	today := a.Today()
	plans, err := a.outfits.WeekForUser(ctx, userID, today, today.AddDays(outfit.WeekLength-1))
	if err != nil {
		return nil, fmt.Errorf("failed to load week outfits: %w", err)
	}
	return plans, nil
}

// GenerateOutfits asks the stylist for a fresh week. Nothing is persisted.
func (a *App) GenerateOutfits(ctx context.Context, userID int64, req outfit.GenerateRequest) (plan []outfit.DayPlan, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOperation("generate", err)
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}()

	items, err := a.wardrobe.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wardrobe: %w", err)
	}
	if len(items) == 0 {
		return nil, recommender.ErrEmptyWardrobe
	}

	rreq := recommender.Request{
		Wardrobe:     items,
		PreviousPlan: req.PreviousPlan,
		Today:        a.Today(),
	}
	if req.City != "" && a.weather != nil {
		avg, err := a.weather.AverageTemperature(ctx, req.City)
		if err != nil {
			return nil, err
		}
		rreq.AverageTemperature = &avg
	}

	res, err := a.stylist.Recommend(ctx, rreq)
	a.recordMeta(res.Meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return res.Plan, nil
}

// SaveOutfits persists the entries and then mirrors them into the user's
// calendar when possible. Calendar failures are logged only.
func (a *App) SaveOutfits(ctx context.Context, userID int64, entries []outfit.SaveEntry) (err error) {
	defer func() { metrics.ObserveOperation("save", err) }()

	saved, err := a.outfits.SaveWeek(ctx, userID, entries)
	if err != nil {
		return err
	}
	a.syncCalendar(ctx, userID, saved)
	return nil
}

func (a *App) syncCalendar(ctx context.Context, userID int64, saved []outfit.DayPlan) {
	if a.calendar == nil || a.users == nil || len(saved) == 0 {
		return
	}
	user, err := a.users.Get(ctx, userID)
	if err != nil {
		log.Printf("Calendar sync skipped for user %d: %v", userID, err)
		return
	}
	if user.GoogleRefreshToken == "" {
		return
	}
	if err := a.calendar.Sync(ctx, user.GoogleRefreshToken, saved); err != nil {
		log.Printf("Calendar Sync Error for user %d: %v", userID, err)
	}
}

func (a *App) recordMeta(meta llm.AgentMeta) {
	if a.metrics == nil || meta.AgentName == "" {
		return
	}
	if err := a.metrics.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.AgentName, err)
	}
}

// UserServices binds App to one user so it can back a planner session
// in-process.
type UserServices struct {
	app    *App
	userID int64
}

// ForUser returns the planner collaborators for userID.
func (a *App) ForUser(userID int64) *UserServices {
	return &UserServices{app: a, userID: userID}
}

// FetchWeek implements planner.HistoryService.
func (u *UserServices) FetchWeek(ctx context.Context) ([]outfit.DayPlan, error) {
	return u.app.WeekOutfits(ctx, u.userID)
}

// Generate implements planner.GenerationService.
func (u *UserServices) Generate(ctx context.Context, req outfit.GenerateRequest) ([]outfit.DayPlan, error) {
	return u.app.GenerateOutfits(ctx, u.userID, req)
}

// SaveWeek implements planner.PersistenceService.
func (u *UserServices) SaveWeek(ctx context.Context, entries []outfit.SaveEntry) error {
	return u.app.SaveOutfits(ctx, u.userID, entries)
}
