package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"outfit-planner/internal/outfit"
)

var (
	// ErrLoad marks a failed week fetch. The session falls back to an empty week.
	ErrLoad = errors.New("load failed")
	// ErrGeneration marks a failed generate call. The window stays blank.
	ErrGeneration = errors.New("generation failed")
	// ErrSave marks a rejected or unreachable save. The window is unchanged.
	ErrSave = errors.New("save failed")
	// ErrGenerationInProgress is returned when a generate action arrives
	// while another one is still pending.
	ErrGenerationInProgress = errors.New("generation already in progress")
	// ErrIncomplete is returned by Save when some day lacks a garment.
	ErrIncomplete = errors.New("week is not fully planned")
)

const (
	msgLoadFailed     = "Couldn't load outfits."
	msgGenerated      = "Outfits generated."
	msgGenerateFailed = "Couldn't generate outfits."
	msgSaved          = "Outfits saved."
	msgSaveFailed     = "Couldn't save."
)

// HistoryService returns the stored outfits of the authenticated user for
// the current week, in any order.
type HistoryService interface {
	FetchWeek(ctx context.Context) ([]outfit.DayPlan, error)
}

// GenerationService computes a fresh week of outfits.
type GenerationService interface {
	Generate(ctx context.Context, req outfit.GenerateRequest) ([]outfit.DayPlan, error)
}

// PersistenceService stores a completed week. It is all-or-nothing.
type PersistenceService interface {
	SaveWeek(ctx context.Context, entries []outfit.SaveEntry) error
}

// State is the generation state of a session.
type State int

const (
	StateIdle State = iota
	StateGenerating
)

func (s State) String() string {
	if s == StateGenerating {
		return "generating"
	}
	return "idle"
}

// View is a consistent read of everything a front end renders.
type View struct {
	Window     outfit.Week
	Generating bool
	Label      outfit.Label
	PastWeek   bool
	CanSave    bool
	Today      outfit.Date
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now; mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLocation evaluates "today" in loc instead of the process location.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) { s.loc = loc }
}

// WithNotifier sets where user-facing notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithObserver registers a callback invoked after every window replacement
// and every generation state change.
func WithObserver(fn func(View)) Option {
	return func(s *Session) { s.observer = fn }
}

// Session owns one user's planning window and drives the load, generate and
// save flows against the backend services.
type Session struct {
	history     HistoryService
	generator   GenerationService
	persistence PersistenceService
	notifier    Notifier
	observer    func(View)
	now         func() time.Time
	loc         *time.Location

	mu     sync.RWMutex
	window outfit.Week

	generating atomic.Bool
}

// NewSession creates a Session. The window is empty until Load or Generate runs.
func NewSession(
	history HistoryService,
	generator GenerationService,
	persistence PersistenceService,
	opts ...Option,
) *Session {
	s := &Session{
		history:     history,
		generator:   generator,
		persistence: persistence,
		notifier:    LogNotifier{},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the stored week and reconciles it with today's window. On
// failure the window still becomes a full empty week.
func (s *Session) Load(ctx context.Context) error {
	records, err := s.history.FetchWeek(ctx)
	if err != nil {
		s.install(outfit.BuildWeek(s.clock()))
		s.notifier.Notify(Failure(msgLoadFailed, err))
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	s.install(outfit.MergeWeek(outfit.BuildWeek(s.clock()), records))
	return nil
}

// Generate replaces the window with a freshly generated week. The days that
// are currently fully planned go to the generator as the previous plan so it
// can avoid repeating them. The window is blanked while the call is pending.
// A second Generate during that time returns ErrGenerationInProgress.
func (s *Session) Generate(ctx context.Context, city string) (err error) {
	if !s.generating.CompareAndSwap(false, true) {
		return ErrGenerationInProgress
	}
	defer func() {
		s.generating.Store(false)
		s.publish()
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrGeneration, r)
			s.notifier.Notify(Failure(msgGenerateFailed, err))
		}
	}()

	req := outfit.GenerateRequest{City: city}
	if snap := outfit.Snapshot(s.Window()); len(snap.Plan) > 0 {
		req.PreviousPlan = &snap
	}
	s.install(outfit.BuildWeek(s.clock()))

	records, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.notifier.Notify(Failure(msgGenerateFailed, err))
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	s.install(outfit.MergeWeek(outfit.BuildWeek(s.clock()), records))
	s.notifier.Notify(Success(msgGenerated))
	return nil
}

// Save submits the window when every day is planned. An incomplete window is
// never submitted; ErrIncomplete is returned instead.
func (s *Session) Save(ctx context.Context) error {
	entries, ok := outfit.SavePayload(s.Window())
	if !ok {
		return ErrIncomplete
	}
	if err := s.persistence.SaveWeek(ctx, entries); err != nil {
		s.notifier.Notify(Failure(msgSaveFailed, err))
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	s.notifier.Notify(Success(msgSaved))
	return nil
}

// Window returns a copy of the current window.
func (s *Session) Window() outfit.Week {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window.Clone()
}

// Generating reports whether a generate call is pending.
func (s *Session) Generating() bool {
	return s.generating.Load()
}

// State returns the generation state.
func (s *Session) State() State {
	if s.Generating() {
		return StateGenerating
	}
	return StateIdle
}

// Today is the current calendar date in the session's location.
func (s *Session) Today() outfit.Date {
	return outfit.DateOf(s.clock())
}

// Label derives the generate trigger caption from the current window.
func (s *Session) Label() outfit.Label {
	return outfit.ActionLabel(s.Window(), s.Today())
}

// CanSave reports whether Save would submit.
func (s *Session) CanSave() bool {
	return outfit.IsComplete(s.Window())
}

// View returns the window and everything derived from it.
func (s *Session) View() View {
	w := s.Window()
	today := s.Today()
	return View{
		Window:     w,
		Generating: s.Generating(),
		Label:      outfit.ActionLabel(w, today),
		PastWeek:   outfit.IsPastWeek(w, today),
		CanSave:    outfit.IsComplete(w),
		Today:      today,
	}
}

func (s *Session) install(w outfit.Week) {
	s.mu.Lock()
	s.window = w
	s.mu.Unlock()
	s.publish()
}

func (s *Session) publish() {
	if s.observer == nil {
		return
	}
	s.observer(s.View())
}

func (s *Session) clock() time.Time {
	t := s.now()
	if s.loc != nil {
		t = t.In(s.loc)
	}
	return t
}

// LogNotifier writes notifications to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	if n.Err != nil {
		log.Printf("[%s] %s: %v", n.Level, n.Message, n.Err)
		return
	}
	log.Printf("[%s] %s", n.Level, n.Message)
}
