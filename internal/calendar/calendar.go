package calendar

import (
	"context"
	"fmt"
	"log"
	"strings"

	"outfit-planner/internal/outfit"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	calendarID    = "primary"
	summaryPrefix = "Outfit:"
)

// Events is the slice of the Google Calendar API the syncer needs.
type Events interface {
	ListDay(ctx context.Context, day outfit.Date) ([]*gcal.Event, error)
	Delete(ctx context.Context, eventID string) error
	Insert(ctx context.Context, event *gcal.Event) error
}

// EventsFactory opens an Events client for a user's refresh token.
type EventsFactory func(ctx context.Context, refreshToken string) (Events, error)

// Syncer mirrors saved outfits into the user's Google Calendar as all-day events.
type Syncer struct {
	open EventsFactory
}

// NewSyncer creates a Syncer backed by the Google Calendar API.
func NewSyncer(clientID, clientSecret string) *Syncer {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	return NewSyncerWithFactory(func(ctx context.Context, refreshToken string) (Events, error) {
		ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
		if err != nil {
			return nil, fmt.Errorf("failed to create calendar service: %w", err)
		}
		return &googleEvents{svc: svc}, nil
	})
}

// NewSyncerWithFactory creates a Syncer with a custom Events source.
func NewSyncerWithFactory(open EventsFactory) *Syncer {
	return &Syncer{open: open}
}

// Summary renders the event title for a day, e.g. "Outfit: white shirt + blue jeans".
func Summary(day outfit.DayPlan) string {
	return fmt.Sprintf("%s %s + %s", summaryPrefix, day.Top.Describe(), day.Bottom.Describe())
}

// Sync replaces the outfit event of every day in days. Errors stop the sync
// and are returned; callers treat them as non-fatal.
func (s *Syncer) Sync(ctx context.Context, refreshToken string, days []outfit.DayPlan) error {
	if refreshToken == "" || len(days) == 0 {
		return nil
	}

	events, err := s.open(ctx, refreshToken)
	if err != nil {
		return err
	}

	for _, day := range days {
		existing, err := events.ListDay(ctx, day.Date)
		if err != nil {
			return fmt.Errorf("failed to list events for %s: %w", day.Date, err)
		}
		for _, ev := range existing {
			if ev.Start == nil || ev.Start.Date != string(day.Date) || !strings.HasPrefix(ev.Summary, summaryPrefix) {
				continue
			}
			if err := events.Delete(ctx, ev.Id); err != nil {
				return fmt.Errorf("failed to delete event %s: %w", ev.Id, err)
			}
		}

		err = events.Insert(ctx, &gcal.Event{
			Summary:     Summary(day),
			Description: "Outfit recommendation for the day",
			Start:       &gcal.EventDateTime{Date: string(day.Date)},
			End:         &gcal.EventDateTime{Date: string(day.Date.AddDays(1))},
		})
		if err != nil {
			return fmt.Errorf("failed to insert event for %s: %w", day.Date, err)
		}
	}

	log.Printf("Calendar sync: %d day(s) written", len(days))
	return nil
}

type googleEvents struct {
	svc *gcal.Service
}

func (g *googleEvents) ListDay(ctx context.Context, day outfit.Date) ([]*gcal.Event, error) {
	res, err := g.svc.Events.List(calendarID).
		TimeMin(string(day) + "T00:00:00Z").
		TimeMax(string(day) + "T23:59:59Z").
		SingleEvents(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (g *googleEvents) Delete(ctx context.Context, eventID string) error {
	return g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
}

func (g *googleEvents) Insert(ctx context.Context, event *gcal.Event) error {
	_, err := g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	return err
}
