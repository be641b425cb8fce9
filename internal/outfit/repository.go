package outfit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"outfit-planner/internal/wardrobe"
)

var (
	// ErrInvalidGarments is returned when a save names a garment the user does not own.
	ErrInvalidGarments = errors.New("invalid clothing data")
	// ErrInvalidDate is returned when a save entry carries a malformed date.
	ErrInvalidDate = errors.New("invalid outfit date")
)

// Repository persists saved outfits, one per user and date.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

const outfitColumns = `
	o.date,
	t.id, t.image_url, t.item_type, t.color, t.is_available,
	b.id, b.image_url, b.item_type, b.color, b.is_available`

const outfitJoin = `
	FROM outfits o
	JOIN clothing_items t ON t.id = o.top_id
	JOIN clothing_items b ON b.id = o.bottom_id`

// WeekForUser returns the user's saved outfits dated from..to inclusive, in date order.
func (r *Repository) WeekForUser(ctx context.Context, userID int64, from, to Date) ([]DayPlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+outfitColumns+outfitJoin+`
		WHERE o.user_id = ? AND o.date >= ? AND o.date <= ?
		ORDER BY o.date`, userID, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query outfits for user %d: %w", userID, err)
	}
	defer rows.Close()

	plans := []DayPlan{}
	for rows.Next() {
		plan, err := scanDayPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// SaveWeek validates and upserts every entry in a single transaction and
// returns the stored days with their garments. Nothing is written when any
// entry is rejected.
func (r *Repository) SaveWeek(ctx context.Context, userID int64, entries []SaveEntry) ([]DayPlan, error) {
	if len(entries) == 0 {
		return []DayPlan{}, nil
	}

	ids := make([]int64, 0, len(entries)*2)
	for _, e := range entries {
		if _, err := ParseDate(string(e.Date)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
		}
		ids = append(ids, e.TopID, e.BottomID)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	owned, err := wardrobe.AllOwned(ctx, tx, userID, ids)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrInvalidGarments
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outfits (date, user_id, top_id, bottom_id)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(date, user_id) DO UPDATE SET
				top_id = excluded.top_id,
				bottom_id = excluded.bottom_id`,
			string(e.Date), userID, e.TopID, e.BottomID)
		if err != nil {
			return nil, fmt.Errorf("failed to save outfit for %s: %w", e.Date, err)
		}
	}

	saved := make([]DayPlan, 0, len(entries))
	for _, e := range entries {
		row := tx.QueryRowContext(ctx, `SELECT `+outfitColumns+outfitJoin+`
			WHERE o.user_id = ? AND o.date = ?`, userID, string(e.Date))
		plan, err := scanDayPlan(row)
		if err != nil {
			return nil, err
		}
		saved = append(saved, plan)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outfits: %w", err)
	}
	return saved, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDayPlan(s scanner) (DayPlan, error) {
	var (
		date           string
		top, bottom    GarmentRef
		topImg, botImg sql.NullString
	)
	err := s.Scan(
		&date,
		&top.ID, &topImg, &top.ItemType, &top.Color, &top.IsAvailable,
		&bottom.ID, &botImg, &bottom.ItemType, &bottom.Color, &bottom.IsAvailable,
	)
	if err != nil {
		return DayPlan{}, fmt.Errorf("failed to scan outfit: %w", err)
	}
	if topImg.Valid {
		top.ImageURL = &topImg.String
	}
	if botImg.Valid {
		bottom.ImageURL = &botImg.String
	}
	return DayPlan{Date: Date(date), Top: &top, Bottom: &bottom}, nil
}
