package wardrobe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Garment is a clothing item owned by one user.
type Garment struct {
	ID          int64
	UserID      int64
	ImageURL    *string
	ItemType    string
	Color       string
	IsAvailable bool
}

// Repository reads the clothing catalog.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// ListByUser returns every garment the user owns, ordered by id.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Garment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, image_url, item_type, color, is_available
		FROM clothing_items
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wardrobe for user %d: %w", userID, err)
	}
	defer rows.Close()

	var garments []Garment
	for rows.Next() {
		var (
			g     Garment
			image sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.UserID, &image, &g.ItemType, &g.Color, &g.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan garment: %w", err)
		}
		if image.Valid {
			g.ImageURL = &image.String
		}
		garments = append(garments, g)
	}
	return garments, rows.Err()
}

// AllOwned reports whether every id in ids is a garment of userID. It runs
// inside tx so the check and the writes that depend on it see the same rows.
func AllOwned(ctx context.Context, tx *sql.Tx, userID int64, ids []int64) (bool, error) {
	distinct := make(map[int64]struct{}, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		if _, seen := distinct[id]; seen {
			continue
		}
		distinct[id] = struct{}{}
		args = append(args, id)
	}
	if len(distinct) == 0 {
		return true, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(distinct)), ",")

	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clothing_items WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check garment ownership: %w", err)
	}
	return n == len(distinct), nil
}

// Add inserts a garment and returns it with its new id.
func (r *Repository) Add(ctx context.Context, g Garment) (Garment, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO clothing_items (user_id, image_url, item_type, color, is_available)
		VALUES (?, ?, ?, ?, ?)`,
		g.UserID, g.ImageURL, g.ItemType, g.Color, g.IsAvailable)
	if err != nil {
		return Garment{}, fmt.Errorf("failed to add garment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Garment{}, fmt.Errorf("failed to read garment id: %w", err)
	}
	g.ID = id
	return g, nil
}
