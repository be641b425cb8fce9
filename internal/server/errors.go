package server

import (
	"errors"
	"net/http"

	"outfit-planner/internal/app"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/recommender"
	"outfit-planner/internal/weather"
)

// statusFor maps application errors onto HTTP statuses and client-facing details.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, recommender.ErrEmptyWardrobe):
		return http.StatusNotFound, "No clothing items found in your wardrobe."
	case errors.Is(err, weather.ErrUnavailable):
		return http.StatusBadRequest, "Weather API Error"
	case errors.Is(err, weather.ErrBadForecast):
		return http.StatusInternalServerError, "Failed to parse weather data"
	case errors.Is(err, outfit.ErrInvalidGarments):
		return http.StatusBadRequest, "Invalid clothing data(s)"
	case errors.Is(err, outfit.ErrInvalidDate):
		return http.StatusBadRequest, "Invalid outfit date"
	case errors.Is(err, app.ErrGeneration):
		return http.StatusInternalServerError, "Failed to generate outfits"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
