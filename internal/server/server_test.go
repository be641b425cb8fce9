package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"outfit-planner/internal/app"
	"outfit-planner/internal/auth"
	"outfit-planner/internal/outfit"
	"outfit-planner/internal/recommender"
	"outfit-planner/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOutfits struct {
	userID    int64
	week      []outfit.DayPlan
	generated []outfit.DayPlan
	genReq    outfit.GenerateRequest
	saved     []outfit.SaveEntry
	err       error
}

func (m *mockOutfits) WeekOutfits(ctx context.Context, userID int64) ([]outfit.DayPlan, error) {
	m.userID = userID
	return m.week, m.err
}

func (m *mockOutfits) GenerateOutfits(ctx context.Context, userID int64, req outfit.GenerateRequest) ([]outfit.DayPlan, error) {
	m.userID, m.genReq = userID, req
	return m.generated, m.err
}

func (m *mockOutfits) SaveOutfits(ctx context.Context, userID int64, entries []outfit.SaveEntry) error {
	m.userID, m.saved = userID, entries
	return m.err
}

type mockUsers map[int64]auth.User

func (m mockUsers) Get(ctx context.Context, id int64) (auth.User, error) {
	u, ok := m[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func setup(t *testing.T, m *mockOutfits) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer := auth.NewIssuer("test-secret")
	token, err := issuer.Issue(42, "ana@example.com")
	require.NoError(t, err)
	users := mockUsers{42: {ID: 42, Email: "ana@example.com", Name: "Ana", GoogleRefreshToken: "secret-refresh"}}
	return New(m, issuer, users, Options{CORSOrigins: []string{"http://localhost:3000"}, StaticDir: t.TempDir()}), token
}

func do(s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	s, _ := setup(t, &mockOutfits{})

	rec := do(s, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(s, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)

	rec = do(s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWeek(t *testing.T) {
	img := "shirt.png"
	m := &mockOutfits{week: []outfit.DayPlan{
		{Date: "2026-10-18", Top: &outfit.GarmentRef{ID: 1, ImageURL: &img}, Bottom: &outfit.GarmentRef{ID: 2}},
	}}
	s, token := setup(t, m)

	rec := do(s, http.MethodGet, "/outfits/week", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), m.userID)
	assert.JSONEq(t, `[{"date":"2026-10-18","top":{"id":1,"image_url":"shirt.png"},"bottom":{"id":2,"image_url":null}}]`, rec.Body.String())

	t.Run("Unauthenticated", func(t *testing.T) {
		rec := do(s, http.MethodGet, "/outfits/week", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("EmptyWeekIsArray", func(t *testing.T) {
		s, token := setup(t, &mockOutfits{week: []outfit.DayPlan{}})
		rec := do(s, http.MethodGet, "/outfits/week", token, "")
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestMe(t *testing.T) {
	s, token := setup(t, &mockOutfits{})

	rec := do(s, http.MethodGet, "/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42,"email":"ana@example.com","name":"Ana","picture":""}`, rec.Body.String())

	t.Run("DeletedUser", func(t *testing.T) {
		stale, err := auth.NewIssuer("test-secret").Issue(99, "gone@example.com")
		require.NoError(t, err)

		for _, path := range []string{"/auth/me", "/outfits/week"} {
			rec := do(s, http.MethodGet, path, stale, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
			assert.JSONEq(t, `{"detail":"User not found"}`, rec.Body.String(), path)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("ForwardsRequest", func(t *testing.T) {
		m := &mockOutfits{generated: []outfit.DayPlan{{Date: "2026-10-18"}}}
		s, token := setup(t, m)

		body := `{"city":"Lisbon","previous_plan":{"plan":[{"date":"2026-10-18","top":{"id":1,"image_url":null},"bottom":{"id":2,"image_url":null}}]}}`
		rec := do(s, http.MethodPost, "/outfits/generate", token, body)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Lisbon", m.genReq.City)
		require.NotNil(t, m.genReq.PreviousPlan)
		assert.Len(t, m.genReq.PreviousPlan.Plan, 1)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		s, token := setup(t, &mockOutfits{})
		rec := do(s, http.MethodPost, "/outfits/generate", token, `{"city":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"EmptyWardrobe", recommender.ErrEmptyWardrobe, http.StatusNotFound},
		{"WeatherUnavailable", fmt.Errorf("%w: status=400", weather.ErrUnavailable), http.StatusBadRequest},
		{"BadForecast", weather.ErrBadForecast, http.StatusInternalServerError},
		{"StylistFailure", fmt.Errorf("%w: boom", app.ErrGeneration), http.StatusInternalServerError},
		{"Unknown", errors.New("db gone"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, token := setup(t, &mockOutfits{err: tt.err})
			rec := do(s, http.MethodPost, "/outfits/generate", token, `{"city":"X"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail"`)
		})
	}
}

func TestSave(t *testing.T) {
	t.Run("Saves", func(t *testing.T) {
		m := &mockOutfits{}
		s, token := setup(t, m)
		rec := do(s, http.MethodPost, "/outfits/", token, `[{"date":"2026-10-18","top_id":1,"bottom_id":2}]`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Outfits saved"}`, rec.Body.String())
		assert.Equal(t, []outfit.SaveEntry{{Date: "2026-10-18", TopID: 1, BottomID: 2}}, m.saved)
	})

	t.Run("InvalidGarments", func(t *testing.T) {
		s, token := setup(t, &mockOutfits{err: outfit.ErrInvalidGarments})
		rec := do(s, http.MethodPost, "/outfits/", token, `[{"date":"2026-10-18","top_id":1,"bottom_id":99}]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"detail":"Invalid clothing data(s)"}`, rec.Body.String())
	})

	t.Run("NotAList", func(t *testing.T) {
		s, token := setup(t, &mockOutfits{})
		rec := do(s, http.MethodPost, "/outfits/", token, `{"date":"2026-10-18"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	s, _ := setup(t, &mockOutfits{})
	req := httptest.NewRequest(http.MethodOptions, "/outfits/week", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
