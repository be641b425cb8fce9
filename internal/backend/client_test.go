package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"outfit-planner/internal/outfit"
	"outfit-planner/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ planner.HistoryService     = (*Client)(nil)
	_ planner.GenerationService  = (*Client)(nil)
	_ planner.PersistenceService = (*Client)(nil)
)

func TestClient(t *testing.T) {
	ctx := context.Background()

	var (
		gotAuth   string
		gotGen    outfit.GenerateRequest
		gotSave   []outfit.SaveEntry
		saveCalls int
	)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /outfits/week", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[{"date":"2026-10-18","top":{"id":1,"image_url":"a.png"},"bottom":{"id":2,"image_url":null}}]`)
	})
	mux.HandleFunc("POST /outfits/generate", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotGen))
		fmt.Fprint(w, `[{"date":"2026-10-18","top":{"id":3,"image_url":null},"bottom":null}]`)
	})
	mux.HandleFunc("POST /outfits/", func(w http.ResponseWriter, r *http.Request) {
		saveCalls++
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotSave))
		fmt.Fprint(w, `{"message":"Outfits saved"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL+"/", "tok-123")

	t.Run("FetchWeek", func(t *testing.T) {
		plans, err := client.FetchWeek(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-123", gotAuth)
		require.Len(t, plans, 1)
		assert.Equal(t, outfit.Date("2026-10-18"), plans[0].Date)
		require.NotNil(t, plans[0].Top.ImageURL)
		assert.Equal(t, "a.png", *plans[0].Top.ImageURL)
		assert.Nil(t, plans[0].Bottom.ImageURL)
	})

	t.Run("Generate", func(t *testing.T) {
		plans, err := client.Generate(ctx, outfit.GenerateRequest{City: "Porto"})
		require.NoError(t, err)
		assert.Equal(t, "Porto", gotGen.City)
		assert.Nil(t, gotGen.PreviousPlan)
		require.Len(t, plans, 1)
		assert.Nil(t, plans[0].Bottom)
	})

	t.Run("SaveWeek", func(t *testing.T) {
		entries := []outfit.SaveEntry{{Date: "2026-10-18", TopID: 1, BottomID: 2}}
		require.NoError(t, client.SaveWeek(ctx, entries))
		assert.Equal(t, 1, saveCalls)
		assert.Equal(t, entries, gotSave)
	})
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail":"Invalid clothing data(s)"}`)
	}))
	defer server.Close()

	err := NewClient(server.URL, "tok").SaveWeek(ctx, []outfit.SaveEntry{{Date: "2026-10-18", TopID: 1, BottomID: 2}})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
	assert.Equal(t, "Invalid clothing data(s)", statusErr.Detail)

	t.Run("Transport", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()
		_, err := NewClient(url, "tok").FetchWeek(ctx)
		assert.Error(t, err)
	})
}
