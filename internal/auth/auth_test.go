package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"outfit-planner/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer(t *testing.T) {
	issuer := NewIssuer("secret")

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := issuer.Issue(42, "ana@example.com")
		require.NoError(t, err)

		claims, err := issuer.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, int64(42), claims.UserID)
		assert.Equal(t, "ana@example.com", claims.Email)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewIssuer("other").Issue(42, "ana@example.com")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		old := NewIssuer("secret")
		old.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
		token, err := old.Issue(42, "ana@example.com")
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingUserID", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

type stubUsers struct {
	users map[int64]User
	err   error
}

func (s stubUsers) Get(ctx context.Context, id int64) (User, error) {
	if s.err != nil {
		return User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewIssuer("secret")
	users := stubUsers{users: map[int64]User{7: {ID: 7, Email: "bo@example.com"}}}

	router := gin.New()
	router.GET("/me", RequireUser(issuer, users), func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})

	valid, err := issuer.Issue(7, "bo@example.com")
	require.NoError(t, err)
	deleted, err := issuer.Issue(8, "gone@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
		detail string
	}{
		{"Valid", "Bearer " + valid, http.StatusOK, ""},
		{"Missing", "", http.StatusUnauthorized, "Not authenticated"},
		{"WrongScheme", "Basic " + valid, http.StatusUnauthorized, "Not authenticated"},
		{"Garbage", "Bearer not-a-token", http.StatusUnauthorized, "could not validate credentials"},
		{"UnknownUser", "Bearer " + deleted, http.StatusUnauthorized, "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7}`, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"detail":"`+tt.detail+`"}`, rec.Body.String())
			}
		})
	}

	t.Run("LookupFailure", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireUser(issuer, stubUsers{err: errors.New("db locked")}), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+valid)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUserRepository(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db.SQL)
	ctx := context.Background()

	created, err := repo.Upsert(ctx, User{Email: "ana@example.com", Name: "Ana", GoogleRefreshToken: "refresh-1"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	t.Run("UpdateKeepsRefreshToken", func(t *testing.T) {
		updated, err := repo.Upsert(ctx, User{Email: "ana@example.com", Name: "Ana Maria"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Ana Maria", updated.Name)
		assert.Equal(t, "refresh-1", updated.GoogleRefreshToken)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
