package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"outfit-planner/internal/auth"
	"outfit-planner/internal/metrics"
	"outfit-planner/internal/outfit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

// Outfits is the application surface served over HTTP.
type Outfits interface {
	WeekOutfits(ctx context.Context, userID int64) ([]outfit.DayPlan, error)
	GenerateOutfits(ctx context.Context, userID int64, req outfit.GenerateRequest) ([]outfit.DayPlan, error)
	SaveOutfits(ctx context.Context, userID int64, entries []outfit.SaveEntry) error
}

// Options configure the router.
type Options struct {
	CORSOrigins []string
	StaticDir   string
	DataDir     string
	// Extra registers additional routes, e.g. the Telegram webhook.
	Extra func(r *gin.Engine)
}

// Server is the HTTP front of the outfit planner.
type Server struct {
	engine    *gin.Engine
	outfits   Outfits
	issuer    *auth.Issuer
	dataDir   string
	staticDir string
}

// New builds the gin engine with every route registered. users resolves the
// account behind each bearer token.
func New(outfits Outfits, issuer *auth.Issuer, users auth.UserLookup, opts Options) *Server {
	s := &Server{
		engine:    gin.New(),
		outfits:   outfits,
		issuer:    issuer,
		dataDir:   opts.DataDir,
		staticDir: opts.StaticDir,
	}

	s.engine.Use(requestID(), gin.Logger(), gin.Recovery(), observe())
	if len(opts.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Server is running"})
	})
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.StaticDir != "" {
		s.engine.Static("/static", opts.StaticDir)
	}

	requireUser := auth.RequireUser(issuer, users)
	s.engine.GET("/auth/me", requireUser, s.me)

	group := s.engine.Group("/outfits", requireUser)
	group.GET("/week", s.week)
	group.POST("/generate", s.generate)
	group.POST("/", s.save)

	if opts.Extra != nil {
		opts.Extra(s.engine)
	}
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"system": metrics.GetSysHealth(s.dataDir, s.staticDir),
	})
}

func (s *Server) me(c *gin.Context) {
	u, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":      u.ID,
		"email":   u.Email,
		"name":    u.Name,
		"picture": u.Picture,
	})
}

func (s *Server) week(c *gin.Context) {
	userID, _ := auth.UserID(c)
	plans, err := s.outfits.WeekOutfits(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) generate(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var req outfit.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
			return
		}
	}

	plans, err := s.outfits.GenerateOutfits(c.Request.Context(), userID, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) save(c *gin.Context) {
	userID, _ := auth.UserID(c)

	var entries []outfit.SaveEntry
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
		return
	}

	if err := s.outfits.SaveOutfits(c.Request.Context(), userID, entries); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Outfits saved"})
}

func abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s failed: %v", c.GetString(requestIDHeader), c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Println("Shutting down server...")
	return srv.Shutdown(shutdownCtx)
}
