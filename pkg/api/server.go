// Package api exposes the signal engine over HTTP.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phenomenon0/latesignal/pkg/football/feed"
	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/odds"
	"github.com/phenomenon0/latesignal/pkg/football/signal"
	"github.com/phenomenon0/latesignal/pkg/football/standings"
	"github.com/phenomenon0/latesignal/pkg/metrics"
	"github.com/phenomenon0/latesignal/pkg/streaming"
	"github.com/phenomenon0/latesignal/pkg/tracker"
)

// Budget keys for the daily call counter.
const (
	budgetSignals = "signals"
	budgetOdds    = "odds"
)

// maxMinute bounds accepted match minutes, extra time included.
const maxMinute = 130

// Deps are the collaborators the server is built from. Engine, Standings
// and Hub are optional.
type Deps struct {
	Engine    *signal.Engine
	Standings *standings.Table
	Store     *tracker.Store
	Calls     *tracker.Counter
	Metrics   *metrics.SignalMetrics
	Hub       *streaming.Hub
	Logger    *slog.Logger
}

// Options tune the HTTP surface.
type Options struct {
	AllowedOrigins []string
	RateLimit      float64 // per client IP; 0 disables
	RateBurst      int
	MaxBodyBytes   int64
	Version        string
}

// Server serves the signal API.
type Server struct {
	eval      *feed.Evaluator
	store     *tracker.Store
	calls     *tracker.Counter
	metrics   *metrics.SignalMetrics
	hub       *streaming.Hub
	standings *standings.Table
	log       *slog.Logger
	limiter   *ipLimiter
	opts      Options
	started   time.Time
}

// New wires a server. Store, Calls and Metrics are created when missing.
func New(deps Deps, opts Options) *Server {
	if deps.Store == nil {
		deps.Store = tracker.NewStore()
	}
	if deps.Calls == nil {
		deps.Calls = tracker.NewCounter(0)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	eval := &feed.Evaluator{Engine: deps.Engine, Markets: deps.Store}
	if deps.Standings != nil {
		eval.Strengths = deps.Standings
	}

	s := &Server{
		eval:      eval,
		store:     deps.Store,
		calls:     deps.Calls,
		metrics:   deps.Metrics,
		hub:       deps.Hub,
		standings: deps.Standings,
		log:       deps.Logger,
		opts:      opts,
		started:   time.Now(),
	}
	if opts.RateLimit > 0 {
		s.limiter = newIPLimiter(opts.RateLimit, max(opts.RateBurst, 1))
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.observe())
	r.Use(cors.New(corsConfig(s.opts.AllowedOrigins)))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	if s.hub != nil {
		r.GET("/ws", gin.WrapF(s.hub.ServeWS))
	}

	v1 := r.Group("/v1", s.rateLimit())
	v1.POST("/signals", s.budget(budgetSignals), s.handleComputeSignal)
	v1.POST("/odds/resolve", s.budget(budgetOdds), s.handleResolveOdds)
	v1.GET("/fixtures/:id/signal", s.handleLastSignal)

	return r
}

// SweepLimiters drops idle rate-limit buckets.
func (s *Server) SweepLimiters() int {
	if s.limiter == nil {
		return 0
	}
	return s.limiter.sweep()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// observe logs and measures every request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := routeOf(c)
		s.metrics.RecordHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed.Seconds())

		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.log.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

// budget spends one daily call for key.
func (s *Server) budget(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.calls.Take(key); err != nil {
			if errors.Is(err, tracker.ErrBudgetExhausted) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func routeOf(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

// signalRequest is the body of POST /v1/signals.
type signalRequest struct {
	Match    *match.Snapshot `json:"match"`
	Market   *match.Market   `json:"market"`
	Strength *match.Strength `json:"strength"`
	Odds     *odds.Payload   `json:"odds"`
	HomeTeam string          `json:"home_team"`
	AwayTeam string          `json:"away_team"`
}

func (r signalRequest) validate() error {
	m := r.Match
	if m == nil {
		return errors.New("match is required")
	}
	if m.FixtureID <= 0 {
		return errors.New("match.fixture_id must be positive")
	}
	if m.Minute < 0 || m.Minute > maxMinute {
		return fmt.Errorf("match.minute %d outside 0-%d", m.Minute, maxMinute)
	}
	counts := []int{
		m.Score.Home, m.Score.Away,
		m.Shots.Home, m.Shots.Away,
		m.ShotsOnTarget.Home, m.ShotsOnTarget.Away,
		m.Corners.Home, m.Corners.Away,
		m.DangerousAttacks.Home, m.DangerousAttacks.Away,
	}
	for _, n := range counts {
		if n < 0 {
			return errors.New("match counts must not be negative")
		}
	}
	if m.XG.Home < 0 || m.XG.Away < 0 {
		return errors.New("match.xg must not be negative")
	}
	if m.Possession.Home < 0 || m.Possession.Home > 100 || m.Possession.Away < 0 || m.Possession.Away > 100 {
		return errors.New("match.possession must be within 0-100")
	}
	return nil
}

// signalResponse is a recorded signal plus the inputs resolved for it.
type signalResponse struct {
	ID       string          `json:"id"`
	Signal   signal.Signal   `json:"signal"`
	Odds     *odds.Summary   `json:"odds,omitempty"`
	Market   *match.Market   `json:"market,omitempty"`
	Strength *match.Strength `json:"strength,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (s *Server) handleComputeSignal(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)

	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	res := s.eval.Compute(c.Request.Context(), feed.Input{
		Snapshot: *req.Match,
		Market:   req.Market,
		Odds:     req.Odds,
		Strength: req.Strength,
		HomeTeam: req.HomeTeam,
		AwayTeam: req.AwayTeam,
	})
	elapsed := time.Since(start)

	fixtureID := req.Match.FixtureID
	for _, w := range res.Warnings {
		source, _, _ := strings.Cut(w, ":")
		s.metrics.RecordCollaboratorError(source)
		s.log.Warn("collaborator degraded", "fixture_id", fixtureID, "warning", w)
	}
	if res.Odds != nil {
		s.metrics.RecordOdds(res.Odds.OverUnder)
		if s.hub != nil {
			s.hub.BroadcastOdds(fixtureID, res.Odds)
		}
	}

	rec := s.store.RecordSignal(res.Signal)
	s.metrics.RecordSignal(res.Signal, elapsed.Seconds())
	s.metrics.UpdateTrackedFixtures(s.store.FixtureCount())
	if s.hub != nil {
		s.hub.BroadcastSignal(fixtureID, rec)
	}

	s.log.Info("signal computed",
		"fixture_id", fixtureID,
		"minute", res.Signal.Minute,
		"action", res.Signal.Action,
		"scenario", res.Signal.Scenario,
		"score", res.Signal.Score,
		"confidence", res.Signal.Confidence,
	)

	c.JSON(http.StatusOK, signalResponse{
		ID:       rec.ID,
		Signal:   res.Signal,
		Odds:     res.Odds,
		Market:   res.Market,
		Strength: res.Strength,
		Warnings: res.Warnings,
	})
}

func (s *Server) handleResolveOdds(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)

	var payload odds.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid body: %v", err)})
		return
	}

	summary := odds.Aggregate(payload)
	s.metrics.RecordOdds(summary.OverUnder)
	if s.hub != nil && payload.FixtureID > 0 {
		s.hub.BroadcastOdds(payload.FixtureID, summary)
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleLastSignal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fixture id"})
		return
	}
	rec, ok := s.store.LastSignal(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no signal for fixture %d", id)})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status":    "ok",
		"version":   s.opts.Version,
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"fixtures":  s.store.FixtureCount(),
		"calls":     s.calls.Status(),
		"standings": 0,
	}
	if s.standings != nil {
		resp["standings"] = s.standings.TeamCount()
	}
	if s.hub != nil {
		resp["stream_clients"] = s.hub.ClientCount()
	}
	c.JSON(http.StatusOK, resp)
}
