// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/report"
	"github.com/okian/pitchlab/internal/domain/session"
	"github.com/okian/pitchlab/internal/domain/types"
	"github.com/okian/pitchlab/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SessionDependencies
	RatingDependencies
	PlayerDependencies
	LeaderboardDependencies
	RankDependencies
}

// SessionDependencies covers the session lifecycle.
type SessionDependencies interface {
	StartSession(ctx context.Context, drill string, playerIDs []string, cfg service.SessionConfig) (session.Snapshot, error)
	Sessions(ctx context.Context) []service.SessionSummary
	Snapshot(ctx context.Context, id string) (session.Snapshot, error)
	Tick(ctx context.Context, id string, now time.Time) (session.Snapshot, error)
	Advance(ctx context.Context, id string, dt float64) (session.Snapshot, error)
	Pause(ctx context.Context, id string) (session.Snapshot, error)
	Resume(ctx context.Context, id string) (session.Snapshot, error)
	StopSession(ctx context.Context, id string) (*report.SessionReport, error)
	Report(ctx context.Context, id string) (*report.SessionReport, error)
}

// RatingDependencies covers rating previews and commits.
type RatingDependencies interface {
	ApplyRatingUpdate(ctx context.Context, id string) ([]model.Player, error)
	CommitRatings(ctx context.Context, id string) (service.CommitResult, error)
	CommitStatus(ctx context.Context, id string) (service.CommitResult, error)
}

// PlayerDependencies covers roster reads and writes.
type PlayerDependencies interface {
	UpsertPlayers(ctx context.Context, players []model.Player) error
	Player(ctx context.Context, id string) (model.Player, error)
	Players(ctx context.Context) []model.Player
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	sessionsHandler    *SessionsHandler
	playersHandler     *PlayersHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	stream             http.Handler
	logger             logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithStream mounts the snapshot stream handler at GET /sessions/{id}/stream.
func WithStream(h http.Handler) Option {
	return func(s *Server) {
		s.stream = h
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		sessionsHandler:    NewSessionsHandler(deps),
		playersHandler:     NewPlayersHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		logger:             logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(RecoverMiddleware(h, s.logger), endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	handle("GET /stats", "stats", s.statsHandler.HandleStats)

	sh := s.sessionsHandler
	handle("POST /sessions", "sessions", sh.HandleStart)
	handle("GET /sessions", "sessions", sh.HandleList)
	handle("GET /sessions/{id}", "session", sh.HandleGet)
	handle("POST /sessions/{id}/tick", "tick", sh.HandleTick)
	handle("POST /sessions/{id}/pause", "pause", sh.HandlePause)
	handle("POST /sessions/{id}/resume", "resume", sh.HandleResume)
	handle("POST /sessions/{id}/stop", "stop", sh.HandleStop)
	handle("GET /sessions/{id}/report.json", "report", sh.HandleReportJSON)
	handle("GET /sessions/{id}/report.csv", "report", sh.HandleReportCSV)
	handle("GET /sessions/{id}/ratings", "ratings", sh.HandleRatingsPreview)
	handle("POST /sessions/{id}/commit", "commit", sh.HandleCommit)
	handle("GET /sessions/{id}/commit", "commit", sh.HandleCommitStatus)

	ph := s.playersHandler
	handle("GET /players", "players", ph.HandleList)
	handle("POST /players", "players", ph.HandleUpsert)
	handle("GET /players/{id}", "player", ph.HandleGet)
	handle("GET /players/{id}/rank", "rank", s.rankHandler.HandleGetRank)

	handle("GET /leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)

	if s.stream != nil {
		mux.Handle("GET /sessions/{id}/stream", s.stream)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail writes err with the status and code it classifies to.
func fail(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
