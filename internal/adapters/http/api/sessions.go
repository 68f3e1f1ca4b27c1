package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/report"
)

// SessionsHandler serves the session lifecycle, reports and rating commits.
type SessionsHandler struct {
	sessions SessionDependencies
	ratings  RatingDependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps interface {
	SessionDependencies
	RatingDependencies
}) *SessionsHandler {
	return &SessionsHandler{sessions: deps, ratings: deps}
}

// startRequest mirrors the OpenAPI schema for POST /sessions.
type startRequest struct {
	Drill     string   `json:"drill"`
	PlayerIDs []string `json:"player_ids"`
	Seed      int64    `json:"seed"`
	Fatigue   bool     `json:"fatigue"`
	AutoRun   bool     `json:"auto_run"`
}

// validate only rejects blank ids. A missing drill or an empty participant
// list is left to the drill so the answer carries its reason code.
func (s startRequest) validate() error {
	for _, id := range s.PlayerIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("blank player id")
		}
	}
	return nil
}

// tickRequest is the optional body of POST /sessions/{id}/tick. Without a
// body the session advances by wall-clock time.
type tickRequest struct {
	DT *float64 `json:"dt"`
}

type ratingsResponse struct {
	SessionID string         `json:"session_id"`
	Players   []model.Player `json:"players"`
}

// HandleStart handles POST /sessions.
func (h *SessionsHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	const op = "api.start_session"
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := h.sessions.StartSession(r.Context(), req.Drill, req.PlayerIDs, service.SessionConfig{
		Seed:    req.Seed,
		Fatigue: req.Fatigue,
		AutoRun: req.AutoRun,
	})
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/sessions/"+snap.SessionID)
	writeJSON(w, http.StatusCreated, snap)
}

// HandleList handles GET /sessions.
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Sessions(r.Context()))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.get_session", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleTick handles POST /sessions/{id}/tick.
func (h *SessionsHandler) HandleTick(w http.ResponseWriter, r *http.Request) {
	const op = "api.tick"
	id := r.PathValue("id")

	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	if req.DT == nil {
		snap, err := h.sessions.Tick(r.Context(), id, time.Now())
		if err != nil {
			fail(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	dt := *req.DT
	if dt < 0 || math.IsInf(dt, 0) {
		fail(w, WrapKind(op, ErrBadRequest, fmt.Errorf("dt must be a non-negative number, got %v", dt)))
		return
	}
	snap, err := h.sessions.Advance(r.Context(), id, dt)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandlePause handles POST /sessions/{id}/pause.
func (h *SessionsHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Pause(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.pause", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleResume handles POST /sessions/{id}/resume.
func (h *SessionsHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.resume", err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// HandleStop handles POST /sessions/{id}/stop and returns the report.
func (h *SessionsHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sessions.StopSession(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.stop", err))
		return
	}
	h.writeReportJSON(w, rep)
}

// HandleReportJSON handles GET /sessions/{id}/report.json.
func (h *SessionsHandler) HandleReportJSON(w http.ResponseWriter, r *http.Request) {
	rep, err := h.sessions.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.report_json", err))
		return
	}
	h.writeReportJSON(w, rep)
}

func (h *SessionsHandler) writeReportJSON(w http.ResponseWriter, rep *report.SessionReport) {
	body, err := report.ExportJSON(rep)
	if err != nil {
		fail(w, WrapKind("api.report_json", ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// HandleReportCSV handles GET /sessions/{id}/report.csv.
func (h *SessionsHandler) HandleReportCSV(w http.ResponseWriter, r *http.Request) {
	const op = "api.report_csv"
	id := r.PathValue("id")
	rep, err := h.sessions.Report(r.Context(), id)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	body, err := report.ExportCSV(rep)
	if err != nil {
		fail(w, WrapKind(op, ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// HandleRatingsPreview handles GET /sessions/{id}/ratings. Nothing is stored.
func (h *SessionsHandler) HandleRatingsPreview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	players, err := h.ratings.ApplyRatingUpdate(r.Context(), id)
	if err != nil {
		fail(w, Wrap("api.ratings_preview", err))
		return
	}
	writeJSON(w, http.StatusOK, ratingsResponse{SessionID: id, Players: players})
}

// HandleCommit handles POST /sessions/{id}/commit.
func (h *SessionsHandler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	res, err := h.ratings.CommitRatings(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.commit", err))
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

// HandleCommitStatus handles GET /sessions/{id}/commit.
func (h *SessionsHandler) HandleCommitStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.ratings.CommitStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.commit_status", err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
