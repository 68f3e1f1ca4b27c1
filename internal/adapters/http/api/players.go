package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pitchlab/internal/domain/model"
)

// PlayersHandler serves the roster.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// upsertRequest accepts either {"players": [...]} or a bare array.
type upsertRequest struct {
	Players []model.Player `json:"players"`
}

func (u *upsertRequest) UnmarshalJSON(b []byte) error {
	var list []model.Player
	if err := json.Unmarshal(b, &list); err == nil {
		u.Players = list
		return nil
	}
	type plain upsertRequest
	return json.Unmarshal(b, (*plain)(u))
}

// HandleList handles GET /players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Players(r.Context()))
}

// HandleGet handles GET /players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.deps.Player(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap("api.get_player", err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpsert handles POST /players. Records are normalised the way a
// loaded roster is before they are stored.
func (h *PlayersHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	const op = "api.upsert_players"
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Players) == 0 {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("no players")))
		return
	}

	players := model.NormalizeRoster(req.Players)
	if len(players) == 0 {
		fail(w, WrapKind(op, ErrBadRequest, errors.New("no player has an id")))
		return
	}
	if err := h.deps.UpsertPlayers(r.Context(), players); err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, players)
}
