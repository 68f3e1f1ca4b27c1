package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/pitchlab/internal/app"
	"github.com/okian/pitchlab/internal/domain/drill"
	"github.com/okian/pitchlab/internal/domain/session"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrInternal     = errors.New("internal error")
)

// Wrap annotates err with the operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind annotates err with the operation name and a sentinel kind so
// callers can match either with errors.Is.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return NewKind(op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// NewKind returns a bare sentinel kind annotated with the operation name.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// classify maps an error onto its HTTP status and error code.
func classify(err error) (int, string) {
	if reason := drill.ReasonCode(err); reason != "" {
		return http.StatusBadRequest, reason
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrInvalidPlayer):
		return http.StatusBadRequest, "invalid_player"
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, service.ErrPlayerNotFound):
		return http.StatusNotFound, "player_not_found"
	case errors.Is(err, service.ErrNotStopped):
		return http.StatusConflict, "not_stopped"
	case errors.Is(err, service.ErrAlreadyCommitted):
		return http.StatusConflict, "already_committed"
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrBackpressure), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
