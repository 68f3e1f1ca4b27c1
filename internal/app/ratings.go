package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/pitchlab/internal/adapters/mq/queue"
	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/internal/domain/rating"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
)

// Commit states reported by CommitStatus.
const (
	CommitNone      = "none"
	CommitPending   = "pending"
	CommitCommitted = "committed"
)

// CommitResult describes where a session is in the commit pipeline.
type CommitResult struct {
	SessionID string               `json:"session_id"`
	Status    string               `json:"status"`
	Updates   []model.RatingUpdate `json:"updates,omitempty"`
}

// ApplyRatingUpdate returns the roster records of the session's participants
// as they would look with the session's rating updates applied. Nothing is
// stored.
func (s *Service) ApplyRatingUpdate(ctx context.Context, id string) ([]model.Player, error) {
	const op = "service.ApplyRatingUpdate"
	rep, err := s.Report(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	players := make([]model.Player, 0, len(rep.Participants))
	for _, pr := range rep.Participants {
		p, err := s.roster.Get(ctx, pr.PlayerID)
		if err != nil {
			// Removed from the roster since the session started.
			continue
		}
		players = append(players, p)
	}
	return rating.ApplyUpdates(players, rep.RatingUpdates()), nil
}

// CommitRatings hands the session's average speeds to the rating workers.
// A session is committed at most once; a full queue releases the claim so
// the caller can retry.
func (s *Service) CommitRatings(ctx context.Context, id string) (CommitResult, error) {
	const op = "service.CommitRatings"
	rep, err := s.Report(ctx, id)
	if err != nil {
		return CommitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordRatingDuplicate()
		return CommitResult{}, fmt.Errorf("%s: %w: %q", op, ErrAlreadyCommitted, id)
	}

	job := model.SessionCommit{
		SessionID: id,
		Date:      rep.Session.DateTime,
		Speeds:    rep.Speeds(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Unrecord(ctx, id)
		if errors.Is(err, queue.ErrFull) {
			return CommitResult{}, fmt.Errorf("%s: %w", op, ErrBackpressure)
		}
		return CommitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info(ctx, "ratings commit queued",
		logger.String("session", id),
		logger.Int("players", len(job.Speeds)),
	)
	return CommitResult{SessionID: id, Status: CommitPending}, nil
}

// CommitStatus reports whether a session's ratings were committed and what
// the workers wrote.
func (s *Service) CommitStatus(ctx context.Context, id string) (CommitResult, error) {
	if _, err := s.get(id); err != nil {
		return CommitResult{}, fmt.Errorf("service.CommitStatus: %w", err)
	}

	s.mu.RLock()
	updates, done := s.commits[id]
	s.mu.RUnlock()

	switch {
	case done:
		return CommitResult{SessionID: id, Status: CommitCommitted, Updates: updates}, nil
	case s.deduper.Seen(ctx, id):
		return CommitResult{SessionID: id, Status: CommitPending}, nil
	default:
		return CommitResult{SessionID: id, Status: CommitNone}, nil
	}
}
