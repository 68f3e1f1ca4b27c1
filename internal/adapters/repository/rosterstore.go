package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/pkg/metrics"
)

// RosterStore is an in-memory Store. Players are indexed by a treap ordered
// by speed rating DESC, then id ASC, so in-order traversal yields the
// leaderboard.
type RosterStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.Player
	seed []model.Player
}

// treap node
type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the id (FNV-1a) so the shape does not depend on insert order.
func priority(id string) uint64 {
	h := uint64(14695981039346656037)
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= 1099511628211
	}
	return h
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTopN appends up to limit ids in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// countBetter returns how many distinct scores rank strictly above score.
func countBetter(n *node, score int, seen map[int]struct{}) {
	if n == nil {
		return
	}
	if n.score > score {
		seen[n.score] = struct{}{}
		countBetter(n.left, score, seen)
		countBetter(n.right, score, seen)
		return
	}
	countBetter(n.left, score, seen)
}

// NewRosterStore constructs an empty store, optionally seeded.
func NewRosterStore(opts ...Option) *RosterStore {
	s := &RosterStore{byID: make(map[string]model.Player)}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range model.NormalizeRoster(s.seed) {
		s.put(p)
	}
	s.seed = nil
	metrics.UpdateRosterSize(len(s.byID))
	return s
}

// put stores p and reindexes it. Caller holds the write lock.
func (s *RosterStore) put(p model.Player) {
	if old, ok := s.byID[p.ID]; ok {
		s.root = deleteNode(s.root, old.ID, old.Ratings.Speed)
	}
	s.byID[p.ID] = p.Clone()
	s.root = insert(s.root, p.ID, p.Ratings.Speed)
}

// Upsert implements Store.Upsert.
func (s *RosterStore) Upsert(ctx context.Context, p model.Player) error {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPlayer)
	}
	norm := model.NormalizeRoster([]model.Player{p})

	s.mu.Lock()
	s.put(norm[0])
	n := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateRosterSize(n)
	return nil
}

// Get implements Store.Get.
func (s *RosterStore) Get(ctx context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Player{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return p.Clone(), nil
}

// List implements Store.List.
func (s *RosterStore) List(ctx context.Context) []model.Player {
	s.mu.RLock()
	out := make([]model.Player, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update implements Store.Update. fn must not change the id.
func (s *RosterStore) Update(ctx context.Context, id string, fn func(model.Player) (model.Player, error)) (model.Player, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[id]
	if !ok {
		return model.Player{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	next, err := fn(cur.Clone())
	if err != nil {
		return model.Player{}, err
	}
	next.ID = id
	s.put(next)
	return next.Clone(), nil
}

// Rank implements Store.Rank. Equal ratings share a rank and ranks are
// consecutive.
func (s *RosterStore) Rank(ctx context.Context, id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	better := make(map[int]struct{})
	countBetter(s.root, p.Ratings.Speed, better)
	return entryFor(p, len(better)+1), nil
}

// TopN implements Store.TopN.
func (s *RosterStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &ids)

	out := make([]Entry, 0, len(ids))
	rank := 0
	for i, id := range ids {
		p := s.byID[id]
		if i == 0 || p.Ratings.Speed != out[i-1].SpeedRating {
			rank++
		}
		out = append(out, entryFor(p, rank))
	}
	return out, nil
}

// Count implements Store.Count.
func (s *RosterStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func entryFor(p model.Player, rank int) Entry {
	e := Entry{Rank: rank, PlayerID: p.ID, Name: p.Name, Position: p.Position, SpeedRating: p.Ratings.Speed}
	if n := len(p.MatchHistory); n > 0 {
		e.LastAvgMps = p.MatchHistory[n-1].AvgSpeedMps
	}
	return e
}
