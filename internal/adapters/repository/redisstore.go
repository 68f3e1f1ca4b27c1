package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pitchlab/internal/domain/model"
	"github.com/okian/pitchlab/pkg/logger"
	"github.com/okian/pitchlab/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultKeyPrefix namespaces the roster keys.
	DefaultKeyPrefix = "pitchlab"

	maxUpdateRetries = 8
)

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if p := strings.TrimSpace(prefix); p != "" {
			s.prefix = p
		}
	}
}

// WithRedisLogger sets the logger used for degraded reads.
func WithRedisLogger(l logger.Logger) RedisOption {
	return func(s *RedisStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// RedisStore keeps the roster in Redis: player records as JSON in a hash and
// the speed leaderboard in a sorted set scored by the negated rating, so an
// ascending range yields rating desc, id asc.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger logger.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) playersKey() string { return s.prefix + ":players" }
func (s *RedisStore) speedKey() string   { return s.prefix + ":speed" }

func encodePlayer(p model.Player) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode player %q: %w", p.ID, err)
	}
	return string(b), nil
}

func decodePlayer(raw string) (model.Player, error) {
	var p model.Player
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Player{}, fmt.Errorf("decode player: %w", err)
	}
	return p, nil
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, p model.Player, data string) {
	pipe.HSet(ctx, s.playersKey(), p.ID, data)
	pipe.ZAdd(ctx, s.speedKey(), redis.Z{Score: -float64(p.Ratings.Speed), Member: p.ID})
}

// Upsert implements Store.Upsert.
func (s *RedisStore) Upsert(ctx context.Context, p model.Player) error {
	const op = "repository.RedisStore.Upsert"
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return fmt.Errorf("%s: %w: empty id", op, ErrInvalidPlayer)
	}
	norm := model.NormalizeRoster([]model.Player{p})[0]
	data, err := encodePlayer(norm)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, norm, data)
		return nil
	}); err != nil {
		metrics.RecordErrorByComponent("repository", "redis_write")
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.UpdateRosterSize(s.Count(ctx))
	return nil
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, id string) (model.Player, error) {
	const op = "repository.RedisStore.Get"
	raw, err := s.client.HGet(ctx, s.playersKey(), id).Result()
	if errors.Is(err, redis.Nil) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Player{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("%s: %w", op, err)
	}
	p, err := decodePlayer(raw)
	if err != nil {
		return model.Player{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// List implements Store.List. Read failures are logged and yield the
// records decoded so far.
func (s *RedisStore) List(ctx context.Context) []model.Player {
	all, err := s.client.HGetAll(ctx, s.playersKey()).Result()
	if err != nil {
		s.logger.Warn(ctx, "roster list failed", logger.Error(err))
		return []model.Player{}
	}
	out := make([]model.Player, 0, len(all))
	for id, raw := range all {
		p, err := decodePlayer(raw)
		if err != nil {
			s.logger.Warn(ctx, "skipping unreadable player", logger.String("id", id), logger.Error(err))
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update implements Store.Update with optimistic locking on the player hash.
// fn may run more than once when a concurrent writer wins the race.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(model.Player) (model.Player, error)) (model.Player, error) {
	const op = "repository.RedisStore.Update"
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var next model.Player
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, s.playersKey(), id).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		cur, err := decodePlayer(raw)
		if err != nil {
			return err
		}
		if next, err = fn(cur); err != nil {
			return err
		}
		next.ID = id
		data, err := encodePlayer(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, next, data)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, s.playersKey())
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return model.Player{}, err
		}
		return model.Player{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordErrorByComponent("repository", "redis_conflict")
	return model.Player{}, fmt.Errorf("%s: %q: too many concurrent updates", op, id)
}

// Rank implements Store.Rank with the same dense ranking as RosterStore.
func (s *RedisStore) Rank(ctx context.Context, id string) (Entry, error) {
	const op = "repository.RedisStore.Rank"
	p, err := s.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	above, err := s.client.ZRangeByScoreWithScores(ctx, s.speedKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.Itoa(-p.Ratings.Speed),
	}).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	distinct := make(map[float64]struct{}, len(above))
	for _, z := range above {
		distinct[z.Score] = struct{}{}
	}
	return entryFor(p, len(distinct)+1), nil
}

// TopN implements Store.TopN.
func (s *RedisStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	const op = "repository.RedisStore.TopN"
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	ids, err := s.client.ZRange(ctx, s.speedKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(ids) == 0 {
		return []Entry{}, nil
	}
	raws, err := s.client.HMGet(ctx, s.playersKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]Entry, 0, len(ids))
	rank := 0
	for i, v := range raws {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn(ctx, "leaderboard member without record", logger.String("id", ids[i]))
			continue
		}
		p, err := decodePlayer(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(out) == 0 || p.Ratings.Speed != out[len(out)-1].SpeedRating {
			rank++
		}
		out = append(out, entryFor(p, rank))
	}
	return out, nil
}

// Count implements Store.Count.
func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.HLen(ctx, s.playersKey()).Result()
	if err != nil {
		s.logger.Warn(ctx, "roster count failed", logger.Error(err))
		return 0
	}
	return int(n)
}
