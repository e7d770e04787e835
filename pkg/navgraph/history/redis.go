package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisJournal persists entries in Redis so several router processes can
// share one journal. Each session is a list of JSON entries; a sorted set
// indexes sessions by last write.
type RedisJournal struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ Journal = (*RedisJournal)(nil)

// RedisOption configures a RedisJournal.
type RedisOption func(*RedisJournal)

// WithTTL sets the expiration of a session's entries, refreshed on append.
func WithTTL(ttl time.Duration) RedisOption {
	return func(j *RedisJournal) {
		j.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(j *RedisJournal) {
		j.prefix = prefix
	}
}

// NewRedisJournal connects to a Redis server.
func NewRedisJournal(address, password string, db int, opts ...RedisOption) *RedisJournal {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisJournalFromClient(client, opts...)
}

// NewRedisJournalFromClient creates a journal from an existing client.
// Close closes the client.
func NewRedisJournalFromClient(client *backend.Client, opts ...RedisOption) *RedisJournal {
	j := &RedisJournal{
		client: client,
		prefix: "navgraph:journal:",
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *RedisJournal) listKey(session string) string { return j.prefix + session + ":entries" }
func (j *RedisJournal) seqKey(session string) string  { return j.prefix + session + ":seq" }
func (j *RedisJournal) indexKey() string              { return j.prefix + "sessions" }

// Append implements Journal.
func (j *RedisJournal) Append(ctx context.Context, entry *Entry) error {
	seq, err := j.client.Incr(ctx, j.seqKey(entry.Session)).Result()
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	stamp(entry)
	stored := *entry
	stored.Sequence = seq
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	pipe := j.client.TxPipeline()
	pipe.RPush(ctx, j.listKey(entry.Session), data)
	pipe.ZAdd(ctx, j.indexKey(), backend.Z{
		Score:  float64(entry.Timestamp.Unix()),
		Member: entry.Session,
	})
	if j.ttl > 0 {
		pipe.Expire(ctx, j.listKey(entry.Session), j.ttl)
		pipe.Expire(ctx, j.seqKey(entry.Session), j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	entry.Sequence = seq
	return nil
}

// Last implements Journal.
func (j *RedisJournal) Last(ctx context.Context, session string) (*Entry, error) {
	val, err := j.client.LIndex(ctx, j.listKey(session), -1).Result()
	if errors.Is(err, backend.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load last entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry: %w", err)
	}
	return &e, nil
}

// List implements Journal.
func (j *RedisJournal) List(ctx context.Context, session string) ([]Entry, error) {
	vals, err := j.client.LRange(ctx, j.listKey(session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]Entry, 0, len(vals))
	for _, val := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Sessions implements Journal. Sessions whose entries expired are pruned
// from the index lazily.
func (j *RedisJournal) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := j.client.ZRange(ctx, j.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	live := make([]string, 0, len(sessions))
	for _, s := range sessions {
		n, err := j.client.Exists(ctx, j.listKey(s)).Result()
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if n == 0 {
			j.client.ZRem(ctx, j.indexKey(), s)
			continue
		}
		live = append(live, s)
	}
	return live, nil
}

// DeleteSession implements Journal.
func (j *RedisJournal) DeleteSession(ctx context.Context, session string) error {
	pipe := j.client.TxPipeline()
	pipe.Del(ctx, j.listKey(session), j.seqKey(session))
	pipe.ZRem(ctx, j.indexKey(), session)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close implements Journal.
func (j *RedisJournal) Close() error {
	return j.client.Close()
}
