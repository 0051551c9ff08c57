package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/savelyeva/docextract/internal/task"
)

const taskPrefix = "docextract:task:"

// Store is the durable task-record mapping. Records are JSON blobs keyed by
// task id; a single SET makes every write atomic, so readers never observe a
// half-updated status/result pairing. Retention is an external concern: the
// store never expires or deletes records.
type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Ping is the liveness probe the worker uses before resuming after a
// connectivity loss.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Put overwrites the record atomically. The write is durable when it returns.
func (s *Store) Put(ctx context.Context, r *task.Record) error {
	r.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := s.client.Set(ctx, taskPrefix+r.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("put record: %w", err)
	}

	return nil
}

// Get returns the record or (nil, nil) when the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (*task.Record, error) {
	data, err := s.client.Get(ctx, taskPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var r task.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	return &r, nil
}

// PendingIDs scans every task key and returns the ids whose stored status is
// PENDING, in scan order. A full scan is fine at this scale; records that
// vanish or fail to decode mid-scan are skipped.
func (s *Store) PendingIDs(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, taskPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}

	if len(keys) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			continue
		}

		var r task.Record
		if err := json.Unmarshal(data, &r); err != nil {
			continue
		}
		if r.Status == task.StatusPending {
			ids = append(ids, r.ID)
		}
	}

	return ids, nil
}
