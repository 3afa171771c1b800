package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeIndexKey = "sessions:active:index"

// Snapshot is the cached monitoring view of a running session.
type Snapshot struct {
	SessionID     string    `json:"session_id"`
	ReservationID string    `json:"reservation_id"`
	PointID       string    `json:"point_id"`
	UserID        int64     `json:"user_id"`
	Status        string    `json:"status"`
	BatteryPct    float64   `json:"battery_pct"`
	EnergyKWh     float64   `json:"energy_kwh"`
	Cost          float64   `json:"cost"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store caches running-session snapshots and keeps an index set so
// operators can list active sessions without touching Postgres.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns redis-backed store.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("sessions:active:%s", sessionID)
}

// Save caches the snapshot and indexes the session id.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(snap.SessionID), data, s.ttl)
	pipe.SAdd(ctx, activeIndexKey, snap.SessionID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get returns the cached snapshot.
func (s *Store) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	result, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(result), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete evicts the snapshot and drops it from the index.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.SRem(ctx, activeIndexKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns every cached snapshot. Expired entries are pruned from the
// index as they are encountered.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	ids, err := s.client.SMembers(ctx, activeIndexKey).Result()
	if err != nil {
		return nil, err
	}

	var snaps []Snapshot
	for _, id := range ids {
		snap, err := s.Get(ctx, id)
		if err == redis.Nil {
			_ = s.client.SRem(ctx, activeIndexKey, id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	return snaps, nil
}
