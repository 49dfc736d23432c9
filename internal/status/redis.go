// internal/status/redis.go
package status

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/upscalely/upscale-go/internal/domain"
)

// Collection is the key prefix under which request documents live. It plays
// the role a collection name does in a document database.
const Collection = "upscale_requests"

// RedisConfig encapsulates the connection info for the status store.
type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

// RedisStore keeps each status record as a hash at <collection>:<requestId>.
// Hash writes are atomic per key, which gives each Update the per-request
// atomicity the pipeline relies on.
type RedisStore struct {
	client     *redis.Client
	collection string
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{client: client, collection: Collection}, nil
}

func buildRedisOptions(cfg RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.Port
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

func (s *RedisStore) key(requestID string) string {
	return s.collection + ":" + requestID
}

// Create registers a new pending-state document for a request. Re-submitting
// the same id replaces the prior document wholesale; fields of a previous
// terminal state (outputUrl, error) must not survive into the fresh one.
func (s *RedisStore) Create(ctx context.Context, rec domain.StatusRecord) error {
	if rec.RequestID == "" {
		return fmt.Errorf("request id is required")
	}

	now := time.Now().UTC()
	fields := map[string]string{
		FieldStatus: string(rec.Status),
		"imageUrl":  rec.ImageURL,
		"userId":    rec.UserID,
		"createdAt": now.Format(time.RFC3339Nano),
		"updatedAt": now.Format(time.RFC3339Nano),
	}
	if rec.Status == "" {
		fields[FieldStatus] = string(domain.StatusPending)
	}

	key := s.key(rec.RequestID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis create failed: %w", err)
	}
	return nil
}

// Update merges the given fields into an existing document and stamps
// updatedAt. Returns ErrNotFound when no document exists for the id.
func (s *RedisStore) Update(ctx context.Context, requestID string, fields map[string]string) error {
	key := s.key(requestID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis exists failed: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}

	merged := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.client.HSet(ctx, key, merged).Err(); err != nil {
		return fmt.Errorf("redis update failed: %w", err)
	}
	return nil
}

// Get loads the document for a request id.
func (s *RedisStore) Get(ctx context.Context, requestID string) (*domain.StatusRecord, error) {
	values, err := s.client.HGetAll(ctx, s.key(requestID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}

	rec := &domain.StatusRecord{
		RequestID: requestID,
		ImageURL:  values["imageUrl"],
		UserID:    values["userId"],
		OutputURL: values[FieldOutputURL],
		Error:     values[FieldError],
	}
	if st, ok := domain.ParseRequestStatus(values[FieldStatus]); ok {
		rec.Status = st
	}
	if t, err := time.Parse(time.RFC3339Nano, values["createdAt"]); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, values["updatedAt"]); err == nil {
		rec.UpdatedAt = t
	}
	return rec, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
