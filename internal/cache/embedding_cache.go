package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// ErrCorruptEntry marks a cached value that no longer decodes to a vector.
var ErrCorruptEntry = errors.New("corrupt embedding cache entry")

// EmbeddingCache stores vectors in redis keyed by embedder ID and text digest.
type EmbeddingCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewEmbeddingCache(client *redisv9.Client, ttl time.Duration) *EmbeddingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &EmbeddingCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *EmbeddingCache) Get(ctx context.Context, embedderID, text string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, c.key(embedderID, text)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get embedding failed: %w", err)
	}

	var vec []float32
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	return vec, true, nil
}

func (c *EmbeddingCache) Set(ctx context.Context, embedderID, text string, vec []float32) error {
	payload, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal embedding cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.key(embedderID, text), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set embedding failed: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) Delete(ctx context.Context, embedderID, text string) error {
	if err := c.client.Del(ctx, c.key(embedderID, text)).Err(); err != nil {
		return fmt.Errorf("redis delete embedding failed: %w", err)
	}
	return nil
}

func (c *EmbeddingCache) key(embedderID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("rag:embedding:%s:%s", embedderID, hex.EncodeToString(sum[:]))
}
