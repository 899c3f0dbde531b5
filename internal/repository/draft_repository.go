package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/careers-admin-api/internal/wizard"
)

const draftKeyPrefix = "careers:draft:"

// DraftRepository keeps wizard drafts in Redis, one JSON document per client and posting.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository builds a draft store. A zero ttl keeps drafts until they are removed.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{client: client, ttl: ttl}
}

// DraftKey is the Redis key for a draft.
func DraftKey(key wizard.Key) string {
	return draftKeyPrefix + key.String()
}

// Get loads a draft. A missing key yields wizard.ErrNoDraft.
func (r *DraftRepository) Get(ctx context.Context, key wizard.Key) (*wizard.Draft, error) {
	raw, err := r.client.Get(ctx, DraftKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, wizard.ErrNoDraft
		}
		return nil, fmt.Errorf("redis get draft %s: %w", key, err)
	}
	var draft wizard.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return &draft, nil
}

// Set overwrites the draft and refreshes its expiry.
func (r *DraftRepository) Set(ctx context.Context, key wizard.Key, draft wizard.Draft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", key, err)
	}
	if err := r.client.Set(ctx, DraftKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", key, err)
	}
	return nil
}

// Remove deletes the draft. Missing drafts are not an error.
func (r *DraftRepository) Remove(ctx context.Context, key wizard.Key) error {
	if err := r.client.Del(ctx, DraftKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete draft %s: %w", key, err)
	}
	return nil
}
