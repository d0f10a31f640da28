package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/pkg/logger"
)

const snapshotKey = "patient_directory:snapshot"

// CachedProvider caches the upstream directory snapshot in Redis with a
// TTL so one upload session does not re-fetch the directory per file.
// Cache failures are logged and fall through to the upstream; they are
// never surfaced as classification errors.
type CachedProvider struct {
	upstream Provider
	redis    *redis.Client
	ttl      time.Duration
	logger   logger.Logger
}

func NewCachedProvider(upstream Provider, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		redis:    client,
		ttl:      ttl,
		logger:   log,
	}
}

func (p *CachedProvider) Snapshot(ctx context.Context) ([]models.PatientRecord, error) {
	data, err := p.redis.Get(ctx, snapshotKey).Bytes()
	if err == nil {
		var patients []models.PatientRecord
		if err := json.Unmarshal(data, &patients); err == nil {
			return patients, nil
		}
		p.logger.Warn("Discarding corrupt directory snapshot", logger.Error(err))
	} else if err != redis.Nil {
		p.logger.Warn("Failed to read directory snapshot from redis", logger.Error(err))
	}

	patients, err := p.upstream.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patient directory: %w", err)
	}

	if data, err := json.Marshal(patients); err == nil {
		if err := p.redis.Set(ctx, snapshotKey, data, p.ttl).Err(); err != nil {
			p.logger.Warn("Failed to cache directory snapshot", logger.Error(err))
		}
	}

	return patients, nil
}

// Invalidate drops the cached snapshot, forcing the next Snapshot call
// back to the upstream.
func (p *CachedProvider) Invalidate(ctx context.Context) error {
	if err := p.redis.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate directory snapshot: %w", err)
	}
	return nil
}
