package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hotel-data-sync/internal/store"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// NameRepository 房型/分店名称查询（operational store）
type NameRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNameRepository creates a new name repository
func NewNameRepository(db *sql.DB, logger *zap.Logger) *NameRepository {
	return &NameRepository{
		db:     db,
		logger: logger,
	}
}

// RoomTypeNames 批量查询房型名称
func (r *NameRepository) RoomTypeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return r.namesByIDs(ctx, `SELECT id, type_name FROM room_type WHERE id = ANY($1)`, ids)
}

// BranchNames 批量查询分店名称
func (r *NameRepository) BranchNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return r.namesByIDs(ctx, `SELECT id, branch_name FROM hotel_branch WHERE id = ANY($1)`, ids)
}

func (r *NameRepository) namesByIDs(ctx context.Context, query string, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan name row: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate name rows: %w", err)
	}

	return names, nil
}

// CachedNameResolver Redis 读穿缓存（名称查询走缓存，未命中回源数据库）
// Cache errors degrade to a direct DB lookup; they never fail the pipeline.
type CachedNameResolver struct {
	repo   *NameRepository
	kv     store.KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedNameResolver 创建带缓存的名称解析器
func NewCachedNameResolver(repo *NameRepository, kv store.KVStore, ttl time.Duration, logger *zap.Logger) *CachedNameResolver {
	return &CachedNameResolver{
		repo:   repo,
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

// RoomTypeNames 查询房型名称（缓存优先）
func (c *CachedNameResolver) RoomTypeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return c.resolve(ctx, "sync:name:room-type:%d", ids, c.repo.RoomTypeNames)
}

// BranchNames 查询分店名称（缓存优先）
func (c *CachedNameResolver) BranchNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return c.resolve(ctx, "sync:name:branch:%d", ids, c.repo.BranchNames)
}

func (c *CachedNameResolver) resolve(ctx context.Context, keyFormat string, ids []int64, lookup func(context.Context, []int64) (map[int64]string, error)) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	var missed []int64

	for _, id := range ids {
		key := fmt.Sprintf(keyFormat, id)
		val, err := c.kv.Get(ctx, key)
		if err != nil {
			if err != store.ErrCacheMiss {
				c.logger.Debug("Name cache read failed",
					zap.String("key", key),
					zap.Error(err),
				)
			}
			missed = append(missed, id)
			continue
		}
		names[id] = val
	}

	if len(missed) == 0 {
		return names, nil
	}

	fromDB, err := lookup(ctx, missed)
	if err != nil {
		return nil, err
	}

	for id, name := range fromDB {
		names[id] = name
		key := fmt.Sprintf(keyFormat, id)
		if err := c.kv.Set(ctx, key, name, c.ttl); err != nil {
			c.logger.Debug("Name cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return names, nil
}
