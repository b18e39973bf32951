package repositories

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Gopher0727/Fredagslunchen/internal/models"
)

const statsCacheKey = "admin:stats"

// Stats 全站实体数量
type Stats struct {
	Users          int64 `json:"users"`
	Groups         int64 `json:"groups"`
	Locations      int64 `json:"locations"`
	GroupLocations int64 `json:"group_locations"`
	Lunches        int64 `json:"lunches"`
	Scores         int64 `json:"scores"`
}

type StatsRepository struct {
	db    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
}

// NewStatsRepository redis 为 nil 或 ttl <= 0 时每次都查询数据库
func NewStatsRepository(db *gorm.DB, redis *redis.Client, ttl time.Duration) *StatsRepository {
	return &StatsRepository{db: db, redis: redis, ttl: ttl}
}

// Counts 统计各实体数量 (带短期缓存)
func (r *StatsRepository) Counts(ctx context.Context) (*Stats, error) {
	cached := r.redis != nil && r.ttl > 0
	if cached {
		if val, err := r.redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats Stats
			if json.Unmarshal([]byte(val), &stats) == nil {
				return &stats, nil
			}
		}
	}

	db := r.db.WithContext(ctx)
	var stats Stats
	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.Group{}, &stats.Groups},
		{&models.Location{}, &stats.Locations},
		{&models.GroupLocation{}, &stats.GroupLocations},
		{&models.Lunch{}, &stats.Lunches},
		{&models.Score{}, &stats.Scores},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	if cached {
		if data, err := json.Marshal(&stats); err == nil {
			r.redis.Set(ctx, statsCacheKey, data, r.ttl)
		}
	}
	return &stats, nil
}
