package services

import (
	"context"
	"fmt"

	"github.com/Gopher0727/Fredagslunchen/internal/repositories"
)

// AdminService 站点管理统计，调用方必须已经通过 AdminOnly 中间件
type AdminService struct {
	stats *repositories.StatsRepository
}

func NewAdminService(stats *repositories.StatsRepository) *AdminService {
	return &AdminService{stats: stats}
}

// Stats 各实体数量
func (s *AdminService) Stats(ctx context.Context) (*repositories.Stats, error) {
	stats, err := s.stats.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	return stats, nil
}
