package usecase

import (
	"context"

	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

type DashboardUseCase struct {
	stats *repository.StatsRepository
}

func NewDashboardUseCase(stats *repository.StatsRepository) *DashboardUseCase {
	return &DashboardUseCase{stats: stats}
}

func (uc *DashboardUseCase) Admin(ctx context.Context) (*domain.SalesDashboard, error) {
	return uc.stats.Dashboard(ctx)
}
