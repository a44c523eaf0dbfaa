package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
)

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type salesRow struct {
	IsRefunded bool
	Total      int64
	N          int64
}

// Dashboard aggregates sales in dollars and catalog sizes.
func (r *StatsRepository) Dashboard(ctx context.Context) (*domain.SalesDashboard, error) {
	db := r.db.WithContext(ctx)

	var rows []salesRow
	if err := db.Model(&domain.PurchaseHistory{}).
		Select("is_refunded, COALESCE(SUM(price_paid_in_cent), 0) AS total, COUNT(*) AS n").
		Group("is_refunded").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	var net, refunded salesRow
	for _, row := range rows {
		if row.IsRefunded {
			refunded = row
		} else {
			net = row
		}
	}

	dash := &domain.SalesDashboard{
		NetSales:                 centsToDollars(net.Total),
		RefundedSales:            centsToDollars(refunded.Total),
		TotalUnRefundedPurchases: net.N,
		TotalRefundedPurchases:   refunded.N,
	}
	if net.N > 0 {
		dash.AverageNetSales = decimal.New(net.Total, -2).
			Div(decimal.NewFromInt(net.N)).
			Round(2).
			InexactFloat64()
	}

	if err := db.Model(&domain.UserCourseAccess{}).Distinct("user_id").Count(&dash.TotalStudents).Error; err != nil {
		return nil, err
	}
	counts := []struct {
		model any
		dest  *int64
	}{
		{&domain.Course{}, &dash.TotalCourses},
		{&domain.Product{}, &dash.TotalProducts},
		{&domain.CourseSection{}, &dash.TotalSections},
		{&domain.CourseLesson{}, &dash.TotalLessons},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return dash, nil
}

func centsToDollars(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}
