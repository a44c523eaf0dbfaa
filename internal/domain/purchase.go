package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductSnapshot freezes the product's display fields at purchase time.
type ProductSnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

type PurchaseHistory struct {
	ID              uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                           `gorm:"type:uuid;index;not null" json:"userId"`
	ProductID       uuid.UUID                           `gorm:"type:uuid;index;not null" json:"productId"`
	StripeSessionID string                              `gorm:"uniqueIndex;not null" json:"stripeSessionId"`
	PricePaidInCent int64                               `gorm:"not null" json:"pricePaidInCent"`
	ProductDetails  datatypes.JSONType[ProductSnapshot] `json:"productDetails"`
	RefundAt        *time.Time                          `json:"refundAt"`
	IsRefunded      bool                                `gorm:"not null;default:false" json:"isRefunded"`
	Product         *Product                            `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	User            *User                               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt       time.Time                           `json:"createdAt"`
	UpdatedAt       time.Time                           `json:"updatedAt"`
}

func (p *PurchaseHistory) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PricingRow is one line of a purchase receipt.
type PricingRow struct {
	Label           string  `json:"label"`
	AmountInDollars float64 `json:"amountInDollars"`
	IsBold          bool    `json:"isBold,omitempty"`
}

type SalesDashboard struct {
	NetSales                 float64 `json:"netSales"`
	RefundedSales            float64 `json:"refundedSales"`
	TotalUnRefundedPurchases int64   `json:"totalUnRefundedPurchases"`
	TotalRefundedPurchases   int64   `json:"totalRefundedPurchases"`
	AverageNetSales          float64 `json:"averageNetSales"`
	TotalStudents            int64   `json:"totalStudents"`
	TotalCourses             int64   `json:"totalCourses"`
	TotalProducts            int64   `json:"totalProducts"`
	TotalSections            int64   `json:"totalSections"`
	TotalLessons             int64   `json:"totalLessons"`
}

func (PurchaseHistory) TableName() string { return "purchase_histories" }
