package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductPublic  ProductStatus = "public"
	ProductPrivate ProductStatus = "private"
)

func (s ProductStatus) Valid() bool {
	return s == ProductPublic || s == ProductPrivate
}

type Product struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `gorm:"type:text;not null" json:"description"`
	ImageURL       string          `gorm:"not null" json:"imageUrl"`
	PriceInDollar  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"priceInDollar"`
	Status         ProductStatus   `gorm:"type:varchar(16);not null;default:'private'" json:"status"`
	CourseProducts []CourseProduct `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"courseProducts,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	CoursesCount   int64 `gorm:"-" json:"coursesCount"`
	CustomersCount int64 `gorm:"-" json:"customersCount"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Product) CourseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.CourseProducts))
	for _, cp := range p.CourseProducts {
		ids = append(ids, cp.CourseID)
	}
	return ids
}

// PriceInCents rounds the dollar price to whole cents.
func (p *Product) PriceInCents() int64 {
	return p.PriceInDollar.Shift(2).Round(0).IntPart()
}

type CourseProduct struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey" json:"productId"`
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"courseId"`
	Course    *Course   `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"course,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PPPCoupon is a purchasing power parity discount keyed by ISO country code.
type PPPCoupon struct {
	StripeCouponID     string   `json:"stripeCouponId"`
	DiscountPercentage float64  `json:"discountPercentage"`
	CountryCodes       []string `json:"countryCodes"`
}

func (Product) TableName() string       { return "products" }
func (CourseProduct) TableName() string { return "course_products" }
