package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create stores the product and links it to courseIDs, which must all exist.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product, courseIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureCoursesExist(tx, courseIDs); err != nil {
			return err
		}
		p.CourseProducts = nil
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		links := make([]domain.CourseProduct, len(courseIDs))
		for i, id := range courseIDs {
			links[i] = domain.CourseProduct{ProductID: p.ID, CourseID: id}
		}
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
		p.CourseProducts = links
		return nil
	})
}

// Update rewrites the product's fields and diffs its course links against courseIDs.
func (r *ProductRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any, courseIDs []uuid.UUID) (*domain.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		if err := ensureCoursesExist(tx, courseIDs); err != nil {
			return err
		}

		if err := tx.Where("product_id = ? AND course_id NOT IN ?", id, courseIDs).
			Delete(&domain.CourseProduct{}).Error; err != nil {
			return err
		}
		links := make([]domain.CourseProduct, len(courseIDs))
		for i, courseID := range courseIDs {
			links[i] = domain.CourseProduct{ProductID: id, CourseID: courseID}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// Delete refuses to remove a product that appears in any purchase.
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var purchases int64
		if err := tx.Model(&domain.PurchaseHistory{}).Where("product_id = ?", id).Count(&purchases).Error; err != nil {
			return err
		}
		if purchases > 0 {
			return domain.ErrProductHasPurchases
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.CourseProduct{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Product{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	err := r.db.WithContext(ctx).
		Preload("CourseProducts", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("CourseProducts.Course").
		First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &product, r.fillCounts(ctx, []*domain.Product{&product})
}

// List returns products newest first with course and customer counts.
func (r *ProductRepository) List(ctx context.Context, includePrivate bool) ([]domain.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{})
	if !includePrivate {
		query = query.Where("status = ?", domain.ProductPublic)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var products []domain.Product
	if err := query.Order("created_at desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}

	ptrs := make([]*domain.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
	}
	return products, total, r.fillCounts(ctx, ptrs)
}

type productCount struct {
	ProductID uuid.UUID
	N         int64
}

func (r *ProductRepository) fillCounts(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	var courses, customers []productCount
	if err := r.db.WithContext(ctx).Model(&domain.CourseProduct{}).
		Select("product_id, COUNT(*) AS n").
		Where("product_id IN ?", ids).
		Group("product_id").
		Scan(&courses).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&domain.PurchaseHistory{}).
		Select("product_id, COUNT(DISTINCT user_id) AS n").
		Where("product_id IN ? AND is_refunded = ?", ids, false).
		Group("product_id").
		Scan(&customers).Error; err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, c := range courses {
		if p, ok := byID[c.ProductID]; ok {
			p.CoursesCount = c.N
		}
	}
	for _, c := range customers {
		if p, ok := byID[c.ProductID]; ok {
			p.CustomersCount = c.N
		}
	}
	return nil
}

func ensureCoursesExist(tx *gorm.DB, courseIDs []uuid.UUID) error {
	if len(courseIDs) == 0 {
		return domain.ErrUnknownCourses
	}
	var n int64
	if err := tx.Model(&domain.Course{}).Where("id IN ?", courseIDs).Count(&n).Error; err != nil {
		return err
	}
	if n != int64(len(courseIDs)) {
		return domain.ErrUnknownCourses
	}
	return nil
}
