package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Record grants the courses of courseIDs the user does not hold yet and stores the purchase in
// one transaction. It returns the granted course ids.
//
// ErrNothingToGrant is returned when every course is already held and ErrPurchaseAlreadyRecorded
// when a purchase for the same session exists; neither writes anything.
func (r *PurchaseRepository) Record(ctx context.Context, purchase *domain.PurchaseHistory, courseIDs []uuid.UUID) ([]uuid.UUID, error) {
	var granted []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recorded int64
		if err := tx.Model(&domain.PurchaseHistory{}).
			Where("stripe_session_id = ?", purchase.StripeSessionID).
			Count(&recorded).Error; err != nil {
			return err
		}
		if recorded > 0 {
			return domain.ErrPurchaseAlreadyRecorded
		}

		held, err := heldAmong(tx, purchase.UserID, courseIDs)
		if err != nil {
			return err
		}
		granted = missing(courseIDs, held)
		if len(granted) == 0 {
			return domain.ErrNothingToGrant
		}

		// The unique session id settles a race between the redirect and the webhook.
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(purchase)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrPurchaseAlreadyRecorded
		}

		accesses := make([]domain.UserCourseAccess, len(granted))
		for i, courseID := range granted {
			accesses[i] = domain.UserCourseAccess{UserID: purchase.UserID, CourseID: courseID}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&accesses).Error
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseHistory, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// GetForUser only finds purchases owned by userID.
func (r *PurchaseRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.PurchaseHistory, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

func (r *PurchaseRepository) GetBySession(ctx context.Context, sessionID string) (*domain.PurchaseHistory, error) {
	return r.first(r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID))
}

func (r *PurchaseRepository) first(query *gorm.DB) (*domain.PurchaseHistory, error) {
	var purchase domain.PurchaseHistory
	err := query.
		Preload("Product").
		Preload("Product.CourseProducts").
		First(&purchase).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *PurchaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseHistory, error) {
	var purchases []domain.PurchaseHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&purchases).Error
	return purchases, err
}

func (r *PurchaseRepository) ListAll(ctx context.Context) ([]domain.PurchaseHistory, error) {
	var purchases []domain.PurchaseHistory
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("User.Profile").
		Order("created_at desc").
		Find(&purchases).Error
	return purchases, err
}

func (r *PurchaseRepository) HasActive(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.PurchaseHistory{}).
		Where("user_id = ? AND product_id = ? AND refund_at IS NULL AND is_refunded = ?", userID, productID, false).
		Count(&n).Error
	return n > 0, err
}

// ActiveCourseIDs lists courses granted by the user's non-refunded purchases other than
// excludeID.
func (r *PurchaseRepository) ActiveCourseIDs(ctx context.Context, userID, excludeID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&domain.PurchaseHistory{}).
		Distinct("course_products.course_id").
		Joins("JOIN course_products ON course_products.product_id = purchase_histories.product_id").
		Where("purchase_histories.user_id = ? AND purchase_histories.id <> ?", userID, excludeID).
		Where("purchase_histories.refund_at IS NULL AND purchase_histories.is_refunded = ?", false).
		Pluck("course_products.course_id", &ids).Error
	return ids, err
}

// Refund marks the purchase refunded, revokes the given courses and then runs issue, all in one
// transaction. A failure from issue rolls back the database writes.
func (r *PurchaseRepository) Refund(ctx context.Context, purchase *domain.PurchaseHistory, revoke []uuid.UUID, now time.Time, issue func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.PurchaseHistory{}).
			Where("id = ? AND refund_at IS NULL", purchase.ID).
			Updates(map[string]any{"refund_at": now, "is_refunded": true})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrPurchaseNotFound
		}

		if len(revoke) > 0 {
			if err := tx.Where("user_id = ? AND course_id IN ?", purchase.UserID, revoke).
				Delete(&domain.UserCourseAccess{}).Error; err != nil {
				return err
			}
		}

		if err := issue(ctx); err != nil {
			return err
		}
		purchase.RefundAt = &now
		purchase.IsRefunded = true
		return nil
	})
}

// missing returns the ids of want absent from have, preserving want's order.
func missing(want, have []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(have))
	for _, id := range have {
		seen[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, id := range want {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
