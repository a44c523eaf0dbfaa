package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// RegisterUnverified creates a user with a profile, or refreshes the password and names of an
// existing unverified account. A verified account with the same email is never touched.
func (r *UserRepository) RegisterUnverified(ctx context.Context, email, passwordHash, firstName, lastName string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Profile").Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = domain.User{
				Email:    email,
				Password: passwordHash,
				Role:     domain.RoleUser,
				Profile:  &domain.UserProfile{FirstName: firstName, LastName: lastName},
			}
			if err := tx.Create(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return domain.ErrUserAlreadyExists
				}
				return err
			}
			return nil
		case err != nil:
			return err
		case user.IsVerified:
			return domain.ErrUserAlreadyExists
		}

		if err := tx.Model(&user).Update("password", passwordHash).Error; err != nil {
			return err
		}
		if user.Profile == nil {
			user.Profile = &domain.UserProfile{UserID: user.ID}
		}
		if firstName != "" || lastName != "" {
			user.Profile.FirstName = firstName
			user.Profile.LastName = lastName
		}
		return tx.Save(user.Profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Profile").Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Profile").First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("password", passwordHash).Error
}

func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

// UpdateProfile overwrites the names; imageURL is left alone when nil.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string, imageURL *string) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(domain.UserProfile{UserID: userID}).FirstOrCreate(&profile).Error; err != nil {
			return err
		}
		updates := map[string]any{"first_name": firstName, "last_name": lastName}
		if imageURL != nil {
			updates["image_url"] = *imageURL
		}
		if err := tx.Model(&profile).Updates(updates).Error; err != nil {
			return err
		}
		profile.FirstName, profile.LastName = firstName, lastName
		if imageURL != nil {
			profile.ImageURL = *imageURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertAdmin creates a verified account with the given role or promotes an existing one.
func (r *UserRepository) UpsertAdmin(ctx context.Context, email, passwordHash string, role domain.Role) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = domain.User{
				Email:      email,
				Password:   passwordHash,
				Role:       role,
				IsVerified: true,
				Profile:    &domain.UserProfile{},
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.Password = passwordHash
		user.Role = role
		user.IsVerified = true
		return tx.Model(&user).Updates(map[string]any{
			"password":    passwordHash,
			"role":        role,
			"is_verified": true,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
