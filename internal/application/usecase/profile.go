package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
)

type ProfileUseCase struct {
	users     *repository.UserRepository
	access    *repository.AccessRepository
	purchases *repository.PurchaseRepository
}

func NewProfileUseCase(users *repository.UserRepository, access *repository.AccessRepository, purchases *repository.PurchaseRepository) *ProfileUseCase {
	return &ProfileUseCase{users: users, access: access, purchases: purchases}
}

type ProfileView struct {
	*domain.User
	Accesses  []domain.UserCourseAccess `json:"accesses"`
	Purchases []domain.PurchaseHistory  `json:"purchases"`
}

func (uc *ProfileUseCase) Get(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	accesses, err := uc.access.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchases, err := uc.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Accesses: accesses, Purchases: purchases}, nil
}

type ProfileInput struct {
	FirstName string
	LastName  string
	ImageURL  *string
}

func (uc *ProfileUseCase) Update(ctx context.Context, userID uuid.UUID, in ProfileInput) (*domain.UserProfile, error) {
	return uc.users.UpdateProfile(ctx, userID, in.FirstName, in.LastName, in.ImageURL)
}
