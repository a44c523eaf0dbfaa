package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Email      string       `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password   string       `gorm:"not null" json:"-"`
	Role       Role         `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	IsVerified bool         `gorm:"not null;default:false" json:"isVerified"`
	Profile    *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type UserProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	FirstName string    `gorm:"size:100" json:"firstName"`
	LastName  string    `gorm:"size:100" json:"lastName"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *UserProfile) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DisplayName is empty when the profile has no names yet.
func (p *UserProfile) DisplayName() string {
	if p == nil {
		return ""
	}
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       uuid.UUID
	Email    string
	Role     Role
	Verified bool
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role.IsAdmin()
}

func (User) TableName() string        { return "users" }
func (UserProfile) TableName() string { return "user_profiles" }
