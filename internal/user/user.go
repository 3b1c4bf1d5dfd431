package user

import (
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/user"
)

const (
	RoleCitizen = "citizen"
	RoleAdmin   = "admin"
)

type User struct {
	ID            int64      `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	PhoneNumber   string     `json:"phoneNumber"`
	PANCardNumber string     `json:"panCardNumber"`
	Role          string     `json:"role"`
	IsVerified    bool       `json:"isVerified"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CampaignIDs   []int64    `json:"campaigns"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Validate() error {
	v := validation.NewValidator()
	v.Field("firstName", u.FirstName).Required().MaxLength(100)
	v.Field("email", u.Email).Required().MaxLength(255)
	v.Field("panCardNumber", u.PANCardNumber).Required().PAN()
	if u.Role != "" {
		v.Field("role", u.Role).OneOf(internal.ErrCodeValidationFailed, RoleCitizen, RoleAdmin)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		PhoneNumber:   u.PhoneNumber,
		PANCardNumber: validation.NormalizePAN(u.PANCardNumber),
		Role:          u.Role,
		IsVerified:    u.IsVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		PhoneNumber:   u.PhoneNumber,
		PANCardNumber: u.PANCardNumber,
		Role:          u.Role,
		IsVerified:    u.IsVerified,
		LastLogin:     u.LastLogin,
		CampaignIDs:   []int64{},
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
