package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/auth"
	userDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "role", "password_hash").
		Where("LOWER(email) = ?", email).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		Email:        u.Email,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "role", "pan_card_number").
		First(&u, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.User{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		PANCardNumber: u.PANCardNumber,
	}, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
}
