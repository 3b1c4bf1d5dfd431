package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/campaign-management/internal"
	campaignDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/campaign"
	userDatamodel "github.com/frahmantamala/campaign-management/internal/core/datamodel/user"
	"github.com/frahmantamala/campaign-management/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	var u userDatamodel.User
	if err := r.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

// FindByPANs performs one IN lookup over pan_card_number.
func (r *UserRepository) FindByPANs(ctx context.Context, pans []string) ([]*user.User, error) {
	if len(pans) == 0 {
		return []*user.User{}, nil
	}

	var rows []userDatamodel.User
	if err := r.db.WithContext(ctx).
		Select("id", "pan_card_number").
		Where("pan_card_number IN ?", pans).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, len(rows))
	for i := range rows {
		users[i] = user.FromDataModel(&rows[i])
	}
	return users, nil
}

func (r *UserRepository) GetCampaignIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	if err := r.db.WithContext(ctx).
		Model(&campaignDatamodel.UserCampaign{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	u.ID = row.ID
	u.PANCardNumber = row.PANCardNumber
	u.Role = row.Role
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}
