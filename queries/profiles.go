package queries

import (
	"errors"

	"gorm.io/gorm"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrCommissionProfileNotFound = errors.New("COMMISSION_PROFILE_NOT_FOUND")

// GetCommissionProfile returns a profile by id
func (repo *Repo) GetCommissionProfile(id uint64) (*model.CommissionProfile, error) {
	profile := model.CommissionProfile{}
	db := repo.ConnReader.First(&profile, "id = ?", id)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrCommissionProfileNotFound
	}
	return &profile, db.Error
}

// CreateCommissionProfile inserts a profile, keeping the legacy scalar
// columns in sync with the dynamic level table.
func (repo *Repo) CreateCommissionProfile(profile *model.CommissionProfile) error {
	profile.SyncLegacyColumns()
	return repo.Conn.Table("commission_profiles").Create(profile).Error
}

// UpdateCommissionProfile saves profile changes
func (repo *Repo) UpdateCommissionProfile(profile *model.CommissionProfile) error {
	profile.SyncLegacyColumns()
	return repo.Conn.Table("commission_profiles").Save(profile).Error
}

// DeleteCommissionProfile removes a profile that no user references
func (repo *Repo) DeleteCommissionProfile(id uint64) error {
	var refs int64
	if err := repo.Conn.Table("users").Where("commission_profile_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return errors.New("COMMISSION_PROFILE_IN_USE")
	}
	return repo.Conn.Table("commission_profiles").Where("id = ?", id).Delete(&model.CommissionProfile{}).Error
}

// GetCommissionProfiles returns a page of profiles
func (repo *Repo) GetCommissionProfiles(limit, page int) (*model.CommissionProfileList, error) {
	profiles := make([]model.CommissionProfile, 0, limit)
	var rowCount int64

	q := repo.ConnReaderAdmin.Table("commission_profiles")
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("id ASC").Limit(limit).Offset((page - 1) * limit).Find(&profiles)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.CommissionProfileList{
		Profiles: profiles,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// GetProfileGroupOverride returns the per-group override of a profile,
// nil when the group has none.
func (repo *Repo) GetProfileGroupOverride(profileID uint64, groupName string) (*model.ProfileGroupOverride, error) {
	override := model.ProfileGroupOverride{}
	db := repo.ConnReader.First(&override, "profile_id = ? AND group_name = ?", profileID, groupName)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &override, db.Error
}

// SaveProfileGroupOverride upserts a per-group override
func (repo *Repo) SaveProfileGroupOverride(override *model.ProfileGroupOverride) error {
	existing := model.ProfileGroupOverride{}
	db := repo.Conn.First(&existing, "profile_id = ? AND group_name = ?", override.ProfileID, override.GroupName)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return repo.Conn.Table("profile_group_overrides").Create(override).Error
	}
	if db.Error != nil {
		return db.Error
	}
	override.ID = existing.ID
	return repo.Conn.Table("profile_group_overrides").Save(override).Error
}
