package queries

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/vtindex/backoffice_api/model"
)

var ErrOTPNotFound = errors.New("OTP_NOT_FOUND")

// CreateLoginOTP stores a freshly issued OTP, replacing any unused one for
// the same user so only the latest code is valid.
func (repo *Repo) CreateLoginOTP(otp *model.LoginOTP) error {
	if err := repo.Conn.Table("login_otps").
		Where("user_id = ? AND used = false", otp.UserID).
		Delete(&model.LoginOTP{}).Error; err != nil {
		return err
	}
	return repo.Conn.Table("login_otps").Create(otp).Error
}

// GetActiveLoginOTP returns the unused OTP of a user
func (repo *Repo) GetActiveLoginOTP(userID uint64) (*model.LoginOTP, error) {
	otp := model.LoginOTP{}
	db := repo.Conn.Table("login_otps").
		Where("user_id = ? AND used = false", userID).
		Order("created_at DESC").
		First(&otp)
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		return nil, ErrOTPNotFound
	}
	return &otp, db.Error
}

// ConsumeLoginOTP marks an OTP used
func (repo *Repo) ConsumeLoginOTP(otp *model.LoginOTP) error {
	return repo.Conn.Table("login_otps").
		Where("id = ?", otp.ID).
		Update("used", true).Error
}

// IsKnownLoginIP checks whether the user already signed in from this address
func (repo *Repo) IsKnownLoginIP(userID uint64, remoteIP string) (bool, error) {
	var count int64
	db := repo.ConnReader.Table("known_login_ips").
		Where("user_id = ? AND remote_ip = ?", userID, remoteIP).
		Count(&count)
	return count > 0, db.Error
}

// RememberLoginIP records a completed login address
func (repo *Repo) RememberLoginIP(userID uint64, remoteIP string) error {
	record := model.KnownLoginIP{
		UserID:    userID,
		RemoteIP:  remoteIP,
		CreatedAt: time.Now(),
	}
	return repo.Conn.Table("known_login_ips").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "remote_ip"}},
			DoNothing: true,
		}).
		Create(&record).Error
}

// BlacklistRefreshToken stores the jti of a rotated or revoked refresh token
func (repo *Repo) BlacklistRefreshToken(tokenID string, userID uint64, expiresAt time.Time) error {
	record := model.RefreshTokenBlacklist{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return repo.Conn.Table("refresh_token_blacklist").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoNothing: true,
		}).
		Create(&record).Error
}

// IsRefreshTokenBlacklisted checks a refresh token jti against the blacklist
func (repo *Repo) IsRefreshTokenBlacklisted(tokenID string) (bool, error) {
	var count int64
	db := repo.ConnReader.Table("refresh_token_blacklist").
		Where("token_id = ?", tokenID).
		Count(&count)
	return count > 0, db.Error
}

// PruneRefreshTokenBlacklist drops entries whose natural expiry has passed
func (repo *Repo) PruneRefreshTokenBlacklist() (int64, error) {
	db := repo.Conn.Table("refresh_token_blacklist").
		Where("expires_at < ?", time.Now()).
		Delete(&model.RefreshTokenBlacklist{})
	return db.RowsAffected, db.Error
}
