package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// LoginOTP is a short-lived one time password issued when a login arrives
// from an address the user has not signed in from before. Only the code hash
// is stored.
type LoginOTP struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"-"`
	UserID    uint64    `gorm:"column:user_id" json:"-"`
	CodeHash  string    `gorm:"column:code_hash" json:"-"`
	RemoteIP  string    `gorm:"column:remote_ip" json:"-"`
	Used      bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// HashOTPCode hashes a plain OTP code for storage and comparison
func HashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Matches compares a plain code against the stored hash in constant time
func (otp *LoginOTP) Matches(code string) bool {
	return hmac.Equal([]byte(otp.CodeHash), []byte(HashOTPCode(code)))
}

// ExpiredAt is true once the configured ttl has elapsed
func (otp *LoginOTP) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(otp.CreatedAt) > ttl
}

// KnownLoginIP is an address the user already completed a login from.
// Logins from known addresses skip the OTP challenge.
type KnownLoginIP struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"-"`
	UserID    uint64    `gorm:"column:user_id" json:"-"`
	RemoteIP  string    `gorm:"column:remote_ip" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// RefreshTokenBlacklist stores the jti of refresh tokens that were rotated
// or revoked before their natural expiry.
type RefreshTokenBlacklist struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"-"`
	TokenID   string    `gorm:"column:token_id;unique" json:"-"`
	UserID    uint64    `gorm:"column:user_id" json:"-"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"-"`
	CreatedAt time.Time `json:"-"`
}

// LoginRequest binds the login payload
type LoginRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
	OTPCode  string `form:"otp_code" json:"otp_code"`
}
