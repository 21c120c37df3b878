package model

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// UserStatus defined the list of possible user statuses
type UserStatus string

const (
	// UserStatusPending when user is newly created and email address is not verified
	UserStatusPending UserStatus = "pending"
	// UserStatusActive when user is active in the system
	UserStatusActive UserStatus = "active"
	// UserStatusBlocked when user is blocked by the admin
	UserStatusBlocked UserStatus = "blocked"
	// UserStatusRemoved when user is removed by the admin
	UserStatusRemoved UserStatus = "removed"
)

func (u UserStatus) String() string {
	return string(u)
}

// User structure
//
// User ids are allocated from a sequence starting at 7000000 so MT5 logins
// and back-office ids never collide in support tooling.
type User struct {
	ID uint64 `sql:"type: bigint" gorm:"primary_key" json:"id"`

	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     string     `gorm:"unique;" json:"email"`
	Phone     string     `json:"phone"`
	Password  string     `gorm:"not null" json:"-"`
	RoleAlias RoleAlias  `gorm:"column:role_alias" json:"role_alias"`
	Status    UserStatus `sql:"not null;type:user_status_t" json:"status"`

	// IB hierarchy. ParentIBID points at the introducing broker that referred
	// this user; chains are finite because a parent always predates its
	// children and never points back down.
	IBStatus            bool    `gorm:"column:ib_status" json:"ib_status"`
	ParentIBID          *uint64 `gorm:"column:parent_ib_id" json:"parent_ib_id"`
	CommissionProfileID *uint64 `gorm:"column:commission_profile_id" json:"commission_profile_id"`
	ReferralCode        string  `gorm:"column:referral_code" json:"referral_code"`
	ReferralCodeUsed    string  `gorm:"column:referral_code_used" json:"referral_code_used"`

	IdentityDocStatus  KycDocumentStatus `gorm:"column:identity_doc_status" sql:"type:kyc_doc_status_t" json:"identity_doc_status"`
	ResidenceDocStatus KycDocumentStatus `gorm:"column:residence_doc_status" sql:"type:kyc_doc_status_t" json:"residence_doc_status"`

	CreatedByID *uint64 `gorm:"column:created_by_id" json:"created_by_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new user structure
func NewUser(firstName, lastName, email, phone, pass string, role RoleAlias, referralCodeUsed string) *User {
	return &User{
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
		Phone:              phone,
		Password:           pass,
		RoleAlias:          role,
		Status:             UserStatusPending,
		ReferralCode:       randSeq(8),
		ReferralCodeUsed:   referralCodeUsed,
		IdentityDocStatus:  KycDocumentStatusNotUploaded,
		ResidenceDocStatus: KycDocumentStatusNotUploaded,
	}
}

// EncodePass encode the password
func (user *User) EncodePass() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return nil
}

// ValidatePass check if the given password matches the user
func (user *User) ValidatePass(pass string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)); err != nil {
		return false
	}
	return true
}

// Verified is true once both KYC documents were approved by the staff.
// Withdrawal approvals are gated on this.
func (user *User) Verified() bool {
	return user.IdentityDocStatus == KycDocumentStatusApproved &&
		user.ResidenceDocStatus == KycDocumentStatusApproved
}

// IsIB reports whether the user currently earns commissions. An IB without a
// commission profile is treated as inactive.
func (user *User) IsIB() bool {
	return user.IBStatus && user.CommissionProfileID != nil
}

func (user *User) FullName() string {
	return fmt.Sprintf("%s %s", user.FirstName, user.LastName)
}

// GetUserStatusFromString -
func GetUserStatusFromString(s string) (UserStatus, error) {
	switch s {
	case "pending":
		return UserStatusPending, nil
	case "active":
		return UserStatusActive, nil
	case "blocked":
		return UserStatusBlocked, nil
	case "removed":
		return UserStatusRemoved, nil
	default:
		return UserStatusPending, errors.New("Status is not valid")
	}
}

// UserList structure
type UserList struct {
	Users []User     `json:"users"`
	Meta  PagingMeta `json:"meta"`
}

// UserWithEarnings carries the derived commission read model for an IB
type UserWithEarnings struct {
	User
	TotalEarnings         JSONDecimal `gorm:"column:total_earnings" json:"total_earnings"`
	TotalWithdrawals      JSONDecimal `gorm:"column:total_withdrawals" json:"total_withdrawals"`
	DirectClients         int         `gorm:"column:direct_clients" json:"direct_clients"`
	CommissionsThisPeriod JSONDecimal `gorm:"column:commissions_this_period" json:"commissions_this_period"`
}

type RegistrationRequest struct {
	FirstName string `form:"first_name" json:"first_name" binding:"required"`
	LastName  string `form:"last_name" json:"last_name" binding:"required"`
	Email     string `form:"email" json:"email" binding:"required"`
	Phone     string `form:"phone" json:"phone"`
	Password  string `form:"password" json:"password" binding:"required"`
	Referral  string `form:"referral" json:"referral"`
}
