package service

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/queries"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// RegisterUser creates a client from a self-service signup. A referral code
// links the new user under the owning IB immediately.
func (service *Service) RegisterUser(request *model.RegistrationRequest) (*model.User, error) {
	if _, err := service.repo.GetUserByEmail(request.Email); err == nil {
		return nil, httputils.NewRequestError(http.StatusConflict, "Email already registered", nil)
	}

	user := model.NewUser(request.FirstName, request.LastName, request.Email, request.Phone, request.Password, model.RoleClient, request.Referral)
	if err := user.EncodePass(); err != nil {
		return nil, err
	}

	if request.Referral != "" {
		referrer, err := service.repo.GetUserByReferralCode(request.Referral)
		if err == nil && referrer.IsIB() {
			user.ParentIBID = &referrer.ID
		}
	}

	if err := service.repo.CreateUser(user); err != nil {
		return nil, err
	}
	service.audit.Record(audit.Event{
		UserID:   user.ID,
		Activity: fmt.Sprintf("Registered user %d", user.ID),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Client,
	})
	return user, nil
}

// CreateUserByStaff creates a user from the admin surface, recording who
// created it for manager scoping.
func (service *Service) CreateUserByStaff(staffID uint64, request *model.RegistrationRequest, role model.RoleAlias) (*model.User, error) {
	if !role.IsValid() {
		role = model.RoleClient
	}
	if _, err := service.repo.GetUserByEmail(request.Email); err == nil {
		return nil, httputils.NewRequestError(http.StatusConflict, "Email already registered", nil)
	}

	user := model.NewUser(request.FirstName, request.LastName, request.Email, request.Phone, request.Password, role, request.Referral)
	if err := user.EncodePass(); err != nil {
		return nil, err
	}
	user.CreatedByID = &staffID
	user.Status = model.UserStatusActive

	if err := service.repo.CreateUser(user); err != nil {
		return nil, err
	}
	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Created user %d with role %s", user.ID, role),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Management,
	})
	return user, nil
}

// GetUsersScoped lists users with manager scoping: a manager only sees the
// users they created or the users referred under them.
func (service *Service) GetUsersScoped(viewer *model.User, role model.RoleAlias, status, query string, limit, page int) (*model.UserList, error) {
	if viewer.RoleAlias == model.RoleAdmin {
		return service.repo.GetUsers(role, status, query, limit, page)
	}
	if viewer.RoleAlias != model.RoleManager {
		return nil, httputils.NewRequestError(http.StatusForbidden, "Staff access required", nil)
	}

	users := make([]model.User, 0, limit)
	var rowCount int64

	q := service.repo.ConnReaderAdmin.Table("users").
		Where("created_by_id = ? OR parent_ib_id = ?", viewer.ID, viewer.ID)
	if role != "" {
		q = q.Where("role_alias = ?", role)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?", pattern, pattern, pattern)
	}
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&users)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.UserList{
		Users: users,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// PromoteToIB turns a user into an introducing broker with the given
// commission profile, then links any users who already registered with the
// user's referral code.
func (service *Service) PromoteToIB(staffID, userID, profileID uint64) (*model.User, error) {
	user, err := service.repo.GetUserByID(userID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}
	if _, err := service.repo.GetCommissionProfile(profileID); err != nil {
		if err == queries.ErrCommissionProfileNotFound {
			return nil, httputils.NewRequestError(http.StatusNotFound, "Commission profile not found", err)
		}
		return nil, err
	}

	user.IBStatus = true
	user.CommissionProfileID = &profileID
	if err := service.repo.UpdateUser(user); err != nil {
		return nil, err
	}

	linked, err := service.repo.LinkReferralsForIB(user)
	if err != nil {
		// promotion stands; the linking pass can be re-run
		log.Error().Err(err).
			Str("section", "users").
			Str("action", "promote_ib").
			Uint64("user_id", user.ID).
			Msg("Unable to link existing referrals")
	} else if linked > 0 {
		log.Info().
			Str("section", "users").
			Str("action", "promote_ib").
			Uint64("user_id", user.ID).
			Int64("linked", linked).
			Msg("Linked existing referrals to new IB")
	}

	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Promoted user %d to IB with profile %d", userID, profileID),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	return user, nil
}

// GetUserWithEarnings loads a user together with the derived commission
// read model.
func (service *Service) GetUserWithEarnings(userID uint64) (*model.UserWithEarnings, error) {
	user, err := service.repo.GetUserByID(userID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}

	out := &model.UserWithEarnings{User: *user}

	earnings, err := service.repo.GetTotalEarnings(userID)
	if err != nil {
		return nil, err
	}
	withdrawals, err := service.repo.GetTotalCommissionWithdrawals(userID)
	if err != nil {
		return nil, err
	}
	out.TotalEarnings = model.NewJSONDecimalFromString(earnings)
	out.TotalWithdrawals = model.NewJSONDecimalFromString(withdrawals)

	var direct int64
	if err := service.repo.ConnReader.Table("users").Where("parent_ib_id = ?", userID).Count(&direct).Error; err != nil {
		return nil, err
	}
	out.DirectClients = int(direct)
	return out, nil
}
