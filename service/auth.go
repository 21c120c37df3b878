package service

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// AuthenticateUser checks a password login. The error message never reveals
// whether the email exists.
func (service *Service) AuthenticateUser(email, password string) (*model.User, error) {
	user, err := service.repo.GetUserByEmail(email)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusUnauthorized, "Invalid email or password", err)
	}
	if !user.ValidatePass(password) {
		return nil, httputils.NewRequestError(http.StatusUnauthorized, "Invalid email or password", nil)
	}
	if user.Status == model.UserStatusBlocked || user.Status == model.UserStatusRemoved {
		return nil, httputils.NewRequestError(http.StatusForbidden, "Account is not active", nil)
	}
	return user, nil
}

// IsKnownLoginIP reports whether the user already completed a login from the
// address. Unknown addresses trigger the OTP challenge.
func (service *Service) IsKnownLoginIP(userID uint64, remoteIP string) (bool, error) {
	return service.repo.IsKnownLoginIP(userID, remoteIP)
}

// CompleteLogin records the address and audits the sign in. On a new address
// the user also gets a notice email.
func (service *Service) CompleteLogin(user *model.User, remoteIP, userAgent string, newIP bool) {
	if err := service.repo.RememberLoginIP(user.ID, remoteIP); err != nil {
		// next login from this address repeats the OTP challenge
		log.Warn().Err(err).
			Str("section", "auth").
			Str("action", "complete_login").
			Uint64("user_id", user.ID).
			Msg("Unable to remember login address")
	}
	if newIP {
		service.SendLoginNoticeEmail(user, remoteIP, userAgent)
	}
	service.audit.Record(audit.Event{
		UserID:    user.ID,
		Activity:  fmt.Sprintf("Signed in from %s", remoteIP),
		Type:      model.ActivityType_Create,
		Category:  model.ActivityCategory_Client,
		IP:        remoteIP,
		UserAgent: userAgent,
	})
}
