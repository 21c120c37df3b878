package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/queries"
)

// IssueLoginOTP creates a 6 digit one time password for a new-IP login and
// emails it. Only the hash is stored.
func (service *Service) IssueLoginOTP(user *model.User, remoteIP string) error {
	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	otp := &model.LoginOTP{
		UserID:    user.ID,
		CodeHash:  model.HashOTPCode(code),
		RemoteIP:  remoteIP,
		CreatedAt: time.Now(),
	}
	if err := service.repo.CreateLoginOTP(otp); err != nil {
		return err
	}
	return service.SendLoginOTPEmail(user, code, remoteIP)
}

// VerifyLoginOTP checks the submitted code against the stored hash and the
// configured TTL, consuming the code on success.
func (service *Service) VerifyLoginOTP(user *model.User, code string) error {
	otp, err := service.repo.GetActiveLoginOTP(user.ID)
	if err != nil {
		if err == queries.ErrOTPNotFound {
			return httputils.NewRequestError(http.StatusUnauthorized, "Verification code expired or missing", err)
		}
		return err
	}

	ttl := time.Duration(service.cfg.Server.API.LoginOTPTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	if otp.ExpiredAt(time.Now(), ttl) {
		return httputils.NewRequestError(http.StatusUnauthorized, "Verification code expired", nil)
	}
	if !otp.Matches(code) {
		return httputils.NewRequestError(http.StatusUnauthorized, "Verification code does not match", nil)
	}
	return service.repo.ConsumeLoginOTP(otp)
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
