package service

import (
	"net/http"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
)

// GetReferrals returns the direct referrals of an IB with their earnings
// contribution.
func (service *Service) GetReferrals(ibUserID uint64, limit, page int) (*model.UserList, error) {
	ib, err := service.repo.GetUserByID(ibUserID)
	if err != nil {
		return nil, httputils.NewRequestError(http.StatusNotFound, "User not found", err)
	}
	if !ib.IBStatus {
		return nil, httputils.NewRequestError(http.StatusForbidden, "User is not an introducing broker", nil)
	}
	return service.repo.GetReferredUsers(ibUserID, limit, page)
}

// GetIBEarnings returns the derived earnings read model for an IB
func (service *Service) GetIBEarnings(ibUserID uint64) (map[string]string, error) {
	earnings, err := service.repo.GetTotalEarnings(ibUserID)
	if err != nil {
		return nil, err
	}
	withdrawals, err := service.repo.GetTotalCommissionWithdrawals(ibUserID)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"total_earnings":              earnings,
		"total_commission_withdrawals": withdrawals,
	}, nil
}
