package service

import (
	"time"

	"gitlab.com/vtindex/backoffice_api/model"
)

// DashboardStats are the counts behind the admin landing cards
type DashboardStats struct {
	TotalUsers          int64            `json:"total_users"`
	ActiveIBs           int64            `json:"active_ibs"`
	PendingTransactions map[string]int64 `json:"pending_transactions"`
	PendingKycDocuments int64            `json:"pending_kyc_documents"`
	CommissionsToday    string           `json:"commissions_today"`
}

// GetDashboardStats computes the admin dashboard counters
func (service *Service) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	if err := service.repo.ConnReaderAdmin.Table("users").
		Where("status <> ?", model.UserStatusRemoved).
		Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := service.repo.ConnReaderAdmin.Table("users").
		Where("ib_status = true AND commission_profile_id IS NOT NULL").
		Count(&stats.ActiveIBs).Error; err != nil {
		return nil, err
	}

	pending, err := service.repo.CountPendingTransactions()
	if err != nil {
		return nil, err
	}
	stats.PendingTransactions = pending

	if err := service.repo.ConnReaderAdmin.Table("kyc_documents").
		Where("status = ?", model.KycDocumentStatusUploaded).
		Count(&stats.PendingKycDocuments).Error; err != nil {
		return nil, err
	}

	commissions, err := service.CommissionsSince(time.Now().UTC().Truncate(24 * time.Hour))
	if err != nil {
		return nil, err
	}
	stats.CommissionsToday = commissions
	return stats, nil
}

// CommissionsSince sums the commission ledger from the given moment
func (service *Service) CommissionsSince(since time.Time) (string, error) {
	var total string
	row := service.repo.ConnReaderAdmin.Table("commission_transactions").
		Select("COALESCE(SUM(commission_to_ib), 0)").
		Where("created_at >= ?", since).
		Row()
	err := row.Scan(&total)
	return total, err
}
