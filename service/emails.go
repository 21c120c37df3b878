package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/model"
)

// notifyTransactionResolved emails the user about the terminal status of
// their transaction. Best effort; a delivery failure never fails the
// approval.
func (service *Service) notifyTransactionResolved(user *model.User, tx *model.Transaction) {
	template := "transaction_approved"
	if tx.Status == model.TransactionStatus_Rejected {
		template = "transaction_rejected"
	}
	err := service.sendgrid.SendEmail(user.Email, "en", template, map[string]string{
		"name":             user.FullName(),
		"transaction_type": tx.Type.String(),
		"amount":           tx.Amount.V.String(),
		"comment":          tx.AdminComment,
		"date":             time.Now().UTC().Format(time.RFC822),
	})
	if err != nil {
		log.Warn().Err(err).
			Str("section", "emails").
			Str("action", "transaction_resolved").
			Str("transaction_id", tx.ID).
			Msg("Unable to send transaction email")
	}
}

// sendCompensationAlert notifies the operations inbox that a transfer needs
// a manual re-credit.
func (service *Service) sendCompensationAlert(tx *model.Transaction) {
	recipients := service.cfg.Emails
	if len(recipients) == 0 {
		return
	}
	vars := map[string]string{
		"transaction_id": tx.ID,
		"from_account":   tx.FromAccount,
		"to_account":     tx.ToAccount,
		"amount":         tx.Amount.V.String(),
	}
	sent, failed := service.sendgrid.SendBatch(recipients, "en", "transfer_compensation_alert", vars)
	if failed > 0 {
		log.Error().
			Str("section", "emails").
			Str("action", "compensation_alert").
			Str("transaction_id", tx.ID).
			Int("sent", sent).
			Int("failed", failed).
			Msg("Unable to reach every operations recipient")
	}
}

// SendLoginOTPEmail delivers the one time password for a new-IP login
func (service *Service) SendLoginOTPEmail(user *model.User, code, remoteIP string) error {
	return service.sendgrid.SendEmail(user.Email, "en", "login_otp", map[string]string{
		"name": user.FullName(),
		"code": code,
		"ip":   remoteIP,
		"date": time.Now().UTC().Format(time.RFC822),
	})
}

// SendLoginNoticeEmail tells the user a login happened
func (service *Service) SendLoginNoticeEmail(user *model.User, remoteIP, userAgent string) {
	err := service.sendgrid.SendEmail(user.Email, "en", "login_notice", map[string]string{
		"name":       user.FullName(),
		"email":      user.Email,
		"ip":         remoteIP,
		"user_agent": userAgent,
		"date":       time.Now().UTC().Format(time.RFC822),
	})
	if err != nil {
		log.Warn().Err(err).
			Str("section", "emails").
			Str("action", "login_notice").
			Uint64("user_id", user.ID).
			Msg("Unable to send login notice")
	}
}

// SendKycReviewedEmail tells the user a document was approved or rejected
func (service *Service) SendKycReviewedEmail(user *model.User, kind model.KycDocumentKind, status model.KycDocumentStatus) {
	err := service.sendgrid.SendEmail(user.Email, "en", "kyc_reviewed", map[string]string{
		"name":     user.FullName(),
		"document": string(kind),
		"status":   status.String(),
	})
	if err != nil {
		log.Warn().Err(err).
			Str("section", "emails").
			Str("action", "kyc_reviewed").
			Uint64("user_id", user.ID).
			Msg("Unable to send KYC email")
	}
}

// SendDailySummaryEmail delivers the scheduled operations report
func (service *Service) SendDailySummaryEmail(pending map[string]int64, commissionsToday string) {
	recipient := service.cfg.Server.Reports.Email
	if recipient == "" {
		return
	}
	vars := map[string]string{
		"date":              time.Now().UTC().Format("2006-01-02"),
		"commissions_today": commissionsToday,
	}
	for txType, count := range pending {
		vars["pending_"+txType] = fmt.Sprintf("%d", count)
	}
	if err := service.sendgrid.SendEmail(recipient, "en", "daily_summary", vars); err != nil {
		log.Warn().Err(err).
			Str("section", "emails").
			Str("action", "daily_summary").
			Msg("Unable to send daily summary")
	}
}
