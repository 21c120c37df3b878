package service

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/vtindex/backoffice_api/model"
)

// notifyUser stores an in-app message for the cabinet. Best effort: a failed
// insert is logged and never blocks the action that triggered it.
func (service *Service) notifyUser(userID uint64, title, message string) {
	notification := &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := service.repo.CreateNotification(notification); err != nil {
		log.Error().Err(err).
			Str("section", "service").
			Str("action", "notify_user").
			Uint64("user_id", userID).
			Msg("Unable to store notification")
	}
}

// GetNotifications returns a page of the user's in-app messages
func (service *Service) GetNotifications(userID uint64, limit, page int) (*model.NotificationList, error) {
	return service.repo.GetNotifications(userID, limit, page)
}

// MarkNotificationRead flags one of the user's notifications as read. The
// owner filter makes marking someone else's notification a silent no-op.
func (service *Service) MarkNotificationRead(userID, notificationID uint64) error {
	return service.repo.MarkNotificationRead(userID, notificationID)
}
