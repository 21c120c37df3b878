package queries

import (
	"gitlab.com/vtindex/backoffice_api/model"
)

// CreateNotification inserts an in-app notification
func (repo *Repo) CreateNotification(notification *model.Notification) error {
	return repo.Conn.Table("notifications").Create(notification).Error
}

// GetNotifications returns a page of a user's notifications
func (repo *Repo) GetNotifications(userID uint64, limit, page int) (*model.NotificationList, error) {
	notifications := make([]model.Notification, 0, limit)
	var rowCount int64

	q := repo.ConnReader.Table("notifications").Where("user_id = ?", userID)
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&notifications)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.NotificationList{
		Notifications: notifications,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}

// MarkNotificationRead flags one notification read for its owner
func (repo *Repo) MarkNotificationRead(userID uint64, id uint64) error {
	return repo.Conn.Table("notifications").
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}
