package model

import "time"

// Notification is a short in-app message shown in the client cabinet
type Notification struct {
	ID        uint64    `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID    uint64    `gorm:"column:user_id" json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationList structure
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Meta          PagingMeta     `json:"meta"`
}
