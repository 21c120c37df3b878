package model

import (
	"time"

	gouuid "github.com/nu7hatch/gouuid"
)

// ActivityType defines what happened to the entity
type ActivityType string

const (
	ActivityType_Create ActivityType = "create"
	ActivityType_Update ActivityType = "update"
	ActivityType_Delete ActivityType = "delete"
)

func (t ActivityType) String() string {
	return string(t)
}

// ActivityCategory separates client self-service actions from staff actions
type ActivityCategory string

const (
	ActivityCategory_Client     ActivityCategory = "client"
	ActivityCategory_Management ActivityCategory = "management"
)

// ActivityLog is the audit trail row. Rows are written by the audit sink
// worker only and never updated.
type ActivityLog struct {
	ID         string           `sql:"type:uuid" gorm:"PRIMARY_KEY" json:"id"`
	UserID     uint64           `gorm:"column:user_id" json:"user_id"`
	Activity   string           `json:"activity"`
	IP         string           `gorm:"column:ip" json:"ip"`
	UserAgent  string           `gorm:"column:user_agent" json:"user_agent"`
	Endpoint   string           `json:"endpoint"`
	Type       ActivityType     `gorm:"column:activity_type" sql:"not null;type:activity_type_t" json:"activity_type"`
	Category   ActivityCategory `gorm:"column:activity_category" sql:"not null;type:activity_category_t" json:"activity_category"`
	StatusCode int              `gorm:"column:status_code" json:"status_code"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewActivityLog creates a new activity entry
func NewActivityLog(userID uint64, activity string, activityType ActivityType, category ActivityCategory, ip, userAgent, endpoint string, statusCode int) (*ActivityLog, error) {
	id, err := gouuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &ActivityLog{
		ID:         id.String(),
		UserID:     userID,
		Activity:   activity,
		IP:         ip,
		UserAgent:  userAgent,
		Endpoint:   endpoint,
		Type:       activityType,
		Category:   category,
		StatusCode: statusCode,
		CreatedAt:  time.Now(),
	}, nil
}

// ActivityLogList structure
type ActivityLogList struct {
	Activities []ActivityLog `json:"activities"`
	Meta       PagingMeta    `json:"meta"`
}
