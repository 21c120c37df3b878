package queries

import (
	"gitlab.com/vtindex/backoffice_api/model"
)

// CreateActivityLog appends one audit row. Called from the audit sink
// worker only.
func (repo *Repo) CreateActivityLog(activity *model.ActivityLog) error {
	return repo.Conn.Table("activity_logs").Create(activity).Error
}

// GetActivityLogs returns a filtered page of audit rows
func (repo *Repo) GetActivityLogs(userID uint64, category model.ActivityCategory, limit, page int) (*model.ActivityLogList, error) {
	activities := make([]model.ActivityLog, 0, limit)
	var rowCount int64

	q := repo.ConnReaderAdmin.Table("activity_logs")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if category != "" {
		q = q.Where("activity_category = ?", category)
	}
	if err := q.Count(&rowCount).Error; err != nil {
		return nil, err
	}
	db := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&activities)
	if db.Error != nil {
		return nil, db.Error
	}

	return &model.ActivityLogList{
		Activities: activities,
		Meta: model.PagingMeta{
			Page:  page,
			Count: rowCount,
			Limit: limit,
		},
	}, nil
}
