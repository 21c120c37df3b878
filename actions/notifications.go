package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetNotifications godoc
func (actions *Actions) GetNotifications(c *gin.Context) {
	userID, _ := getUserID(c)
	page, limit := getPagination(c)

	notifications, err := actions.service.GetNotifications(userID, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, notifications)
}

// MarkNotificationRead godoc
func (actions *Actions) MarkNotificationRead(c *gin.Context) {
	userID, _ := getUserID(c)
	notificationID, err := strconv.ParseUint(c.Param("notification_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid notification id")
		return
	}

	if err := actions.service.MarkNotificationRead(userID, notificationID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, map[string]string{"message": "Notification marked as read"})
}
