package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"gitlab.com/vtindex/backoffice_api/model"
)

// GetActivityLogs godoc
//
// Audit trail listing, filterable by user and category.
func (actions *Actions) GetActivityLogs(c *gin.Context) {
	page, limit := getPagination(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	category := model.ActivityCategory(c.Query("category"))

	logs, err := actions.service.GetRepo().GetActivityLogs(userID, category, limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, logs)
}

// GetUserKycDocuments godoc
//
// Uploaded documents of one user, for the review screen.
func (actions *Actions) GetUserKycDocuments(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "User id is required")
		return
	}

	docs, err := actions.service.GetRepo().GetKycDocuments(userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, docs)
}
