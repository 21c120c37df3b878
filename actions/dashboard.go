package actions

import "github.com/gin-gonic/gin"

// GetDashboardStats godoc
//
// Counters behind the admin landing cards.
func (actions *Actions) GetDashboardStats(c *gin.Context) {
	stats, err := actions.service.GetDashboardStats()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, stats)
}
