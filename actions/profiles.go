package actions

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"gitlab.com/vtindex/backoffice_api/model"
)

// GetCommissionProfiles godoc
func (actions *Actions) GetCommissionProfiles(c *gin.Context) {
	page, limit := getPagination(c)
	profiles, err := actions.service.GetCommissionProfiles(limit, page)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, profiles)
}

// CreateCommissionProfile godoc
func (actions *Actions) CreateCommissionProfile(c *gin.Context) {
	staffID, _ := getUserID(c)

	var request model.CommissionProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithError(c, ValidationFailed, "Profile name and level table are required")
		return
	}

	profile := &model.CommissionProfile{
		Name:               request.Name,
		UsePercentageBased: request.UsePercentageBased,
		DynamicLevels:      request.DynamicLevels,
		ApprovedGroups:     pq.StringArray(request.ApprovedGroups),
	}
	profile, err := actions.service.CreateCommissionProfile(staffID, profile)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(Created, profile)
}

// UpdateCommissionProfile godoc
func (actions *Actions) UpdateCommissionProfile(c *gin.Context) {
	staffID, _ := getUserID(c)
	profileID, err := strconv.ParseUint(c.Param("profile_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid profile id")
		return
	}

	var request model.CommissionProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithError(c, ValidationFailed, "Profile name and level table are required")
		return
	}

	profile := &model.CommissionProfile{
		ID:                 profileID,
		Name:               request.Name,
		UsePercentageBased: request.UsePercentageBased,
		DynamicLevels:      request.DynamicLevels,
		ApprovedGroups:     pq.StringArray(request.ApprovedGroups),
	}
	profile, err = actions.service.UpdateCommissionProfile(staffID, profile)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, profile)
}

// DeleteCommissionProfile godoc
func (actions *Actions) DeleteCommissionProfile(c *gin.Context) {
	staffID, _ := getUserID(c)
	profileID, err := strconv.ParseUint(c.Param("profile_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid profile id")
		return
	}

	if err := actions.service.DeleteCommissionProfile(staffID, profileID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, map[string]string{"message": "Commission profile deleted"})
}

// SaveProfileGroupOverride godoc
//
// Upserts the per-group amount table of a profile.
func (actions *Actions) SaveProfileGroupOverride(c *gin.Context) {
	staffID, _ := getUserID(c)
	profileID, err := strconv.ParseUint(c.Param("profile_id"), 10, 64)
	if err != nil {
		abortWithError(c, BadRequest, "Invalid profile id")
		return
	}

	var override model.ProfileGroupOverride
	if err := c.ShouldBindJSON(&override); err != nil {
		abortWithError(c, ValidationFailed, "Group name and amounts are required")
		return
	}
	override.ProfileID = profileID
	if override.GroupName == "" {
		abortWithError(c, ValidationFailed, "Group name and amounts are required")
		return
	}

	if err := actions.service.SaveProfileGroupOverride(staffID, &override); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(OK, override)
}
