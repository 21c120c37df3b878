package service

import (
	"fmt"
	"net/http"

	"gitlab.com/vtindex/backoffice_api/lib/httputils"
	"gitlab.com/vtindex/backoffice_api/model"
	"gitlab.com/vtindex/backoffice_api/queries"
	"gitlab.com/vtindex/backoffice_api/service/audit"
)

// GetCommissionProfiles returns a page of profiles
func (service *Service) GetCommissionProfiles(limit, page int) (*model.CommissionProfileList, error) {
	return service.repo.GetCommissionProfiles(limit, page)
}

// CreateCommissionProfile validates and stores a new profile
func (service *Service) CreateCommissionProfile(staffID uint64, profile *model.CommissionProfile) (*model.CommissionProfile, error) {
	if err := profile.Validate(); err != nil {
		return nil, httputils.NewRequestError(http.StatusBadRequest, err.Error(), err)
	}
	if err := service.repo.CreateCommissionProfile(profile); err != nil {
		return nil, err
	}
	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Created commission profile %d (%s)", profile.ID, profile.Name),
		Type:     model.ActivityType_Create,
		Category: model.ActivityCategory_Management,
	})
	return profile, nil
}

// UpdateCommissionProfile validates and saves profile changes
func (service *Service) UpdateCommissionProfile(staffID uint64, profile *model.CommissionProfile) (*model.CommissionProfile, error) {
	if _, err := service.repo.GetCommissionProfile(profile.ID); err != nil {
		if err == queries.ErrCommissionProfileNotFound {
			return nil, httputils.NewRequestError(http.StatusNotFound, "Commission profile not found", err)
		}
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, httputils.NewRequestError(http.StatusBadRequest, err.Error(), err)
	}
	if err := service.repo.UpdateCommissionProfile(profile); err != nil {
		return nil, err
	}
	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Updated commission profile %d (%s)", profile.ID, profile.Name),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	return profile, nil
}

// DeleteCommissionProfile removes an unreferenced profile. A profile still
// assigned to an IB answers conflict.
func (service *Service) DeleteCommissionProfile(staffID, id uint64) error {
	if _, err := service.repo.GetCommissionProfile(id); err != nil {
		if err == queries.ErrCommissionProfileNotFound {
			return httputils.NewRequestError(http.StatusNotFound, "Commission profile not found", err)
		}
		return err
	}
	if err := service.repo.DeleteCommissionProfile(id); err != nil {
		if err.Error() == "COMMISSION_PROFILE_IN_USE" {
			return httputils.NewRequestError(http.StatusConflict, "Commission profile is assigned to users", err)
		}
		return err
	}
	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Deleted commission profile %d", id),
		Type:     model.ActivityType_Delete,
		Category: model.ActivityCategory_Management,
	})
	return nil
}

// SaveProfileGroupOverride upserts a per-group amount table on a profile
func (service *Service) SaveProfileGroupOverride(staffID uint64, override *model.ProfileGroupOverride) error {
	if _, err := service.repo.GetCommissionProfile(override.ProfileID); err != nil {
		if err == queries.ErrCommissionProfileNotFound {
			return httputils.NewRequestError(http.StatusNotFound, "Commission profile not found", err)
		}
		return err
	}
	if err := service.repo.SaveProfileGroupOverride(override); err != nil {
		return err
	}
	service.audit.Record(audit.Event{
		UserID:   staffID,
		Activity: fmt.Sprintf("Saved group override %s on profile %d", override.GroupName, override.ProfileID),
		Type:     model.ActivityType_Update,
		Category: model.ActivityCategory_Management,
	})
	return nil
}
