package dispatch

import (
	"technician-dispatch/internal/models"
)

// kmEast returns a point roughly km kilometres east of the origin, on the
// equator.
func kmEast(km float64) *models.Coordinates {
	return &models.Coordinates{Latitude: 0, Longitude: km / 111.19492664455873}
}

func newRequest() *models.MaintenanceRequest {
	return &models.MaintenanceRequest{
		ID:          "req-1",
		Title:       "Leaking pipe",
		ServiceType: "plumbing",
		Location:    &models.Coordinates{},
		Status:      models.RequestStatusOpen,
		Version:     3,
	}
}

func newTechnician(id string, km float64) models.Technician {
	return models.Technician{
		ID:                  id,
		Name:                "Tech " + id,
		Specialization:      "electrical",
		Rating:              4.5,
		TotalReviews:        10,
		Status:              models.TechnicianOnline,
		IsActive:            true,
		IsVerified:          true,
		Location:            kmEast(km),
		ServiceAreaRadiusKm: 30,
		Level:               models.TierSilver,
	}
}
