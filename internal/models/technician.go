package models

type TechnicianStatus string

const (
	TechnicianOnline    TechnicianStatus = "online"
	TechnicianAvailable TechnicianStatus = "available"
	TechnicianOffline   TechnicianStatus = "offline"
	TechnicianBusy      TechnicianStatus = "busy"
	TechnicianOnBreak   TechnicianStatus = "on_break"
)

// Tier is the technician's performance level, worst to best:
// certified, bronze, silver, gold, platinum, top_rated.
type Tier string

const (
	TierCertified Tier = "certified"
	TierBronze    Tier = "bronze"
	TierSilver    Tier = "silver"
	TierGold      Tier = "gold"
	TierPlatinum  Tier = "platinum"
	TierTopRated  Tier = "top_rated"
)

type Technician struct {
	ID                  string           `json:"id" validate:"required"`
	Name                string           `json:"name"`
	Specialization      string           `json:"specialization"`
	Rating              float64          `json:"rating" validate:"gte=0,lte=5"`
	TotalReviews        int              `json:"totalReviews" validate:"gte=0"`
	Status              TechnicianStatus `json:"status"`
	IsActive            bool             `json:"isActive"`
	IsVerified          bool             `json:"isVerified"`
	Location            *Coordinates     `json:"location,omitempty" validate:"omitempty"`
	ServiceAreaRadiusKm float64          `json:"serviceAreaRadiusKm" validate:"gte=0"`
	Level               Tier             `json:"level"`
	ProfileID           *string          `json:"profileId,omitempty"`
}

func (t *Technician) Validate() error {
	return validate.Struct(t)
}

// TechnicianContact is where alerts for a technician are delivered.
// HasProfile is false when the technician has no linked profile, in which
// case only an in-app notification addressed to the technician id is possible.
// A linked profile without a user keeps email and SMS.
type TechnicianContact struct {
	TechnicianID string `json:"technicianId"`
	UserID       string `json:"userId,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	HasProfile   bool   `json:"hasProfile"`
}

// RecipientID is the id in-app notifications are addressed to.
func (c TechnicianContact) RecipientID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.TechnicianID
}
