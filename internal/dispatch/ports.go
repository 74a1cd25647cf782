package dispatch

import (
	"context"

	"technician-dispatch/internal/models"
)

// RequestStore reads maintenance requests and records assignments.
type RequestStore interface {
	// GetRequest returns ErrRequestNotFound when no such request exists.
	GetRequest(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	// CommitAssignment writes the assignment only if the request is still
	// unassigned at ExpectedVersion. It returns ErrAlreadyAssigned when it
	// lost the race, and ErrTechnicianUnavailable when Reserve is set and
	// the technician was taken meanwhile.
	CommitAssignment(ctx context.Context, a Assignment) error
}

type Assignment struct {
	RequestID       string
	TechnicianID    string
	ExpectedVersion int64
	// Reserve also marks the technician busy, provided its status is still
	// one of ReserveFrom.
	Reserve     bool
	ReserveFrom []models.TechnicianStatus
}

// DirectoryQuery lets the directory push the cheap eligibility predicates
// down to storage. The filter re-checks all of them.
type DirectoryQuery struct {
	Statuses  []models.TechnicianStatus
	MinRating float64
}

// TechnicianDirectory enumerates technicians in a stable order.
type TechnicianDirectory interface {
	ListAvailable(ctx context.Context, q DirectoryQuery) ([]models.Technician, error)
}

type ContactResolver interface {
	ResolveContact(ctx context.Context, technicianID string) (models.TechnicianContact, error)
}

// JobAlert is the "job nearby" message sent to each shortlisted technician.
type JobAlert struct {
	RequestID    string  `json:"requestId"`
	RequestTitle string  `json:"requestTitle"`
	ServiceType  string  `json:"serviceType"`
	DistanceKm   float64 `json:"distanceKm"`
	Rank         int     `json:"rank"`
	Assigned     bool    `json:"assigned"`
}

type ChannelResult struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// Notifier delivers an alert over every channel the contact supports. It
// returns an error only when no channel succeeded.
type Notifier interface {
	Notify(ctx context.Context, contact models.TechnicianContact, alert JobAlert) ([]ChannelResult, error)
}

// DecisionRecorder persists a record of each finished run.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, result *MatchResult) error
}
