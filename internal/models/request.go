package models

type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "Open"
	RequestStatusAssigned   RequestStatus = "Assigned"
	RequestStatusInProgress RequestStatus = "InProgress"
	RequestStatusCompleted  RequestStatus = "Completed"
	RequestStatusCancelled  RequestStatus = "Cancelled"

	WorkflowStageAssigned = "ASSIGNED"
)

type MaintenanceRequest struct {
	ID                   string        `json:"id"`
	Title                string        `json:"title"`
	ServiceType          string        `json:"serviceType"`
	CategoryID           *string       `json:"categoryId,omitempty"`
	Location             *Coordinates  `json:"location,omitempty"`
	Status               RequestStatus `json:"status"`
	WorkflowStage        string        `json:"workflowStage,omitempty"`
	AssignedTechnicianID *string       `json:"assignedTechnicianId,omitempty"`
	Version              int64         `json:"version"`
}

func (r *MaintenanceRequest) IsAssigned() bool {
	return r.AssignedTechnicianID != nil && *r.AssignedTechnicianID != ""
}
