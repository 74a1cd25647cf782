package models

const (
	NotificationTypeJobAssigned  = "technician_job_assigned"
	EntityTypeMaintenanceRequest = "maintenance_request"
)

// Notification is an in-app notification row. Timestamps are set by the
// database.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Type        string `json:"type"`
	EntityType  string `json:"entityType"`
	EntityID    string `json:"entityId"`
}

type NotificationTemplate struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
	SMS      string `json:"sms"`
}
