package models

const (
	EventComplaintCreated = "complaint.created"
	EventComplaintUpdated = "complaint.updated"
)

// FeedEvent is pushed to connected staff dashboards when a complaint changes.
type FeedEvent struct {
	Type        string `json:"type"`
	ComplaintID string `json:"complaint_id"`
	Status      string `json:"status"`
	AssignedTo  string `json:"assigned_to"`
	Actor       string `json:"actor,omitempty"`
	Time        string `json:"time"`
}
