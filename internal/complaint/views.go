package complaint

import (
	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/models"
)

// Submission is a citizen's complaint as received from the intake form.
type Submission struct {
	FullName            string
	Email               string
	Mobile              string
	Latitude            string
	Longitude           string
	LocationDescription string
	Image               []byte
}

// UpdateRequest carries a staff edit. Nil or empty fields are left alone.
type UpdateRequest struct {
	Status     *string
	AssignedTo *string
	Actor      string
}

// UpdateResult reports the outcome of Update.
type UpdateResult struct {
	ComplaintID string
	UpdatedBy   string
	Changed     bool
	Complaint   models.Complaint
}

// ComplaintView is the staff-facing projection of a complaint. The stored
// image path is replaced by Media.ImageURL.
type ComplaintView struct {
	ComplaintID         string   `json:"complaint_id"`
	FullName            string   `json:"full_name"`
	Email               string   `json:"email"`
	Mobile              string   `json:"mobile"`
	Latitude            string   `json:"latitude"`
	Longitude           string   `json:"longitude"`
	LocationDescription string   `json:"location_description"`
	Timestamp           string   `json:"timestamp"`
	Status              string   `json:"status"`
	AssignedTo          string   `json:"assigned_to"`
	AssignedBy          string   `json:"assigned_by"`
	AssignedAt          string   `json:"assigned_at"`
	LastUpdated         string   `json:"last_updated"`
	ActivityLog         []string `json:"activity_log"`
}

type Media struct {
	ImageURL string `json:"image_url"`
}

type Workflow struct {
	AllowedStatus    []string `json:"allowed_status"`
	AllowedAssignees []string `json:"allowed_assignees"`
}

// Detail is returned by Get.
type Detail struct {
	Complaint ComplaintView `json:"complaint"`
	Media     Media         `json:"media"`
	Workflow  Workflow      `json:"workflow"`
}

// ImageURL is the retrieval path for a complaint's photo.
func ImageURL(id string) string {
	return "/authority/complaint/" + id + "/image"
}

func newDetail(c *models.Complaint) *Detail {
	log := []string(c.ActivityLog)
	if log == nil {
		log = []string{}
	}
	return &Detail{
		Complaint: ComplaintView{
			ComplaintID:         c.ComplaintID,
			FullName:            c.FullName,
			Email:               c.Email,
			Mobile:              c.Mobile,
			Latitude:            c.Latitude,
			Longitude:           c.Longitude,
			LocationDescription: c.LocationDescription,
			Timestamp:           c.Timestamp,
			Status:              c.Status,
			AssignedTo:          c.AssignedTo,
			AssignedBy:          c.AssignedBy,
			AssignedAt:          c.AssignedAt,
			LastUpdated:         c.LastUpdated,
			ActivityLog:         log,
		},
		Media: Media{ImageURL: ImageURL(c.ComplaintID)},
		Workflow: Workflow{
			AllowedStatus:    append([]string(nil), config.AllowedStatuses...),
			AllowedAssignees: append([]string(nil), config.AllowedAssignees...),
		},
	}
}
