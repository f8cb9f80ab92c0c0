package models

import (
	"encoding/json"
	"strings"

	"github.com/lib/pq"
)

// Complaint is a citizen-submitted road-defect report with its triage state.
// Timestamps are kept in their stored text form (config.TimeLayout) so rows
// round-trip through the flat file unchanged.
type Complaint struct {
	ComplaintID         string `gorm:"primaryKey;size:32" json:"complaint_id"`
	FullName            string `gorm:"type:text" json:"full_name"`
	Email               string `gorm:"type:text" json:"email"`
	Mobile              string `gorm:"type:text" json:"mobile"`
	Latitude            string `gorm:"type:text" json:"latitude"`
	Longitude           string `gorm:"type:text" json:"longitude"`
	LocationDescription string `gorm:"type:text" json:"location_description"`
	ImagePath           string `gorm:"type:text" json:"image_path"`
	Timestamp           string `gorm:"type:text;index" json:"timestamp"`
	Status              string `gorm:"size:20;index" json:"status"`
	AssignedTo          string `gorm:"size:50" json:"assigned_to"`
	AssignedBy          string `gorm:"size:100" json:"assigned_by"`
	AssignedAt          string `gorm:"type:text" json:"assigned_at"`
	LastUpdated         string `gorm:"type:text" json:"last_updated"`
	// ActivityLog holds one audit line per entry, oldest first.
	ActivityLog pq.StringArray `gorm:"type:text[]" json:"activity_log"`
}

// TableName pins the table name used by the PostgreSQL store.
func (Complaint) TableName() string {
	return "complaints"
}

// AppendActivity adds an audit line to the end of the activity log.
func (c *Complaint) AppendActivity(line string) {
	c.ActivityLog = append(c.ActivityLog, line)
}

// ActivityLogText returns the activity log in its newline-delimited form.
func (c Complaint) ActivityLogText() string {
	return strings.Join(c.ActivityLog, "\n")
}

// SetActivityLogText replaces the activity log from its newline-delimited form.
// Blank lines are dropped.
func (c *Complaint) SetActivityLogText(text string) {
	c.ActivityLog = nil
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.ActivityLog = append(c.ActivityLog, line)
	}
}

// Clone returns a copy that shares no slice storage with c.
func (c Complaint) Clone() Complaint {
	out := c
	if c.ActivityLog != nil {
		out.ActivityLog = append(pq.StringArray(nil), c.ActivityLog...)
	}
	return out
}

// MarshalJSON renders activity_log as newline-delimited text, the same shape
// the dashboard has always received from the listing endpoint.
func (c Complaint) MarshalJSON() ([]byte, error) {
	type plain Complaint
	return json.Marshal(struct {
		plain
		ActivityLog string `json:"activity_log"`
	}{
		plain:       plain(c),
		ActivityLog: c.ActivityLogText(),
	})
}
