package config

import "time"

const (
	// Complaint statuses
	StatusOpen       = "OPEN"
	StatusInProgress = "IN_PROGRESS"
	StatusResolved   = "RESOLVED"
	StatusRejected   = "REJECTED"

	// Identity
	ComplaintIDPrefix = "SP-"
	AuthorityRole     = "authority"

	// Classifier
	ClassifierImageSize = 128
	PotholeThreshold    = 0.93

	// Timestamps are UTC, ISO-8601 without a zone suffix, microsecond precision.
	TimeLayout = "2006-01-02T15:04:05.000000"
)

// AllowedStatuses lists every status a complaint may hold, in workflow order.
var AllowedStatuses = []string{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
}

// AllowedAssignees lists the staff identifiers complaints can be assigned to.
var AllowedAssignees = []string{
	"OM",
	"AKSHATA",
	"SANKALP",
	"KHUSHI",
}

// IsAllowedStatus reports whether s is a known complaint status.
func IsAllowedStatus(s string) bool {
	return contains(AllowedStatuses, s)
}

// IsAllowedAssignee reports whether s is a known staff identifier.
func IsAllowedAssignee(s string) bool {
	return contains(AllowedAssignees, s)
}

// FormatTime renders t in the store's timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
