package storage

import (
	"strconv"
	"strings"

	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/models"
)

// ParseComplaintID extracts the numeric part of an "SP-<n>" id.
func ParseComplaintID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, config.ComplaintIDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func latestID(all []models.Complaint) string {
	var (
		best   string
		bestN  int64
		hasAny bool
	)
	for _, c := range all {
		n, ok := ParseComplaintID(c.ComplaintID)
		if !ok {
			continue
		}
		if !hasAny || n > bestN {
			best, bestN, hasAny = c.ComplaintID, n, true
		}
	}
	return best
}
