// Package storage persists complaint records and their uploaded images.
package storage

import (
	"context"
	"errors"

	"smartpothole/backend/internal/models"
)

var (
	ErrStoreNotFound     = errors.New("no complaints found")
	ErrComplaintNotFound = errors.New("complaint not found")
	ErrDuplicateID       = errors.New("complaint id already exists")
)

// Columns is the fixed column set of the complaints table, in file order.
var Columns = []string{
	"complaint_id",
	"full_name",
	"email",
	"mobile",
	"latitude",
	"longitude",
	"location_description",
	"image_path",
	"timestamp",
	"status",
	"assigned_to",
	"assigned_by",
	"assigned_at",
	"last_updated",
	"activity_log",
}

// MutateFunc edits a complaint in place and reports whether anything changed.
// Returning changed=false or an error leaves the stored record untouched.
type MutateFunc func(c *models.Complaint) (changed bool, err error)

// Storage is the complaint record store.
type Storage interface {
	// Append adds a new complaint.
	Append(ctx context.Context, c *models.Complaint) error
	// Scan returns every complaint, oldest first. ErrStoreNotFound when
	// nothing has been stored yet.
	Scan(ctx context.Context) ([]models.Complaint, error)
	// Get returns the complaint with the given id.
	Get(ctx context.Context, id string) (*models.Complaint, error)
	// Update applies fn to the complaint with the given id and persists the
	// result when fn reports a change. The returned record reflects the
	// stored state after the call.
	Update(ctx context.Context, id string, fn MutateFunc) (*models.Complaint, error)
	// LatestID returns the highest complaint id in the store, or "" when empty.
	LatestID(ctx context.Context) (string, error)
}
