package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"smartpothole/backend/internal/models"
)

// CSVStore keeps complaints in a single flat CSV file, one row per complaint.
// Updates read the whole table, change one row and rewrite the file. The
// mutex serialises writers inside this process only; running several
// processes against the same file can still lose updates.
type CSVStore struct {
	path string
	mu   sync.RWMutex
}

// NewCSVStore creates a store backed by path, creating its directory.
func NewCSVStore(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &CSVStore{path: path}, nil
}

// Path returns the backing file path.
func (s *CSVStore) Path() string {
	return s.path
}

func (s *CSVStore) Append(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.readAll()
	if err != nil && !errors.Is(err, ErrStoreNotFound) {
		return err
	}
	for _, row := range existing {
		if row.ComplaintID == c.ComplaintID {
			return fmt.Errorf("%w: %s", ErrDuplicateID, c.ComplaintID)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open complaints file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(toRecord(c)); err != nil {
		return fmt.Errorf("failed to write complaint %s: %w", c.ComplaintID, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}

func (s *CSVStore) Scan(ctx context.Context) ([]models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readAll()
}

func (s *CSVStore) Get(ctx context.Context, id string) (*models.Complaint, error) {
	all, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ComplaintID == id {
			return &all[i], nil
		}
	}
	return nil, ErrComplaintNotFound
}

func (s *CSVStore) Update(ctx context.Context, id string, fn MutateFunc) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range all {
		if all[i].ComplaintID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrComplaintNotFound
	}

	working := all[idx].Clone()
	changed, err := fn(&working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &all[idx], nil
	}

	all[idx] = working
	if err := s.rewriteAll(all); err != nil {
		return nil, err
	}
	return &working, nil
}

func (s *CSVStore) LatestID(ctx context.Context) (string, error) {
	all, err := s.Scan(ctx)
	if errors.Is(err, ErrStoreNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return latestID(all), nil
}

// readAll parses the file, mapping columns by header name. Callers hold mu.
func (s *CSVStore) readAll() ([]models.Complaint, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open complaints file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []models.Complaint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	out := []models.Complaint{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read complaints file: %w", err)
		}
		out = append(out, fromRecord(index, record))
	}
	return out, nil
}

// rewriteAll replaces the file contents via a temp file and rename so a
// crash mid-write never leaves a truncated table. Callers hold mu.
func (s *CSVStore) rewriteAll(all []models.Complaint) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".complaints-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return err
	}
	for i := range all {
		if err := w.Write(toRecord(&all[i])); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace complaints file: %w", err)
	}
	return nil
}

func toRecord(c *models.Complaint) []string {
	return []string{
		c.ComplaintID,
		c.FullName,
		c.Email,
		c.Mobile,
		c.Latitude,
		c.Longitude,
		c.LocationDescription,
		c.ImagePath,
		c.Timestamp,
		c.Status,
		c.AssignedTo,
		c.AssignedBy,
		c.AssignedAt,
		c.LastUpdated,
		c.ActivityLogText(),
	}
}

func fromRecord(index map[string]int, record []string) models.Complaint {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	c := models.Complaint{
		ComplaintID:         field("complaint_id"),
		FullName:            field("full_name"),
		Email:               field("email"),
		Mobile:              field("mobile"),
		Latitude:            field("latitude"),
		Longitude:           field("longitude"),
		LocationDescription: field("location_description"),
		ImagePath:           field("image_path"),
		Timestamp:           field("timestamp"),
		Status:              field("status"),
		AssignedTo:          field("assigned_to"),
		AssignedBy:          field("assigned_by"),
		AssignedAt:          field("assigned_at"),
		LastUpdated:         field("last_updated"),
	}
	c.SetActivityLogText(field("activity_log"))
	return c
}
