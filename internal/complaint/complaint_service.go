// Package complaint provides the core logic for handling citizen complaints:
// intake, listing, staff updates with an audit trail, and image retrieval.
package complaint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartpothole/backend/internal/config"
	"smartpothole/backend/internal/models"
	"smartpothole/backend/internal/notify"
	"smartpothole/backend/internal/storage"
)

const maxCreateAttempts = 5

// Dispatcher delivers notifications without blocking.
type Dispatcher interface {
	Dispatch(n notify.Notification)
}

// EventPublisher pushes complaint changes to live subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event models.FeedEvent)
}

// Service handles the business logic for complaints.
type Service struct {
	Storage storage.Storage
	Images  *storage.ImageStore

	notifier Dispatcher
	events   EventPublisher
	ids      *IDGenerator
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a new complaint service. notifier and events may be nil.
func NewService(ctx context.Context, s storage.Storage, images *storage.ImageStore, notifier Dispatcher, events EventPublisher, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	latest, err := s.LatestID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest complaint id: %w", err)
	}
	return &Service{
		Storage:  s,
		Images:   images,
		notifier: notifier,
		events:   events,
		ids:      NewIDGenerator(latest),
		now:      time.Now,
		logger:   logger.Named("complaint"),
	}, nil
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create validates and stores a new complaint and returns its id.
func (s *Service) Create(ctx context.Context, sub Submission) (string, error) {
	if err := validateSubmission(sub); err != nil {
		return "", err
	}

	for attempt := 1; ; attempt++ {
		now := s.now()
		id := s.ids.Next(now)

		c, err := s.store(ctx, id, now, sub)
		if errors.Is(err, storage.ErrDuplicateID) || errors.Is(err, storage.ErrImageExists) {
			if attempt < maxCreateAttempts {
				s.logger.Warn("complaint id already taken, retrying", zap.String("complaint_id", id))
				continue
			}
		}
		if err != nil {
			return "", err
		}

		s.logger.Info("complaint created",
			zap.String("complaint_id", id),
			zap.String("location", c.LocationDescription))

		if s.notifier != nil {
			s.notifier.Dispatch(notify.Notification{
				ComplaintID:         c.ComplaintID,
				FullName:            c.FullName,
				Email:               c.Email,
				Mobile:              c.Mobile,
				Latitude:            c.Latitude,
				Longitude:           c.Longitude,
				LocationDescription: c.LocationDescription,
			})
		}
		s.publish(ctx, models.EventComplaintCreated, c, "")
		return id, nil
	}
}

func (s *Service) store(ctx context.Context, id string, now time.Time, sub Submission) (*models.Complaint, error) {
	path, err := s.Images.Save(id, bytes.NewReader(sub.Image))
	if err != nil {
		return nil, err
	}

	ts := config.FormatTime(now)
	c := &models.Complaint{
		ComplaintID:         id,
		FullName:            strings.TrimSpace(sub.FullName),
		Email:               strings.TrimSpace(sub.Email),
		Mobile:              strings.TrimSpace(sub.Mobile),
		Latitude:            strings.TrimSpace(sub.Latitude),
		Longitude:           strings.TrimSpace(sub.Longitude),
		LocationDescription: strings.TrimSpace(sub.LocationDescription),
		ImagePath:           path,
		Timestamp:           ts,
		Status:              config.StatusOpen,
		LastUpdated:         ts,
	}
	c.AppendActivity(ts + " | Complaint created")

	if err := s.Storage.Append(ctx, c); err != nil {
		if rmErr := s.Images.Remove(path); rmErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, err
	}
	return c, nil
}

func validateSubmission(sub Submission) error {
	required := []struct{ name, value string }{
		{"full_name", sub.FullName},
		{"email", sub.Email},
		{"mobile", sub.Mobile},
		{"latitude", sub.Latitude},
		{"longitude", sub.Longitude},
		{"location_description", sub.LocationDescription},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if len(sub.Image) == 0 {
		return fmt.Errorf("%w: image", ErrMissingField)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(sub.Latitude), 64)
	if err != nil || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %q", ErrInvalidLocation, sub.Latitude)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(sub.Longitude), 64)
	if err != nil || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %q", ErrInvalidLocation, sub.Longitude)
	}
	return nil
}

// List returns every complaint, oldest first. A store that has never been
// written to yields an empty list.
func (s *Service) List(ctx context.Context) ([]models.Complaint, error) {
	all, err := s.Storage.Scan(ctx)
	if errors.Is(err, storage.ErrStoreNotFound) {
		return []models.Complaint{}, nil
	}
	return all, err
}

// Get returns the staff view of one complaint.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	c, err := s.Storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return newDetail(c), nil
}

// Update applies a staff edit. Values equal to the stored ones are ignored;
// anything that does change gets its own audit line.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*UpdateResult, error) {
	status := valueOf(req.Status)
	assignee := valueOf(req.AssignedTo)

	if status != "" && !config.IsAllowedStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if assignee != "" && !config.IsAllowedAssignee(assignee) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAssignee, assignee)
	}

	var changed bool
	updated, err := s.Storage.Update(ctx, id, func(c *models.Complaint) (bool, error) {
		changed = applyUpdate(c, status, assignee, req.Actor, config.FormatTime(s.now()))
		return changed, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("complaint updated",
			zap.String("complaint_id", id),
			zap.String("actor", req.Actor),
			zap.String("status", updated.Status),
			zap.String("assigned_to", updated.AssignedTo))
		s.publish(ctx, models.EventComplaintUpdated, updated, req.Actor)
	}

	return &UpdateResult{
		ComplaintID: id,
		UpdatedBy:   req.Actor,
		Changed:     changed,
		Complaint:   *updated,
	}, nil
}

func applyUpdate(c *models.Complaint, status, assignee, actor, now string) bool {
	changed := false

	if status != "" && status != c.Status {
		c.AppendActivity(fmt.Sprintf("%s | STATUS | %s | %s -> %s", now, actor, c.Status, status))
		c.Status = status
		changed = true
	}

	if assignee != "" && assignee != c.AssignedTo {
		c.AssignedTo = assignee
		c.AssignedBy = actor
		c.AssignedAt = now
		c.AppendActivity(fmt.Sprintf("%s | ASSIGNED | %s -> %s", now, actor, assignee))
		changed = true
	}

	if changed && now > c.LastUpdated {
		c.LastUpdated = now
	}
	return changed
}

// Image returns the filesystem path of a complaint's photo.
func (s *Service) Image(ctx context.Context, id string) (string, error) {
	c, err := s.Storage.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !s.Images.Exists(c.ImagePath) {
		return "", ErrImageNotFound
	}
	return c.ImagePath, nil
}

func (s *Service) publish(ctx context.Context, eventType string, c *models.Complaint, actor string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, models.FeedEvent{
		Type:        eventType,
		ComplaintID: c.ComplaintID,
		Status:      c.Status,
		AssignedTo:  c.AssignedTo,
		Actor:       actor,
		Time:        c.LastUpdated,
	})
}

func valueOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
