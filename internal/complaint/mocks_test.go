package complaint_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"smartpothole/backend/internal/models"
	"smartpothole/backend/internal/notify"
	"smartpothole/backend/internal/storage"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(n notify.Notification) {
	m.Called(n)
}

// recordingPublisher keeps every event it receives.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.FeedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event models.FeedEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []models.FeedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.FeedEvent(nil), p.events...)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Append(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) Scan(ctx context.Context) ([]models.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) Update(ctx context.Context, id string, fn storage.MutateFunc) (*models.Complaint, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockStorage) LatestID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
