package complaint_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartpothole/backend/internal/complaint"
	"smartpothole/backend/internal/models"
	"smartpothole/backend/internal/notify"
	"smartpothole/backend/internal/storage"
)

var idPattern = regexp.MustCompile(`^SP-\d+$`)

type fixture struct {
	svc      *complaint.Service
	store    *storage.CSVStore
	images   *storage.ImageStore
	notifier *MockDispatcher
	events   *recordingPublisher

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewCSVStore(filepath.Join(dir, "complaints.csv"))
	require.NoError(t, err)
	images, err := storage.NewImageStore(filepath.Join(dir, "images"))
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		images:   images,
		notifier: new(MockDispatcher),
		events:   &recordingPublisher{},
		now:      time.Unix(1700000000, 0).UTC(),
	}
	f.notifier.On("Dispatch", mock.Anything).Return()

	svc, err := complaint.NewService(context.Background(), store, images, f.notifier, f.events, nil)
	require.NoError(t, err)
	svc.SetClock(func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	})
	f.svc = svc
	return f
}

func validSubmission() complaint.Submission {
	return complaint.Submission{
		FullName:            "Asha Patil",
		Email:               "asha@example.com",
		Mobile:              "9876543210",
		Latitude:            "18.5204",
		Longitude:           "73.8567",
		LocationDescription: "Main St pothole",
		Image:               []byte("\xff\xd8\xff\xe0jpeg"),
	}
}

func ptr(s string) *string { return &s }

func TestCreate_StoresOpenComplaint(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	id, err := f.svc.Create(ctx, validSubmission())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "SP-1700000000", id)
	assert.Regexp(t, idPattern, id)

	detail, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "OPEN", detail.Complaint.Status)
	assert.Empty(t, detail.Complaint.AssignedTo)
	assert.Equal(t, []string{"2023-11-14T22:13:20.000000 | Complaint created"}, detail.Complaint.ActivityLog)
	assert.Equal(t, "2023-11-14T22:13:20.000000", detail.Complaint.Timestamp)
	assert.Equal(t, "/authority/complaint/SP-1700000000/image", detail.Media.ImageURL)
	assert.Equal(t, []string{"OPEN", "IN_PROGRESS", "RESOLVED", "REJECTED"}, detail.Workflow.AllowedStatus)
	assert.Equal(t, []string{"OM", "AKSHATA", "SANKALP", "KHUSHI"}, detail.Workflow.AllowedAssignees)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.images.PathFor(id), all[0].ImagePath)

	data, err := os.ReadFile(all[0].ImagePath)
	require.NoError(t, err)
	assert.Equal(t, validSubmission().Image, data)

	f.notifier.AssertCalled(t, "Dispatch", notify.Notification{
		ComplaintID:         id,
		FullName:            "Asha Patil",
		Email:               "asha@example.com",
		Mobile:              "9876543210",
		Latitude:            "18.5204",
		Longitude:           "73.8567",
		LocationDescription: "Main St pothole",
	})
	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventComplaintCreated, events[0].Type)
	assert.Equal(t, id, events[0].ComplaintID)
}

func TestCreate_SameSecondGetsDistinctIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "SP-1700000000", first)
	assert.Equal(t, "SP-1700000001", second)
}

func TestCreate_ResumesAfterStoredIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	svc, err := complaint.NewService(ctx, f.store, f.images, nil, nil, nil)
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return time.Unix(1699999999, 0) })

	id, err := svc.Create(ctx, validSubmission())

	require.NoError(t, err)
	assert.Equal(t, "SP-1700000001", id)
}

func TestCreate_SkipsIDWithExistingImage(t *testing.T) {
	f := newFixture(t)
	_, err := f.images.Save("SP-1700000000", strings.NewReader("taken"))
	require.NoError(t, err)

	id, err := f.svc.Create(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.Equal(t, "SP-1700000001", id)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *complaint.Submission)
		wantErr error
	}{
		{"missing name", func(s *complaint.Submission) { s.FullName = " " }, complaint.ErrMissingField},
		{"missing email", func(s *complaint.Submission) { s.Email = "" }, complaint.ErrMissingField},
		{"missing description", func(s *complaint.Submission) { s.LocationDescription = "" }, complaint.ErrMissingField},
		{"missing image", func(s *complaint.Submission) { s.Image = nil }, complaint.ErrMissingField},
		{"latitude not a number", func(s *complaint.Submission) { s.Latitude = "north" }, complaint.ErrInvalidLocation},
		{"latitude out of range", func(s *complaint.Submission) { s.Latitude = "91" }, complaint.ErrInvalidLocation},
		{"longitude out of range", func(s *complaint.Submission) { s.Longitude = "-180.5" }, complaint.ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sub := validSubmission()
			tt.mutate(&sub)

			_, err := f.svc.Create(context.Background(), sub)

			assert.ErrorIs(t, err, tt.wantErr)
			_, scanErr := f.store.Scan(context.Background())
			assert.ErrorIs(t, scanErr, storage.ErrStoreNotFound)
			f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything)
		})
	}
}

func TestCreate_StoreFailureRemovesImage(t *testing.T) {
	dir := t.TempDir()
	images, err := storage.NewImageStore(dir)
	require.NoError(t, err)
	store := new(MockStorage)
	store.On("LatestID", mock.Anything).Return("", nil)
	store.On("Append", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	notifier := new(MockDispatcher)

	svc, err := complaint.NewService(context.Background(), store, images, notifier, nil, nil)
	require.NoError(t, err)
	svc.SetClock(func() time.Time { return time.Unix(1700000000, 0) })

	_, err = svc.Create(context.Background(), validSubmission())

	assert.EqualError(t, err, "disk full")
	assert.False(t, images.Exists(images.PathFor("SP-1700000000")))
	notifier.AssertNotCalled(t, "Dispatch", mock.Anything)
}

func TestNewService_LatestIDError(t *testing.T) {
	store := new(MockStorage)
	store.On("LatestID", mock.Anything).Return("", errors.New("db down"))

	_, err := complaint.NewService(context.Background(), store, nil, nil, nil, nil)

	assert.ErrorContains(t, err, "db down")
}

func TestList_EmptyStore(t *testing.T) {
	f := newFixture(t)

	all, err := f.svc.List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "SP-1")
	assert.ErrorIs(t, err, storage.ErrStoreNotFound)

	_, err = f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "SP-1")
	assert.ErrorIs(t, err, storage.ErrComplaintNotFound)
}

func TestUpdate_StatusChangeAppendsOneLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	f.advance(90 * time.Second)
	res, err := f.svc.Update(ctx, id, complaint.UpdateRequest{Status: ptr("RESOLVED"), Actor: "ward-7"})

	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "ward-7", res.UpdatedBy)
	after, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "RESOLVED", after.Complaint.Status)
	require.Len(t, after.Complaint.ActivityLog, len(before.Complaint.ActivityLog)+1)
	assert.Equal(t, "2023-11-14T22:14:50.000000 | STATUS | ward-7 | OPEN -> RESOLVED", after.Complaint.ActivityLog[1])
	assert.Greater(t, after.Complaint.LastUpdated, before.Complaint.LastUpdated)
	assert.Empty(t, after.Complaint.AssignedBy)

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventComplaintUpdated, events[1].Type)
	assert.Equal(t, "RESOLVED", events[1].Status)
	assert.Equal(t, "ward-7", events[1].Actor)
}

func TestUpdate_NoOpValuesChangeNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, id, complaint.UpdateRequest{AssignedTo: ptr("OM"), Actor: "ward-7"})
	require.NoError(t, err)
	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	f.advance(time.Minute)
	requests := []complaint.UpdateRequest{
		{Status: ptr("OPEN"), Actor: "ward-9"},
		{AssignedTo: ptr("OM"), Actor: "ward-9"},
		{Status: ptr(""), AssignedTo: ptr(""), Actor: "ward-9"},
		{Actor: "ward-9"},
	}
	for _, req := range requests {
		res, err := f.svc.Update(ctx, id, req)
		require.NoError(t, err)
		assert.False(t, res.Changed)
	}

	after, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, f.events.Events(), 2)
}

func TestUpdate_InvalidValuesLeaveRecordUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	before, err := f.store.Get(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, id, complaint.UpdateRequest{Status: ptr("CLOSED"), AssignedTo: ptr("OM"), Actor: "ward-7"})
	assert.ErrorIs(t, err, complaint.ErrInvalidStatus)

	_, err = f.svc.Update(ctx, id, complaint.UpdateRequest{Status: ptr("RESOLVED"), AssignedTo: ptr("BOB"), Actor: "ward-7"})
	assert.ErrorIs(t, err, complaint.ErrInvalidAssignee)

	_, err = f.svc.Update(ctx, id, complaint.UpdateRequest{Status: ptr("resolved"), Actor: "ward-7"})
	assert.ErrorIs(t, err, complaint.ErrInvalidStatus)

	after, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, "SP-1", complaint.UpdateRequest{Status: ptr("OPEN"), Actor: "ward-7"})
	assert.ErrorIs(t, err, storage.ErrStoreNotFound)

	_, err = f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, "SP-1", complaint.UpdateRequest{Status: ptr("OPEN"), Actor: "ward-7"})
	assert.ErrorIs(t, err, storage.ErrComplaintNotFound)
}

func TestUpdate_StatusAndAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	f.advance(time.Second)
	res, err := f.svc.Update(ctx, id, complaint.UpdateRequest{
		Status:     ptr("IN_PROGRESS"),
		AssignedTo: ptr("OM"),
		Actor:      "ward-7",
	})

	require.NoError(t, err)
	c := res.Complaint
	assert.Equal(t, "IN_PROGRESS", c.Status)
	assert.Equal(t, "OM", c.AssignedTo)
	assert.Equal(t, "ward-7", c.AssignedBy)
	assert.Equal(t, "2023-11-14T22:13:21.000000", c.AssignedAt)
	assert.Equal(t, "2023-11-14T22:13:21.000000", c.LastUpdated)
	assert.Equal(t, []string{
		"2023-11-14T22:13:20.000000 | Complaint created",
		"2023-11-14T22:13:21.000000 | STATUS | ward-7 | OPEN -> IN_PROGRESS",
		"2023-11-14T22:13:21.000000 | ASSIGNED | ward-7 -> OM",
	}, []string(c.ActivityLog))
}

func TestUpdate_LastUpdatedNeverGoesBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	f.advance(-time.Hour)
	res, err := f.svc.Update(ctx, id, complaint.UpdateRequest{Status: ptr("REJECTED"), Actor: "ward-7"})

	require.NoError(t, err)
	assert.Equal(t, "REJECTED", res.Complaint.Status)
	assert.Equal(t, "2023-11-14T22:13:20.000000", res.Complaint.LastUpdated)
}

func TestUpdate_ConcurrentEditsAreAllRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	statuses := []string{"IN_PROGRESS", "RESOLVED", "REJECTED", "OPEN"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Update(ctx, id, complaint.UpdateRequest{
				Status: ptr(statuses[i%len(statuses)]),
				Actor:  fmt.Sprintf("ward-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	c, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	statusLines := len(c.ActivityLog) - 1
	changes := 0
	for _, ev := range f.events.Events() {
		if ev.Type == models.EventComplaintUpdated {
			changes++
		}
	}
	assert.Equal(t, changes, statusLines)
}

func TestImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.svc.Create(ctx, validSubmission())
	require.NoError(t, err)

	path, err := f.svc.Image(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.images.PathFor(id), path)

	require.NoError(t, os.Remove(path))
	_, err = f.svc.Image(ctx, id)
	assert.ErrorIs(t, err, complaint.ErrImageNotFound)

	_, err = f.svc.Image(ctx, "SP-1")
	assert.ErrorIs(t, err, storage.ErrComplaintNotFound)
}
