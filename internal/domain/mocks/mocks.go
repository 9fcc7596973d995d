// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package mocks contains testify mocks for the domain interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

// MockMeetingRepository is a mock implementation of domain.MeetingRepository
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Get(ctx context.Context, meetingUID string) (*models.Meeting, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) GetWithRevision(ctx context.Context, meetingUID string) (*models.Meeting, uint64, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Meeting), args.Get(1).(uint64), args.Error(2)
}

func (m *MockMeetingRepository) GetByExternalRecordingID(ctx context.Context, externalRecordingID string) (*models.Meeting, error) {
	args := m.Called(ctx, externalRecordingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) ReserveExternalID(ctx context.Context, externalRecordingID, meetingUID string) error {
	args := m.Called(ctx, externalRecordingID, meetingUID)
	return args.Error(0)
}

func (m *MockMeetingRepository) ReleaseExternalID(ctx context.Context, externalRecordingID string) error {
	args := m.Called(ctx, externalRecordingID)
	return args.Error(0)
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *models.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *models.Meeting, revision uint64) error {
	args := m.Called(ctx, meeting, revision)
	return args.Error(0)
}

var _ domain.MeetingRepository = (*MockMeetingRepository)(nil)

// MockPendingActionRepository is a mock implementation of domain.PendingActionRepository
type MockPendingActionRepository struct {
	mock.Mock
}

func (m *MockPendingActionRepository) Get(ctx context.Context, actionUID string) (*models.PendingAction, error) {
	args := m.Called(ctx, actionUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingAction), args.Error(1)
}

func (m *MockPendingActionRepository) GetWithRevision(ctx context.Context, actionUID string) (*models.PendingAction, uint64, error) {
	args := m.Called(ctx, actionUID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.PendingAction), args.Get(1).(uint64), args.Error(2)
}

func (m *MockPendingActionRepository) ListByMeeting(ctx context.Context, meetingUID string) ([]*models.PendingAction, error) {
	args := m.Called(ctx, meetingUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PendingAction), args.Error(1)
}

func (m *MockPendingActionRepository) ReserveDedupKey(ctx context.Context, meetingUID, dedupDigest string) error {
	args := m.Called(ctx, meetingUID, dedupDigest)
	return args.Error(0)
}

func (m *MockPendingActionRepository) ReleaseDedupKey(ctx context.Context, meetingUID, dedupDigest string) error {
	args := m.Called(ctx, meetingUID, dedupDigest)
	return args.Error(0)
}

func (m *MockPendingActionRepository) Create(ctx context.Context, action *models.PendingAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockPendingActionRepository) Update(ctx context.Context, action *models.PendingAction, revision uint64) error {
	args := m.Called(ctx, action, revision)
	return args.Error(0)
}

var _ domain.PendingActionRepository = (*MockPendingActionRepository)(nil)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) EnsureFallbackOrganizer(ctx context.Context, organizationUID string) (*models.User, error) {
	args := m.Called(ctx, organizationUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

var _ domain.UserRepository = (*MockUserRepository)(nil)

// MockPollStateRepository is a mock implementation of domain.PollStateRepository
type MockPollStateRepository struct {
	mock.Mock
}

func (m *MockPollStateRepository) Get(ctx context.Context) (*domain.PollState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PollState), args.Error(1)
}

func (m *MockPollStateRepository) Set(ctx context.Context, state *domain.PollState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

var _ domain.PollStateRepository = (*MockPollStateRepository)(nil)

// MockTaskSyncProvider is a mock implementation of domain.TaskSyncProvider
type MockTaskSyncProvider struct {
	mock.Mock
}

func (m *MockTaskSyncProvider) Target() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTaskSyncProvider) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTaskSyncProvider) CreateTask(ctx context.Context, action *models.PendingAction) (string, error) {
	args := m.Called(ctx, action)
	return args.String(0), args.Error(1)
}

var _ domain.TaskSyncProvider = (*MockTaskSyncProvider)(nil)

// MockTaskSyncRegistry is a mock implementation of domain.TaskSyncRegistry
type MockTaskSyncRegistry struct {
	mock.Mock
}

func (m *MockTaskSyncRegistry) GetProvider(target string) (domain.TaskSyncProvider, error) {
	args := m.Called(target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.TaskSyncProvider), args.Error(1)
}

func (m *MockTaskSyncRegistry) RegisterProvider(provider domain.TaskSyncProvider) {
	m.Called(provider)
}

var _ domain.TaskSyncRegistry = (*MockTaskSyncRegistry)(nil)

// MockMessagePublisher is a mock implementation of domain.MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMeetingIngested(ctx context.Context, msg models.MeetingIngestedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessagePublisher) PublishActionCreated(ctx context.Context, msg models.ActionCreatedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessagePublisher) PublishActionSynced(ctx context.Context, msg models.ActionSyncedMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var _ domain.MessagePublisher = (*MockMessagePublisher)(nil)

// MockIngestDispatcher is a mock implementation of domain.IngestDispatcher.
// RunJobs controls whether submitted jobs execute synchronously.
type MockIngestDispatcher struct {
	mock.Mock
	RunJobs bool
}

func (m *MockIngestDispatcher) Submit(ctx context.Context, webhookID string, job func(ctx context.Context)) error {
	args := m.Called(ctx, webhookID, mock.Anything)
	if args.Error(0) == nil && m.RunJobs {
		job(ctx)
	}
	return args.Error(0)
}

var _ domain.IngestDispatcher = (*MockIngestDispatcher)(nil)

// MockRecordingLister is a mock implementation of domain.RecordingLister
type MockRecordingLister struct {
	mock.Mock
}

func (m *MockRecordingLister) ListRecordings(ctx context.Context, since time.Time) ([]*models.FathomWebhookPayload, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FathomWebhookPayload), args.Error(1)
}

var _ domain.RecordingLister = (*MockRecordingLister)(nil)

// MockWebhookVerifier is a mock implementation of domain.WebhookVerifier
type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) VerifySignature(signatureHeader string, body []byte) error {
	args := m.Called(signatureHeader, body)
	return args.Error(0)
}

func (m *MockWebhookVerifier) Disabled() bool {
	args := m.Called()
	return args.Bool(0)
}

var _ domain.WebhookVerifier = (*MockWebhookVerifier)(nil)
