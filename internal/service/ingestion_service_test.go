// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/mocks"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/store"
)

func setupIngestionService() (*IngestionService, *mocks.MockMeetingRepository, *mocks.MockPendingActionRepository, *mocks.MockUserRepository, *mocks.MockMessagePublisher) {
	meetingRepo := &mocks.MockMeetingRepository{}
	actionRepo := &mocks.MockPendingActionRepository{}
	userRepo := &mocks.MockUserRepository{}
	publisher := &mocks.MockMessagePublisher{}

	svc := NewIngestionService(meetingRepo, actionRepo, userRepo, publisher, ServiceConfig{
		OrganizationUID: "org-1",
	})
	return svc, meetingRepo, actionRepo, userRepo, publisher
}

func fallbackOrganizer() *models.User {
	return models.NewFallbackOrganizer("org-1")
}

func TestIngestionService_ParseEvent(t *testing.T) {
	svc, _, _, _, _ := setupIngestionService()
	ctx := context.Background()

	t.Run("valid payload", func(t *testing.T) {
		body := []byte(`{"recording_id": 123456, "title": "Q3 planning"}`)

		event, err := svc.ParseEvent(ctx, body)
		require.NoError(t, err)
		assert.Equal(t, "123456", event.ExternalRecordingID)
		assert.Equal(t, "Q3 planning", event.Title)
	})

	t.Run("malformed JSON is a validation error", func(t *testing.T) {
		_, err := svc.ParseEvent(ctx, []byte(`{not json`))
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})

	t.Run("missing recording id is a validation error", func(t *testing.T) {
		_, err := svc.ParseEvent(ctx, []byte(`{"title": "no id"}`))
		require.Error(t, err)
		assert.Equal(t, domain.ErrorTypeValidation, domain.GetErrorType(err))
	})
}

func TestIngestionService_UpsertFromEvent_CreatesNewMeeting(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{
		ExternalRecordingID: "123456",
		Title:               "Q3 planning",
		OrganizerEmail:      "ana@acme.test",
		Invitees: []models.EventInvitee{
			{Email: "ana@acme.test", Name: "Ana", MatchedSpeaker: true},
			{Email: "bob@other.test", Name: "Bob", External: true},
		},
	}

	organizer := &models.User{UID: "user-ana", Email: "ana@acme.test"}
	userRepo.On("GetByEmail", mock.Anything, "ana@acme.test").Return(organizer, nil)
	userRepo.On("GetByEmail", mock.Anything, "bob@other.test").
		Return(nil, domain.NewNotFoundError("no user"))

	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).Return(nil)
	meetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Meeting")).Return(nil)

	meeting, created, err := svc.UpsertFromEvent(ctx, event, models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, meeting.UID)
	assert.Equal(t, "user-ana", meeting.OrganizerUID)
	assert.Equal(t, "org-1", meeting.OrganizationUID)
	assert.Equal(t, models.SourceWebhook, meeting.Source)

	require.Len(t, meeting.Participants, 2)
	assert.Equal(t, "user-ana", meeting.Participants[0].UserUID)
	assert.Equal(t, models.AttendancePresent, meeting.Participants[0].AttendanceStatus)
	assert.Empty(t, meeting.Participants[1].UserUID)
	assert.Equal(t, models.AttendanceUnknown, meeting.Participants[1].AttendanceStatus)

	meetingRepo.AssertExpectations(t)
}

func TestIngestionService_UpsertFromEvent_UnknownOrganizerUsesFallback(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{
		ExternalRecordingID: "123456",
		OrganizerEmail:      "ghost@acme.test",
	}

	userRepo.On("GetByEmail", mock.Anything, "ghost@acme.test").
		Return(nil, domain.NewNotFoundError("no user"))
	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)

	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).Return(nil)
	meetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Meeting")).Return(nil)

	meeting, created, err := svc.UpsertFromEvent(ctx, event, models.SourceAPIPoll)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.FallbackOrganizerUID, meeting.OrganizerUID)

	userRepo.AssertExpectations(t)
}

func TestIngestionService_UpsertFromEvent_MergesExistingMeeting(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{
		ExternalRecordingID: "123456",
		Summary:             "## Notes",
	}

	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)

	existing := &models.Meeting{
		UID:                 "meeting-1",
		Title:               "Q3 planning",
		ExternalRecordingID: "123456",
		Source:              models.SourceWebhook,
	}

	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).
		Return(domain.NewConflictError("already claimed"))
	meetingRepo.On("GetByExternalRecordingID", mock.Anything, "123456").Return(existing, nil)
	meetingRepo.On("GetWithRevision", mock.Anything, "meeting-1").Return(existing, uint64(3), nil)
	meetingRepo.On("Update", mock.Anything, existing, uint64(3)).Return(nil)

	meeting, created, err := svc.UpsertFromEvent(ctx, event, models.SourceAPIPoll)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "meeting-1", meeting.UID)
	assert.Equal(t, "## Notes", meeting.Summary)
	assert.Equal(t, "Q3 planning", meeting.Title)

	meetingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	meetingRepo.AssertExpectations(t)
}

func TestIngestionService_UpsertFromEvent_NoOpMergeSkipsWrite(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{
		ExternalRecordingID: "123456",
		Title:               "Q3 planning",
	}

	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)

	existing := &models.Meeting{
		UID:                 "meeting-1",
		Title:               "Q3 planning",
		ExternalRecordingID: "123456",
	}

	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).
		Return(domain.NewConflictError("already claimed"))
	meetingRepo.On("GetByExternalRecordingID", mock.Anything, "123456").Return(existing, nil)

	meeting, created, err := svc.UpsertFromEvent(ctx, event, models.SourceWebhook)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "meeting-1", meeting.UID)

	meetingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_UpsertFromEvent_CreateFailureReleasesClaim(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{ExternalRecordingID: "123456"}

	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)
	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).Return(nil)
	meetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Meeting")).
		Return(domain.NewInternalError("kv write failed"))
	meetingRepo.On("ReleaseExternalID", mock.Anything, "123456").Return(nil)

	_, _, err := svc.UpsertFromEvent(ctx, event, models.SourceWebhook)
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))

	// The claim must not survive the failed create.
	meetingRepo.AssertCalled(t, "ReleaseExternalID", mock.Anything, "123456")
}

func TestIngestionService_UpsertFromEvent_RepairsDanglingClaim(t *testing.T) {
	svc, meetingRepo, _, userRepo, _ := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{ExternalRecordingID: "123456", Title: "Q3 planning"}

	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)

	// The recording is claimed but no meeting was ever stored for it.
	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).
		Return(domain.NewConflictError("already claimed")).Once()
	meetingRepo.On("GetByExternalRecordingID", mock.Anything, "123456").
		Return(nil, domain.NewNotFoundError("no meeting stored")).Once()
	meetingRepo.On("ReleaseExternalID", mock.Anything, "123456").Return(nil).Once()

	// The re-claim after the repair succeeds.
	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).
		Return(nil).Once()
	meetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Meeting")).Return(nil).Once()

	meeting, created, err := svc.UpsertFromEvent(ctx, event, models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Q3 planning", meeting.Title)

	meetingRepo.AssertExpectations(t)
}

func TestIngestionService_ExtractActionItems(t *testing.T) {
	svc, _, actionRepo, userRepo, publisher := setupIngestionService()
	ctx := context.Background()

	meeting := &models.Meeting{UID: "meeting-1"}
	event := &models.MeetingEvent{
		ActionItems: []models.EventActionItem{
			{
				Description:        "Send the proposal",
				AssigneeEmail:      "ana@acme.test",
				AssigneeName:       "Ana",
				PlaybackURL:        "https://fathom.video/calls/1?timestamp=65",
				RecordingTimestamp: "00:01:05",
			},
			{Description: ""},
			{Description: "Already extracted"},
		},
	}

	userRepo.On("GetByEmail", mock.Anything, "ana@acme.test").
		Return(&models.User{UID: "user-ana"}, nil)

	actionRepo.On("ReserveDedupKey", mock.Anything, "meeting-1", models.DedupDigest("Send the proposal")).Return(nil)
	actionRepo.On("ReserveDedupKey", mock.Anything, "meeting-1", models.DedupDigest("Already extracted")).
		Return(domain.NewConflictError("already claimed"))
	actionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.PendingAction")).Return(nil)
	publisher.On("PublishActionCreated", mock.Anything, mock.AnythingOfType("models.ActionCreatedMessage")).Return(nil)

	created, err := svc.ExtractActionItems(ctx, meeting, event)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	actionRepo.AssertNumberOfCalls(t, "Create", 1)
	action := actionRepo.Calls[1].Arguments.Get(1).(*models.PendingAction)
	assert.Equal(t, models.ActionStatusNew, action.Status)
	assert.Equal(t, models.ActionPriorityMedium, action.Priority)
	assert.Equal(t, "user-ana", action.AssigneeUserUID)
	assert.Contains(t, action.Notes, "https://fathom.video/calls/1?timestamp=65")
	assert.Contains(t, action.Notes, "00:01:05")
}

func TestIngestionService_ExtractActionItems_CreateFailureReleasesDedupClaim(t *testing.T) {
	svc, _, actionRepo, _, _ := setupIngestionService()
	ctx := context.Background()

	meeting := &models.Meeting{UID: "meeting-1"}
	event := &models.MeetingEvent{
		ActionItems: []models.EventActionItem{{Description: "Send the proposal"}},
	}
	digest := models.DedupDigest("Send the proposal")

	actionRepo.On("ReserveDedupKey", mock.Anything, "meeting-1", digest).Return(nil)
	actionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.PendingAction")).
		Return(domain.NewInternalError("kv write failed"))
	actionRepo.On("ReleaseDedupKey", mock.Anything, "meeting-1", digest).Return(nil)

	created, err := svc.ExtractActionItems(ctx, meeting, event)
	require.Error(t, err)
	assert.Equal(t, 0, created)

	// The dedup claim must not survive the failed create, or the item
	// would be skipped on every retry.
	actionRepo.AssertCalled(t, "ReleaseDedupKey", mock.Anything, "meeting-1", digest)
}

// failAggregateCreateOnce makes the first non-index write to the KV fail,
// leaving any index entries written around it in place.
func failAggregateCreateOnce(kv *store.MockNatsKeyValue) {
	failed := false
	kv.CreateHook = func(key string) error {
		if !failed && !strings.HasPrefix(key, "index/") {
			failed = true
			return errors.New("kv write failed")
		}
		return nil
	}
}

func TestIngestionService_ProcessEvent_RecoversFromFailedCreate(t *testing.T) {
	ctx := context.Background()

	setup := func() (*IngestionService, *store.MockNatsKeyValue) {
		meetingKV := store.NewMockNatsKeyValue()

		publisher := &mocks.MockMessagePublisher{}
		publisher.On("PublishMeetingIngested", mock.Anything, mock.Anything).Return(nil).Maybe()
		publisher.On("PublishActionCreated", mock.Anything, mock.Anything).Return(nil).Maybe()

		svc := NewIngestionService(
			store.NewNatsMeetingRepository(meetingKV),
			store.NewNatsPendingActionRepository(store.NewMockNatsKeyValue()),
			store.NewNatsUserRepository(store.NewMockNatsKeyValue()),
			publisher,
			ServiceConfig{OrganizationUID: "org-1"},
		)
		return svc, meetingKV
	}

	event := &models.MeetingEvent{ExternalRecordingID: "123456", Title: "Q3 planning"}

	t.Run("redelivery after a failed create stores the meeting", func(t *testing.T) {
		svc, meetingKV := setup()
		failAggregateCreateOnce(meetingKV)

		require.Error(t, svc.ProcessEvent(ctx, event, models.SourceWebhook))

		// The store is healthy again; the retried delivery must succeed.
		require.NoError(t, svc.ProcessEvent(ctx, event, models.SourceWebhook))

		meeting, err := svc.meetingRepository.GetByExternalRecordingID(ctx, "123456")
		require.NoError(t, err)
		assert.Equal(t, "Q3 planning", meeting.Title)
	})

	t.Run("redelivery repairs a claim left behind by a crash", func(t *testing.T) {
		svc, meetingKV := setup()
		failAggregateCreateOnce(meetingKV)
		// The release after the failed create cannot reach the store
		// either, so the recording claim dangles.
		meetingKV.DeleteError = errors.New("kv unavailable")

		require.Error(t, svc.ProcessEvent(ctx, event, models.SourceWebhook))

		meetingKV.DeleteError = nil

		require.NoError(t, svc.ProcessEvent(ctx, event, models.SourceWebhook))

		meeting, err := svc.meetingRepository.GetByExternalRecordingID(ctx, "123456")
		require.NoError(t, err)
		assert.Equal(t, "Q3 planning", meeting.Title)
	})
}

func TestIngestionService_ProcessEvent_PublishesIngestedMessage(t *testing.T) {
	svc, meetingRepo, _, userRepo, publisher := setupIngestionService()
	ctx := context.Background()

	event := &models.MeetingEvent{ExternalRecordingID: "123456"}

	userRepo.On("EnsureFallbackOrganizer", mock.Anything, "org-1").Return(fallbackOrganizer(), nil)
	meetingRepo.On("ReserveExternalID", mock.Anything, "123456", mock.AnythingOfType("string")).Return(nil)
	meetingRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Meeting")).Return(nil)
	publisher.On("PublishMeetingIngested", mock.Anything, mock.MatchedBy(func(msg models.MeetingIngestedMessage) bool {
		return msg.ExternalRecordingID == "123456" && msg.Created && msg.Source == models.SourceWebhook
	})).Return(nil)

	err := svc.ProcessEvent(ctx, event, models.SourceWebhook)
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}
