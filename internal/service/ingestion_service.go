// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// updateRetryLimit bounds the retry loops on merge and on claim repair.
const updateRetryLimit = 3

// IngestionService turns vendor recording payloads into durable meetings
// and pending actions. Both ingestion paths (webhook and poller) converge
// here, so idempotency lives here: the external recording id reservation
// makes meeting creation race-safe, and the per-description dedup
// reservation makes action extraction re-runnable.
type IngestionService struct {
	meetingRepository       domain.MeetingRepository
	pendingActionRepository domain.PendingActionRepository
	userRepository          domain.UserRepository
	messageBuilder          domain.MessagePublisher
	config                  ServiceConfig
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(
	meetingRepository domain.MeetingRepository,
	pendingActionRepository domain.PendingActionRepository,
	userRepository domain.UserRepository,
	messageBuilder domain.MessagePublisher,
	config ServiceConfig,
) *IngestionService {
	return &IngestionService{
		meetingRepository:       meetingRepository,
		pendingActionRepository: pendingActionRepository,
		userRepository:          userRepository,
		messageBuilder:          messageBuilder,
		config:                  config,
	}
}

// ServiceReady checks if the service is ready to process requests
func (s *IngestionService) ServiceReady() bool {
	return s.meetingRepository != nil &&
		s.pendingActionRepository != nil &&
		s.userRepository != nil &&
		s.messageBuilder != nil
}

// ParseEvent decodes raw webhook body bytes into the canonical event
// shape. Malformed payloads come back as validation errors.
func (s *IngestionService) ParseEvent(ctx context.Context, body []byte) (*models.MeetingEvent, error) {
	var payload models.FathomWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, domain.NewValidationError("malformed webhook payload", err)
	}

	event, err := payload.ToMeetingEvent()
	if err != nil {
		return nil, domain.NewValidationError("webhook payload failed normalization", err)
	}

	slog.DebugContext(ctx, "normalized webhook payload",
		"external_recording_id", event.ExternalRecordingID,
		"invitees", len(event.Invitees),
		"action_items", len(event.ActionItems))

	return event, nil
}

// ProcessWebhookBody is the asynchronous webhook processing job: parse,
// upsert, extract.
func (s *IngestionService) ProcessWebhookBody(ctx context.Context, body []byte) error {
	event, err := s.ParseEvent(ctx, body)
	if err != nil {
		return err
	}
	return s.ProcessEvent(ctx, event, models.SourceWebhook)
}

// ProcessPayload runs a decoded vendor payload through the pipeline. The
// polling reconciler uses this path.
func (s *IngestionService) ProcessPayload(ctx context.Context, payload *models.FathomWebhookPayload, source models.MeetingSource) error {
	event, err := payload.ToMeetingEvent()
	if err != nil {
		return domain.NewValidationError("recording payload failed normalization", err)
	}
	return s.ProcessEvent(ctx, event, source)
}

// ProcessEvent upserts the meeting for the event and extracts its action
// items. Processing the same event any number of times converges on the
// same stored state.
func (s *IngestionService) ProcessEvent(ctx context.Context, event *models.MeetingEvent, source models.MeetingSource) error {
	ctx = logging.AppendCtx(ctx, slog.String("external_recording_id", event.ExternalRecordingID))

	meeting, created, err := s.UpsertFromEvent(ctx, event, source)
	if err != nil {
		return err
	}

	actionsCreated, err := s.ExtractActionItems(ctx, meeting, event)
	if err != nil {
		return err
	}

	msg := models.MeetingIngestedMessage{
		MeetingUID:          meeting.UID,
		ExternalRecordingID: meeting.ExternalRecordingID,
		Source:              source,
		Created:             created,
		ActionItemCount:     actionsCreated,
		OccurredAt:          time.Now().UTC(),
	}
	if err := s.messageBuilder.PublishMeetingIngested(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish meeting ingested message", logging.ErrKey, err)
	}

	slog.InfoContext(ctx, "processed recording event",
		"meeting_uid", meeting.UID, "created", created, "actions_created", actionsCreated)

	return nil
}

// UpsertFromEvent creates the meeting for the event, or merges the event
// into the existing meeting when the recording was seen before. It
// reports whether a new meeting was created.
func (s *IngestionService) UpsertFromEvent(ctx context.Context, event *models.MeetingEvent, source models.MeetingSource) (*models.Meeting, bool, error) {
	meeting, err := s.buildMeeting(ctx, event, source)
	if err != nil {
		return nil, false, err
	}

	for attempt := 0; attempt < updateRetryLimit; attempt++ {
		// Claim the recording id. Losing the claim means another delivery
		// (webhook retry, concurrent poller) got there first.
		err = s.meetingRepository.ReserveExternalID(ctx, event.ExternalRecordingID, meeting.UID)
		if err == nil {
			if createErr := s.meetingRepository.Create(ctx, meeting); createErr != nil {
				// The claim must not outlive a failed create, or every later
				// delivery of this recording would resolve to a meeting that
				// was never stored.
				if relErr := s.meetingRepository.ReleaseExternalID(ctx, event.ExternalRecordingID); relErr != nil {
					slog.ErrorContext(ctx, "failed to release recording id claim after create failure",
						logging.ErrKey, relErr)
				}
				return nil, false, createErr
			}
			slog.InfoContext(ctx, "created meeting from recording event", "meeting_uid", meeting.UID)
			return meeting, true, nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return nil, false, err
		}

		existing, created, mergeErr := s.mergeIntoExisting(ctx, event)
		if mergeErr == nil {
			return existing, created, nil
		}
		if domain.GetErrorType(mergeErr) != domain.ErrorTypeNotFound {
			return nil, false, mergeErr
		}

		// The claim references a meeting that was never stored (a crash
		// between claim and create). Drop the stale claim and re-claim.
		slog.WarnContext(ctx, "recording id claim references no stored meeting, repairing")
		if relErr := s.meetingRepository.ReleaseExternalID(ctx, event.ExternalRecordingID); relErr != nil {
			return nil, false, relErr
		}
	}

	return nil, false, domain.NewConflictError(
		fmt.Sprintf("gave up claiming recording %s after %d attempts", event.ExternalRecordingID, updateRetryLimit))
}

// mergeIntoExisting folds the event into the already-stored meeting,
// retrying the optimistic update on revision conflicts.
func (s *IngestionService) mergeIntoExisting(ctx context.Context, event *models.MeetingEvent) (*models.Meeting, bool, error) {
	for attempt := 0; attempt < updateRetryLimit; attempt++ {
		existing, err := s.meetingRepository.GetByExternalRecordingID(ctx, event.ExternalRecordingID)
		if err != nil {
			return nil, false, err
		}

		if !existing.MergeEvent(event) {
			slog.DebugContext(ctx, "recording event carries nothing new", "meeting_uid", existing.UID)
			return existing, false, nil
		}

		_, revision, err := s.meetingRepository.GetWithRevision(ctx, existing.UID)
		if err != nil {
			return nil, false, err
		}

		existing.UpdatedAt = time.Now().UTC()
		err = s.meetingRepository.Update(ctx, existing, revision)
		if err == nil {
			slog.InfoContext(ctx, "merged recording event into existing meeting", "meeting_uid", existing.UID)
			return existing, false, nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeConflict {
			return nil, false, err
		}
	}

	return nil, false, domain.NewConflictError(
		fmt.Sprintf("gave up merging recording %s after %d attempts", event.ExternalRecordingID, updateRetryLimit))
}

// buildMeeting assembles a new meeting aggregate from the event,
// resolving the organizer and the participants against known users.
func (s *IngestionService) buildMeeting(ctx context.Context, event *models.MeetingEvent, source models.MeetingSource) (*models.Meeting, error) {
	organizerUID, err := s.resolveOrganizer(ctx, event.OrganizerEmail)
	if err != nil {
		return nil, err
	}

	meeting := &models.Meeting{
		Title:               event.Title,
		ExternalRecordingID: event.ExternalRecordingID,
		Source:              source,
		MeetingType:         event.MeetingType,
		ScheduledStartTime:  event.ScheduledStartTime,
		ScheduledEndTime:    event.ScheduledEndTime,
		RecordingStartTime:  event.RecordingStartTime,
		RecordingEndTime:    event.RecordingEndTime,
		RecordingURL:        event.RecordingURL,
		ShareURL:            event.ShareURL,
		Summary:             event.Summary,
		TranscriptURL:       event.TranscriptURL,
		OrganizerUID:        organizerUID,
		OrganizationUID:     s.config.OrganizationUID,
	}

	for _, invitee := range event.Invitees {
		attendance, invitation := invitee.Attendance()
		participant := models.Participant{
			Email:            invitee.Email,
			DisplayName:      invitee.Name,
			External:         invitee.External,
			AttendanceStatus: attendance,
			InvitationStatus: invitation,
		}
		if user := s.lookupUser(ctx, invitee.Email); user != nil {
			participant.UserUID = user.UID
		}
		meeting.Participants = append(meeting.Participants, participant)
	}

	// The UID is assigned up front because the external id reservation
	// needs it before the aggregate exists.
	meeting.UID = uuid.New().String()

	return meeting, nil
}

// resolveOrganizer maps the vendor-reported organizer email onto a known
// user, falling back to the shared fallback organizer identity when the
// email is absent or unknown.
func (s *IngestionService) resolveOrganizer(ctx context.Context, email string) (string, error) {
	if email != "" {
		user, err := s.userRepository.GetByEmail(ctx, email)
		if err == nil {
			return user.UID, nil
		}
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return "", err
		}
		slog.DebugContext(ctx, "organizer email does not match a known user", "email", email)
	}

	fallback, err := s.userRepository.EnsureFallbackOrganizer(ctx, s.config.OrganizationUID)
	if err != nil {
		return "", err
	}
	return fallback.UID, nil
}

// lookupUser resolves an email to a known user, returning nil for unknown
// emails and lookup failures. Participant resolution is best-effort.
func (s *IngestionService) lookupUser(ctx context.Context, email string) *models.User {
	if email == "" {
		return nil
	}
	user, err := s.userRepository.GetByEmail(ctx, email)
	if err != nil {
		if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			slog.WarnContext(ctx, "user lookup failed", logging.ErrKey, err, "email", email)
		}
		return nil
	}
	return user
}

// ExtractActionItems creates a NEW pending action for every action item
// on the event that hasn't been seen for this meeting before, and returns
// how many were created. Duplicate descriptions (same digest) are skipped
// via the dedup reservation, so re-processing a merged event is safe.
func (s *IngestionService) ExtractActionItems(ctx context.Context, meeting *models.Meeting, event *models.MeetingEvent) (int, error) {
	created := 0

	for _, item := range event.ActionItems {
		if item.Description == "" {
			slog.WarnContext(ctx, "skipping action item with empty description", "meeting_uid", meeting.UID)
			continue
		}

		digest := models.DedupDigest(item.Description)
		err := s.pendingActionRepository.ReserveDedupKey(ctx, meeting.UID, digest)
		if err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeConflict {
				slog.DebugContext(ctx, "action item already extracted", "meeting_uid", meeting.UID, "digest", digest)
				continue
			}
			return created, err
		}

		action := s.buildPendingAction(ctx, meeting, item)
		if err := s.pendingActionRepository.Create(ctx, action); err != nil {
			// The dedup claim must stay in step with the stored actions, or
			// this item could never be extracted again.
			if relErr := s.pendingActionRepository.ReleaseDedupKey(ctx, meeting.UID, digest); relErr != nil {
				slog.ErrorContext(ctx, "failed to release action dedup claim after create failure",
					logging.ErrKey, relErr, "meeting_uid", meeting.UID, "digest", digest)
			}
			return created, err
		}
		created++

		msg := models.ActionCreatedMessage{
			ActionUID:  action.UID,
			MeetingUID: meeting.UID,
			Title:      action.Title,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.messageBuilder.PublishActionCreated(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish action created message", logging.ErrKey, err)
		}
	}

	return created, nil
}

// buildPendingAction shapes a vendor action item into a NEW pending
// action. The traceability notes carry the playback link and timestamp so
// an approver can jump straight to the moment in the recording.
func (s *IngestionService) buildPendingAction(ctx context.Context, meeting *models.Meeting, item models.EventActionItem) *models.PendingAction {
	action := &models.PendingAction{
		MeetingUID:    meeting.UID,
		Title:         actionTitle(item.Description),
		Description:   item.Description,
		Status:        models.ActionStatusNew,
		Priority:      models.ActionPriorityMedium,
		AssigneeEmail: item.AssigneeEmail,
		AssigneeName:  item.AssigneeName,
		Notes:         actionNotes(item),
	}

	if user := s.lookupUser(ctx, item.AssigneeEmail); user != nil {
		action.AssigneeUserUID = user.UID
	}

	return action
}

// actionTitle derives a short title from the description.
func actionTitle(description string) string {
	const maxTitleLen = 120
	if len(description) <= maxTitleLen {
		return description
	}
	return description[:maxTitleLen-3] + "..."
}

// actionNotes renders the recording traceability block for an action item.
func actionNotes(item models.EventActionItem) string {
	switch {
	case item.PlaybackURL != "" && item.RecordingTimestamp != "":
		return fmt.Sprintf("From recording at %s: %s", item.RecordingTimestamp, item.PlaybackURL)
	case item.PlaybackURL != "":
		return fmt.Sprintf("From recording: %s", item.PlaybackURL)
	case item.RecordingTimestamp != "":
		return fmt.Sprintf("From recording at %s", item.RecordingTimestamp)
	default:
		return ""
	}
}
