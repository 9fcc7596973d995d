// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// NatsUserRepository is the NATS KV store repository for users. Users are
// keyed by UID with an email index for assignee/organizer resolution.
type NatsUserRepository struct {
	*NatsBaseRepository[models.User]
}

// NewNatsUserRepository creates a new NATS KV store repository for users.
func NewNatsUserRepository(kvStore INatsKeyValue) *NatsUserRepository {
	return &NatsUserRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.User](kvStore, "user"),
	}
}

// Get retrieves a user by UID.
func (r *NatsUserRepository) Get(ctx context.Context, userUID string) (*models.User, error) {
	return r.NatsBaseRepository.Get(ctx, userUID)
}

// GetByEmail resolves the email index entry and loads the referenced user.
func (r *NatsUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	value, err := r.GetRawValue(ctx, EmailIndexKey(email))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(
				fmt.Sprintf("no user with email '%s'", email), err)
		}
		return nil, err
	}

	return r.NatsBaseRepository.Get(ctx, string(value))
}

// EnsureFallbackOrganizer creates the default organizer identity if it
// doesn't exist yet and returns it. kv.Create makes the first caller win;
// everyone else reads the existing record.
func (r *NatsUserRepository) EnsureFallbackOrganizer(ctx context.Context, organizationUID string) (*models.User, error) {
	fallback := models.NewFallbackOrganizer(organizationUID)

	err := r.CreateOnly(ctx, models.FallbackOrganizerUID, fallback)
	if err == nil {
		slog.DebugContext(ctx, "created fallback organizer identity",
			"user_uid", models.FallbackOrganizerUID)
		return fallback, nil
	}
	if domain.GetErrorType(err) != domain.ErrorTypeConflict {
		slog.ErrorContext(ctx, "failed to ensure fallback organizer", logging.ErrKey, err)
		return nil, err
	}

	return r.NatsBaseRepository.Get(ctx, models.FallbackOrganizerUID)
}

var _ domain.UserRepository = (*NatsUserRepository)(nil)
