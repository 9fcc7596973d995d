// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/domain/models"
)

func TestNatsUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	kv := NewMockNatsKeyValue()
	repo := NewNatsUserRepository(kv)

	user := &models.User{UID: "user-1", Email: "ana@acme.test", DisplayName: "Ana Example"}
	require.NoError(t, repo.CreateOnly(ctx, user.UID, user))
	require.NoError(t, repo.PutIndex(ctx, EmailIndexKey(user.Email), []byte(user.UID)))

	got, err := repo.GetByEmail(ctx, "ana@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UID)

	// Email index lookups are case-insensitive.
	got, err = repo.GetByEmail(ctx, "Ana@Acme.Test")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UID)

	_, err = repo.GetByEmail(ctx, "nobody@acme.test")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeNotFound, domain.GetErrorType(err))
}

func TestNatsUserRepository_EnsureFallbackOrganizer(t *testing.T) {
	ctx := context.Background()
	repo := NewNatsUserRepository(NewMockNatsKeyValue())

	first, err := repo.EnsureFallbackOrganizer(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, models.FallbackOrganizerUID, first.UID)
	assert.Equal(t, "org-1", first.OrganizationUID)

	// Subsequent callers get the existing record.
	second, err := repo.EnsureFallbackOrganizer(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
}

func TestEncodeIndexValue_RoundTrip(t *testing.T) {
	values := []string{
		"ana@acme.test",
		"123456",
		"with spaces and / slashes",
	}

	for _, value := range values {
		encoded := EncodeIndexValue(value)
		// NATS KV keys cannot contain these characters.
		assert.NotContains(t, encoded, "@")
		assert.NotContains(t, encoded, "/")
		assert.NotContains(t, encoded, " ")

		decoded, err := DecodeIndexValue(encoded)
		require.NoError(t, err)
		assert.Equal(t, value, decoded)
	}
}
