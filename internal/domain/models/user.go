// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"time"
)

// FallbackOrganizerUID is the well-known UID of the identity that owns
// meetings whose recording owner doesn't match any known user. It is
// created once and reused, never duplicated.
const FallbackOrganizerUID = "fathom-fallback-organizer"

// User is a known member of an organization. Assignee resolution and
// organizer matching both go through the email index.
type User struct {
	UID             string    `json:"uid"`
	Email           string    `json:"email"`
	DisplayName     string    `json:"display_name,omitempty"`
	OrganizationUID string    `json:"organization_uid,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewFallbackOrganizer builds the default organizer identity used when a
// recording owner's email matches no known user.
func NewFallbackOrganizer(organizationUID string) *User {
	now := time.Now().UTC()
	return &User{
		UID:             FallbackOrganizerUID,
		Email:           "",
		DisplayName:     "Fathom Recordings",
		OrganizationUID: organizationUID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
