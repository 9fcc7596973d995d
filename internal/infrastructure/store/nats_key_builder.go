// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"fmt"
	"strings"

	"github.com/akamensky/base58"
)

// Key prefixes for entities and secondary indices inside the KV buckets.
const (
	KeyPrefixIndex          = "index"
	KeyPrefixIndexRecording = "recording"
	KeyPrefixIndexMeeting   = "meeting"
	KeyPrefixIndexEmail     = "email"
	KeyPrefixDedup          = "dedup"
)

// EncodeIndexValue makes an arbitrary index value safe for use inside a
// NATS KV key. NATS keys only allow a restricted character set (emails,
// URLs and free text all violate it), so values are base58-encoded:
// strictly alphanumeric, no padding.
func EncodeIndexValue(value string) string {
	return base58.Encode([]byte(value))
}

// DecodeIndexValue reverses EncodeIndexValue.
func DecodeIndexValue(encoded string) (string, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid index key segment: %w", err)
	}
	return string(raw), nil
}

// RecordingIndexKey builds the uniqueness-constraint key for an external
// recording id (e.g. "index/recording/<encoded-id>").
func RecordingIndexKey(externalRecordingID string) string {
	return strings.Join([]string{KeyPrefixIndex, KeyPrefixIndexRecording, EncodeIndexValue(externalRecordingID)}, "/")
}

// MeetingActionIndexKey builds the per-meeting action index key
// (e.g. "index/meeting/<meeting-uid>/<action-uid>").
func MeetingActionIndexKey(meetingUID, actionUID string) string {
	return strings.Join([]string{KeyPrefixIndex, KeyPrefixIndexMeeting, meetingUID, actionUID}, "/")
}

// MeetingActionIndexPrefix is the ListKeys filter prefix for a meeting's actions.
func MeetingActionIndexPrefix(meetingUID string) string {
	return strings.Join([]string{KeyPrefixIndex, KeyPrefixIndexMeeting, meetingUID}, "/") + "/"
}

// EmailIndexKey builds the user email index key (e.g. "index/email/<encoded-email>").
func EmailIndexKey(email string) string {
	return strings.Join([]string{KeyPrefixIndex, KeyPrefixIndexEmail, EncodeIndexValue(strings.ToLower(email))}, "/")
}

// DedupKey builds the action-item dedup key for a (meeting, description
// digest) pair (e.g. "dedup/<meeting-uid>/<digest>").
func DedupKey(meetingUID, dedupDigest string) string {
	return strings.Join([]string{KeyPrefixDedup, meetingUID, dedupDigest}, "/")
}
