// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package webhook validates Fathom webhook signatures.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
)

// signatureVersion is the only accepted signature scheme version. Anything
// else fails closed.
const signatureVersion = "v1"

// FathomWebhookValidator validates Fathom webhook signatures. The header
// carries "v1,<sig> [<sig> ...]" where each candidate signature is a
// base64-encoded HMAC-SHA256 of the exact raw body; multiple candidates
// support secret rotation on the vendor side.
type FathomWebhookValidator struct {
	secret   []byte
	disabled bool
}

// NewFathomWebhookValidator creates a validator for the given webhook secret.
func NewFathomWebhookValidator(secret string) *FathomWebhookValidator {
	return &FathomWebhookValidator{secret: []byte(secret)}
}

// NewDisabledValidator creates a validator that accepts everything. This
// is an explicit opt-in for local development; production wiring must
// never reach it with an empty secret by accident.
func NewDisabledValidator() *FathomWebhookValidator {
	return &FathomWebhookValidator{disabled: true}
}

// Disabled reports whether signature verification is turned off.
func (v *FathomWebhookValidator) Disabled() bool {
	return v.disabled
}

// VerifySignature checks the signature header against the raw body bytes.
func (v *FathomWebhookValidator) VerifySignature(signatureHeader string, body []byte) error {
	if v.disabled {
		return nil
	}

	if len(v.secret) == 0 {
		return domain.NewInternalError("webhook secret not configured")
	}

	if signatureHeader == "" {
		return domain.NewUnauthorizedError("missing webhook signature")
	}

	version, candidates, ok := strings.Cut(signatureHeader, ",")
	if !ok {
		return domain.NewUnauthorizedError("malformed webhook signature header")
	}
	if version != signatureVersion {
		return domain.NewUnauthorizedError(
			fmt.Sprintf("unsupported webhook signature version %q", version))
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	for _, candidate := range strings.Split(candidates, " ") {
		if candidate == "" {
			continue
		}
		if hmac.Equal([]byte(candidate), expected) {
			return nil
		}
	}

	return domain.NewUnauthorizedError("webhook signature does not match expected signature")
}

var _ domain.WebhookVerifier = (*FathomWebhookValidator)(nil)
