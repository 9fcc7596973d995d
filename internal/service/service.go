// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service contains the application services that implement the
// ingestion, approval, and sync workflows.
package service

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// OrganizationUID is the organization ingested meetings belong to.
	OrganizationUID string
}
