// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"

	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/synctargets"
)

// setupSyncTargets builds the task sync registry from the environment.
// Disabled targets are still registered so sync requests against them get
// a typed "integration disabled" answer instead of a missing capability.
func setupSyncTargets(env environment) *synctargets.Registry {
	registry := synctargets.NewRegistry()

	hubspot := synctargets.NewHubSpotProvider(synctargets.HubSpotConfig{
		Enabled:     env.HubSpot.Enabled,
		BaseURL:     env.HubSpot.BaseURL,
		AccessToken: env.HubSpot.AccessToken,
	})
	registry.RegisterProvider(hubspot)

	salesforce := synctargets.NewSalesforceProvider(synctargets.SalesforceConfig{
		Enabled:      env.Salesforce.Enabled,
		InstanceURL:  env.Salesforce.InstanceURL,
		ClientID:     env.Salesforce.ClientID,
		ClientSecret: env.Salesforce.ClientSecret,
	})
	registry.RegisterProvider(salesforce)

	slog.Info("sync targets registered",
		"hubspot_enabled", hubspot.Enabled(),
		"salesforce_enabled", salesforce.Enabled(),
	)

	return registry
}
