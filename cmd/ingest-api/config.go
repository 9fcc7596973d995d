// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/pkg/utils"
)

// flags are the command line flags for the ingest service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the ingest service.
type environment struct {
	Port            string
	NatsURL         string
	OrganizationUID string
	Fathom          fathomConfig
	Poll            pollConfig
	HubSpot         hubspotConfig
	Salesforce      salesforceConfig
}

// fathomConfig holds the vendor webhook and API configuration.
type fathomConfig struct {
	WebhookSecret string
	APIKey        string
	BaseURL       string
}

// pollConfig holds the polling reconciler configuration.
type pollConfig struct {
	Enabled  bool
	Interval time.Duration
}

// hubspotConfig holds the HubSpot sync target configuration.
type hubspotConfig struct {
	Enabled     bool
	BaseURL     string
	AccessToken string
}

// salesforceConfig holds the Salesforce sync target configuration.
type salesforceConfig struct {
	Enabled      bool
	InstanceURL  string
	ClientID     string
	ClientSecret string
}

// parseFlags parses command line flags for the ingest service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the ingest service
func parseEnv() environment {
	return environment{
		Port:            utils.CoalesceString(os.Getenv("PORT"), "8080"),
		NatsURL:         utils.CoalesceString(os.Getenv("NATS_URL"), "nats://localhost:4222"),
		OrganizationUID: utils.CoalesceString(os.Getenv("ORGANIZATION_UID"), "default"),
		Fathom:          parseFathomConfig(),
		Poll:            parsePollConfig(),
		HubSpot: hubspotConfig{
			Enabled:     os.Getenv("HUBSPOT_ENABLED") == "true",
			BaseURL:     os.Getenv("HUBSPOT_BASE_URL"),
			AccessToken: os.Getenv("HUBSPOT_ACCESS_TOKEN"),
		},
		Salesforce: salesforceConfig{
			Enabled:      os.Getenv("SALESFORCE_ENABLED") == "true",
			InstanceURL:  os.Getenv("SALESFORCE_INSTANCE_URL"),
			ClientID:     os.Getenv("SALESFORCE_CLIENT_ID"),
			ClientSecret: os.Getenv("SALESFORCE_CLIENT_SECRET"),
		},
	}
}

// parseFathomConfig parses the vendor configuration from environment variables
func parseFathomConfig() fathomConfig {
	return fathomConfig{
		WebhookSecret: os.Getenv("FATHOM_WEBHOOK_SECRET"),
		APIKey:        os.Getenv("FATHOM_API_KEY"),
		BaseURL:       utils.CoalesceString(os.Getenv("FATHOM_BASE_URL"), "https://api.fathom.ai"),
	}
}

// parsePollConfig parses the polling reconciler configuration
func parsePollConfig() pollConfig {
	cfg := pollConfig{
		// Polling requires an API key; without one only the webhook path runs.
		Enabled: os.Getenv("FATHOM_API_KEY") != "" && os.Getenv("POLL_DISABLED") != "true",
	}

	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			slog.With(logging.ErrKey, err, "value", raw).Error("invalid POLL_INTERVAL provided, using default")
		} else {
			cfg.Interval = interval
		}
	}

	return cfg
}
