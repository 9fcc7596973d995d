// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package main is the meeting ingest API that receives vendor recording
// webhooks, manages pending action approval, and syncs approved actions
// to external task systems.
package main

import (
	"context"
	_ "expvar"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/loopnotes/meeting-ingest-service/internal/handlers"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/fathom"
	fathomwebhook "github.com/loopnotes/meeting-ingest-service/internal/infrastructure/fathom/webhook"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/messaging"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/internal/service"
	"github.com/loopnotes/meeting-ingest-service/pkg/concurrent"
	"github.com/loopnotes/meeting-ingest-service/pkg/utils"
)

// webhookDispatchConcurrency bounds concurrent webhook payload processing.
const webhookDispatchConcurrency = 8

func main() {
	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructureLogConfig()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up OpenTelemetry SDK")
		os.Exit(1)
	}

	// Set up JWT validator used by the authorization middleware.
	jwtAuth, err := setupJWTAuth()
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up JWT authentication")
		os.Exit(1)
	}

	// Setup NATS connection
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	// Get the key-value stores for the service.
	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Webhook signature verification fails closed unless explicitly disabled.
	var webhookValidator *fathomwebhook.FathomWebhookValidator
	if env.Fathom.WebhookSecret == "" {
		slog.Warn("FATHOM_WEBHOOK_SECRET not set, webhook signature verification is DISABLED")
		webhookValidator = fathomwebhook.NewDisabledValidator()
	} else {
		webhookValidator = fathomwebhook.NewFathomWebhookValidator(env.Fathom.WebhookSecret)
	}

	syncRegistry := setupSyncTargets(env)

	// Initialize services
	serviceConfig := service.ServiceConfig{
		OrganizationUID: env.OrganizationUID,
	}
	messageBuilder := messaging.NewMessageBuilder(natsConn)
	dispatcher := concurrent.NewDispatcher(webhookDispatchConcurrency)
	ingestionService := service.NewIngestionService(
		repos.Meeting,
		repos.PendingAction,
		repos.User,
		messageBuilder,
		serviceConfig,
	)
	webhookService := service.NewFathomWebhookService(
		webhookValidator,
		dispatcher,
		ingestionService,
	)
	pendingActionService := service.NewPendingActionService(
		repos.PendingAction,
		syncRegistry,
		messageBuilder,
	)

	// Initialize handlers
	api := apiHandlers{
		Webhook:       handlers.NewWebhookHandlers(webhookService),
		Meeting:       handlers.NewMeetingHandlers(repos.Meeting),
		PendingAction: handlers.NewPendingActionHandlers(pendingActionService),
	}

	ready := readiness{services: []service.Service{
		webhookService,
		ingestionService,
		pendingActionService,
	}}

	httpServer := setupHTTPServer(flags, api, jwtAuth, ready, &gracefulCloseWG)

	// Start the polling reconciler as the backstop for dropped webhooks.
	if env.Poll.Enabled {
		fathomClient := fathom.NewClient(fathom.Config{
			BaseURL: env.Fathom.BaseURL,
			APIKey:  env.Fathom.APIKey,
		})
		pollerService := service.NewPollerService(
			fathomClient,
			ingestionService,
			repos.PollState,
			env.Poll.Interval,
		)
		gracefulCloseWG.Add(1)
		go func() {
			defer gracefulCloseWG.Done()
			pollerService.Run(ctx)
		}()
	} else {
		slog.Warn("polling reconciler disabled, webhook delivery is the only ingestion path")
	}

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	gracefulShutdown(httpServer, natsConn, &gracefulCloseWG, cancel)

	if err := dispatcher.Shutdown(context.Background()); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down dispatcher")
	}
	if err := otelShutdown(context.Background()); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down OpenTelemetry SDK")
	}
}
