// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/loopnotes/meeting-ingest-service/internal/handlers"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/auth"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
	"github.com/loopnotes/meeting-ingest-service/internal/middleware"
	"github.com/loopnotes/meeting-ingest-service/internal/service"
)

// apiHandlers bundles the HTTP handlers mounted on the router.
type apiHandlers struct {
	Webhook       *handlers.WebhookHandlers
	Meeting       *handlers.MeetingHandlers
	PendingAction *handlers.PendingActionHandlers
}

// readiness reports whether every service dependency is wired.
type readiness struct {
	services []service.Service
}

func (r readiness) ready() bool {
	for _, svc := range r.services {
		if !svc.ServiceReady() {
			return false
		}
	}
	return true
}

// setupHTTPServer configures and starts the HTTP server
func setupHTTPServer(flags flags, api apiHandlers, jwtAuth *auth.JWTAuth, ready readiness, gracefulCloseWG *sync.WaitGroup) *http.Server {
	router := chi.NewRouter()

	router.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	router.Post("/webhooks/fathom", api.Webhook.HandleFathomWebhook)
	router.Get("/webhooks/fathom/health", api.Webhook.HandleWebhookHealth)

	router.Get("/meetings/{uid}", api.Meeting.HandleGetMeeting)
	router.Get("/meetings/by-recording/{recording_id}", api.Meeting.HandleGetMeetingByRecording)
	router.Get("/meetings/{uid}/pending-actions", api.PendingAction.HandleListMeetingActions)

	router.Get("/pending-actions/{uid}", api.PendingAction.HandleGetPendingAction)
	router.Post("/pending-actions/{uid}/approve", api.PendingAction.HandleApproveAction)
	router.Post("/pending-actions/{uid}/reject", api.PendingAction.HandleRejectAction)
	router.Post("/pending-actions/{uid}/complete", api.PendingAction.HandleCompleteAction)
	router.Post("/pending-actions/{uid}/sync", api.PendingAction.HandleSyncAction)

	var handler http.Handler = router

	// Add HTTP middleware
	// Note: Order matters - RequestIDMiddleware should come first in the chain,
	// so it should be the last middleware added to the handler since it is executed in reverse order.
	handler = middleware.WebhookBodyCaptureMiddleware()(handler)
	handler = middleware.AuthorizationMiddleware(jwtAuth)(handler)
	handler = middleware.RequestLoggerMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	handler = otelhttp.NewHandler(handler, "meeting-ingest-service")

	// Set up http listener in a goroutine using provided command line parameters.
	var addr string
	if flags.Bind == "*" {
		addr = ":" + flags.Port
	} else {
		addr = flags.Bind + ":" + flags.Port
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 3 * time.Second,
	}
	gracefulCloseWG.Add(1)
	go func() {
		slog.With("addr", addr).Debug("starting http server, listening on port " + flags.Port)
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.With(logging.ErrKey, err).Error("http listener error")
			os.Exit(1)
		}
		// Because ErrServerClosed is *immediately* returned when Shutdown is
		// called, not when when Shutdown completes, this must not yet decrement
		// the wait group.
	}()

	return httpServer
}
