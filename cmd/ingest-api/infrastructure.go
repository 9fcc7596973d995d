// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/loopnotes/meeting-ingest-service/internal/domain"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/auth"
	"github.com/loopnotes/meeting-ingest-service/internal/infrastructure/store"
	"github.com/loopnotes/meeting-ingest-service/internal/logging"
)

// setupJWTAuth configures JWT authentication for the service
func setupJWTAuth() (*auth.JWTAuth, error) {
	jwtAuthConfig := auth.JWTAuthConfig{
		JWKSURL:            os.Getenv("JWKS_URL"),
		Audience:           os.Getenv("JWT_AUDIENCE"),
		MockLocalPrincipal: os.Getenv("JWT_AUTH_DISABLED_MOCK_LOCAL_PRINCIPAL"),
	}
	return auth.NewJWTAuth(jwtAuthConfig)
}

// setupNATS connects to NATS and wires connection lifecycle handling into
// the graceful shutdown machinery.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.DrainTimeout(10*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established", "url", env.NatsURL)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, s *nats.Subscription, err error) {
			if s != nil {
				slog.ErrorContext(ctx, "NATS async error", logging.ErrKey, err, "subject", s.Subject)
				return
			}
			slog.ErrorContext(ctx, "NATS async error", logging.ErrKey, err)
		}),
		nats.ClosedHandler(func(conn *nats.Conn) {
			err := conn.LastError()
			if err != nil {
				slog.ErrorContext(ctx, "NATS connection closed abnormally", logging.ErrKey, err)
			}
			// Trigger process shutdown if the connection closes out from
			// under us.
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	gracefulCloseWG.Add(1)
	return natsConn, nil
}

// repositories bundles every NATS KV repository of the service.
type repositories struct {
	Meeting       domain.MeetingRepository
	PendingAction domain.PendingActionRepository
	User          domain.UserRepository
	PollState     domain.PollStateRepository
}

// getKeyValueStores creates or binds the JetStream KV buckets and builds
// the repositories on top of them.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	buckets := map[string]jetstream.KeyValue{}
	for _, name := range []string{
		store.KVStoreNameMeetings,
		store.KVStoreNamePendingActions,
		store.KVStoreNameUsers,
		store.KVStoreNameIngestState,
	} {
		kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:  name,
			History: 1,
		})
		if err != nil {
			return nil, err
		}
		buckets[name] = kv
	}

	return &repositories{
		Meeting:       store.NewNatsMeetingRepository(buckets[store.KVStoreNameMeetings]),
		PendingAction: store.NewNatsPendingActionRepository(buckets[store.KVStoreNamePendingActions]),
		User:          store.NewNatsUserRepository(buckets[store.KVStoreNameUsers]),
		PollState:     store.NewNatsPollStateRepository(buckets[store.KVStoreNameIngestState]),
	}, nil
}

// gracefulShutdown drains NATS and stops the HTTP server within a bounded
// window.
func gracefulShutdown(httpServer *http.Server, natsConn *nats.Conn, gracefulCloseWG *sync.WaitGroup, cancel context.CancelFunc) {
	slog.Info("shutting down")
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.With(logging.ErrKey, err).Error("error shutting down http server")
	}
	gracefulCloseWG.Done()

	if natsConn != nil && !natsConn.IsClosed() {
		if err := natsConn.Drain(); err != nil {
			slog.With(logging.ErrKey, err).Error("error draining NATS connection")
		}
		gracefulCloseWG.Done()
	}

	gracefulCloseWG.Wait()
	slog.Info("shutdown complete")
}
