// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rollcall wires the condition reflection engine together: the
// database, the event bus, the member importer, and the reflection runner.
package rollcall

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/rollcall/database"
	"github.com/blinklabs-io/rollcall/database/models"
	"github.com/blinklabs-io/rollcall/event"
	"github.com/blinklabs-io/rollcall/mail"
	"github.com/blinklabs-io/rollcall/mask"
	"github.com/blinklabs-io/rollcall/member"
	"github.com/blinklabs-io/rollcall/reconcile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Service struct {
	config       Config
	db           *database.Database
	eventBus     *event.EventBus
	importer     *member.Importer
	runner       *reconcile.Runner
	shutdownOnce sync.Once
}

func New(cfg Config) (*Service, error) {
	db, err := database.New(cfg.dataDir, cfg.logger)
	if err != nil {
		return nil, err
	}
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	sender := cfg.mailSender
	if sender == nil {
		sender = mail.NewConsoleSender(cfg.logger)
	}
	masker := mask.NewService(db, cfg.maskSalt, cfg.logger)
	metrics := reconcile.NewMetrics(cfg.promRegistry)
	executor := reconcile.NewExecutor(db, masker, cfg.logger, metrics)
	runner := reconcile.NewRunner(
		db,
		executor,
		eventBus,
		sender,
		cfg.logger,
		metrics,
		cfg.ownerOrgCode,
		cfg.immediateCeiling,
	)
	s := &Service{
		config:   cfg,
		db:       db,
		eventBus: eventBus,
		importer: member.NewImporter(db, eventBus, cfg.logger),
		runner:   runner,
	}
	// Reflect auto-registered contracts whenever a member import finishes
	eventBus.SubscribeFunc(
		event.MemberImportCompletedEventType,
		runner.HandleMemberImport,
	)
	return s, nil
}

// Database returns the underlying store.
func (s *Service) Database() *database.Database {
	return s.db
}

// EventBus returns the service event bus.
func (s *Service) EventBus() *event.EventBus {
	return s.eventBus
}

// Run blocks until the context is cancelled, performing a scheduled
// reflection pass at the configured interval. When a metrics port is
// configured and the prometheus registry can be gathered, a metrics listener
// is served alongside.
func (s *Service) Run(ctx context.Context) error {
	var metricsServer *http.Server
	if s.config.metricsPort > 0 {
		if gatherer, ok := s.config.promRegistry.(prometheus.Gatherer); ok {
			mux := http.NewServeMux()
			mux.Handle(
				"/metrics",
				promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
			)
			metricsServer = &http.Server{
				Addr:              fmt.Sprintf(":%d", s.config.metricsPort),
				Handler:           mux,
				ReadHeaderTimeout: 60 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}
			s.config.logger.Info(
				"serving prometheus metrics on "+metricsServer.Addr,
				"component", "rollcall",
			)
			go func() {
				if err := metricsServer.ListenAndServe(); err != nil &&
					!errors.Is(err, http.ErrServerClosed) {
					s.config.logger.Error(
						"failed to start metrics listener",
						"component", "rollcall",
						"error", err,
					)
				}
			}()
		}
	}
	ticker := time.NewTicker(s.config.scheduleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if metricsServer != nil {
				shutdownCtx, cancel := context.WithTimeout(
					context.Background(),
					5*time.Second,
				)
				defer cancel()
				if err := metricsServer.Shutdown(shutdownCtx); err != nil {
					s.config.logger.Error(
						"metrics server shutdown error",
						"component", "rollcall",
						"error", err,
					)
				}
			}
			return nil
		case now := <-ticker.C:
			if err := s.RunScheduled(now); err != nil {
				s.config.logger.Error(
					"scheduled reflection pass failed",
					"component", "rollcall",
					"error", err,
				)
			}
		}
	}
}

// RunScheduled reflects every eligible contract, as the daily batch does.
func (s *Service) RunScheduled(now time.Time) error {
	return s.runner.RunScheduled(now)
}

// RunImmediate reflects one contract on demand. Registration mail is
// queued only when sendMail is set.
func (s *Service) RunImmediate(
	orgID uint,
	contractID uint,
	sendMail bool,
	requesterID *uint,
) (*reconcile.Result, error) {
	return s.runner.RunImmediate(orgID, contractID, sendMail, requesterID)
}

// ImportMembers replaces an organization's active member set.
func (s *Service) ImportMembers(
	orgID uint,
	rows []models.Member,
	requesterID *uint,
) (int, error) {
	return s.importer.Import(orgID, rows, requesterID)
}

// SendReservationMails delivers an organization's queued registration mail.
func (s *Service) SendReservationMails(orgID uint) (int, error) {
	return s.runner.SendReservationMails(orgID)
}

// Stop shuts the service down. Safe to call more than once.
func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		s.eventBus.Stop()
		err = s.db.Close()
	})
	return err
}
