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

package rollcall

import (
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/rollcall/mail"
	"github.com/blinklabs-io/rollcall/reconcile"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultScheduleInterval is how often the long-running mode walks the
// organizations for scheduled reflection.
const DefaultScheduleInterval = 24 * time.Hour

type Config struct {
	promRegistry     prometheus.Registerer
	logger           *slog.Logger
	mailSender       mail.Sender
	dataDir          string
	ownerOrgCode     string
	maskSalt         string
	immediateCeiling int64
	metricsPort      uint
	scheduleInterval time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the service config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new rollcall config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		ownerOrgCode:     reconcile.DefaultOwnerOrgCode,
		immediateCeiling: reconcile.DefaultImmediateCeiling,
		scheduleInterval: DefaultScheduleInterval,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus registerer for metrics
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithMailSender specifies the delivery backend for registration mail. The
// default logs mail to the configured logger instead of sending it
func WithMailSender(sender mail.Sender) ConfigOptionFunc {
	return func(c *Config) {
		c.mailSender = sender
	}
}

// WithOwnerOrgCode specifies the platform-owner organization code excluded
// from scheduled reflection
func WithOwnerOrgCode(code string) ConfigOptionFunc {
	return func(c *Config) {
		c.ownerOrgCode = code
	}
}

// WithMaskSalt specifies the salt used when hashing personal information
func WithMaskSalt(salt string) ConfigOptionFunc {
	return func(c *Config) {
		c.maskSalt = salt
	}
}

// WithImmediateCeiling specifies the maximum matching member count for an
// immediate reflection run
func WithImmediateCeiling(ceiling int64) ConfigOptionFunc {
	return func(c *Config) {
		c.immediateCeiling = ceiling
	}
}

// WithMetricsPort specifies the port for the prometheus metrics listener in
// the long-running mode. The default of 0 disables the listener
func WithMetricsPort(port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.metricsPort = port
	}
}

// WithScheduleInterval specifies how often the long-running mode performs a
// scheduled reflection pass
func WithScheduleInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.scheduleInterval = interval
	}
}
