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

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rollcall "github.com/blinklabs-io/rollcall"
	"github.com/blinklabs-io/rollcall/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// serveCommand runs the long-running mode: a periodic scheduled reflection
// pass plus the prometheus metrics listener.
func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reflection scheduler and metrics listener",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			logger := commonRun()
			svc, err := newService(
				cfg,
				logger,
				rollcall.WithPrometheusRegistry(prometheus.NewRegistry()),
				rollcall.WithMetricsPort(cfg.MetricsPort),
			)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			defer svc.Stop()
			signalCtx, signalCtxStop := signal.NotifyContext(
				cmd.Context(),
				syscall.SIGINT,
				syscall.SIGTERM,
			)
			defer signalCtxStop()
			if err := svc.Run(signalCtx); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
}
