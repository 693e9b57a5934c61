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
	"time"

	"github.com/blinklabs-io/rollcall/internal/config"
	"github.com/spf13/cobra"
)

// batchCommand runs the daily scheduled reflection over every organization.
func batchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Reflect conditions for every auto-registered or reserved contract",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				slog.Error("no config found in context")
				os.Exit(1)
			}
			logger := commonRun()
			svc, err := newService(cfg, logger)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			defer svc.Stop()
			if err := svc.RunScheduled(time.Now()); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
		},
	}
}
