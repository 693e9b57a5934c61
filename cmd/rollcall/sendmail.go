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
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/rollcall/internal/config"
	"github.com/spf13/cobra"
)

// sendmailCommand delivers an organization's queued registration mail. Run
// from cron at each organization's configured send time.
func sendmailCommand() *cobra.Command {
	var orgID uint
	cmd := &cobra.Command{
		Use:   "sendmail",
		Short: "Deliver queued registration mail for an organization",
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
			sent, err := svc.SendReservationMails(orgID)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Printf("Sent: %d\n", sent)
		},
	}
	cmd.Flags().UintVar(&orgID, "org", 0, "organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
